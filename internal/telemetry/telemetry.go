// Package telemetry keeps lightweight in-memory counters of pipeline
// activity (installs, batches, clips, bytes fetched). It performs no
// network egress — a Snapshot is the only way to read it out.
package telemetry

import "sync"

// Counters is a point-in-time snapshot of the service's counters.
type Counters struct {
	InstallsAttempted int64 `json:"installsAttempted"`
	InstallsSucceeded int64 `json:"installsSucceeded"`
	BatchesExported   int64 `json:"batchesExported"`
	ClipsRendered     int64 `json:"clipsRendered"`
	BytesFetched      int64 `json:"bytesFetched"`
}

// Service aggregates counters in memory for the lifetime of the process.
type Service struct {
	mu       sync.Mutex
	counters Counters
}

// NewService creates an empty Service.
func NewService() *Service {
	return &Service{}
}

// TrackInstallAttempt records a managed-tool install attempt.
func (s *Service) TrackInstallAttempt() {
	s.mu.Lock()
	s.counters.InstallsAttempted++
	s.mu.Unlock()
}

// TrackInstallSuccess records a managed-tool install success.
func (s *Service) TrackInstallSuccess() {
	s.mu.Lock()
	s.counters.InstallsSucceeded++
	s.mu.Unlock()
}

// TrackBatchExported records one completed batch export run.
func (s *Service) TrackBatchExported(clipCount int) {
	s.mu.Lock()
	s.counters.BatchesExported++
	s.counters.ClipsRendered += int64(clipCount)
	s.mu.Unlock()
}

// TrackBytesFetched adds n bytes to the running fetch total.
func (s *Service) TrackBytesFetched(n int64) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.counters.BytesFetched += n
	s.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (s *Service) Snapshot() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}
