// Package sandbox confines filesystem writes and managed-binary resolution
// to a small set of allowed roots: the projects root, the app data
// directory and the app config directory. Every path that crosses a
// trust boundary (user-entered project names, staged file destinations,
// exported clip targets) is canonicalized and checked for containment
// before it's used.
package sandbox

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	apperr "cursedclipper/internal/errors"
)

// maxCanonicalizeAttempts bounds the retry loop absorbing transient
// filesystem lag (a file that was just created but not yet visible to
// os.Lstat on some network filesystems).
const maxCanonicalizeAttempts = 8

const canonicalizeRetryDelay = 10 * time.Millisecond

// Sandbox holds the set of roots a path is allowed to resolve under.
type Sandbox struct {
	roots []string
}

// New builds a Sandbox from one or more root directories. Each root is
// cleaned to an absolute path; roots that can't be made absolute are
// skipped rather than failing construction, since a caller may pass a
// root that hasn't been created yet.
func New(roots ...string) *Sandbox {
	s := &Sandbox{}
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			continue
		}
		s.roots = append(s.roots, filepath.Clean(abs))
	}
	return s
}

// CanonicalizeExisting resolves path to its absolute, symlink-resolved
// form. It retries up to maxCanonicalizeAttempts times (bounded ~80ms
// total) to absorb a file that was just written and hasn't settled on
// the filesystem yet.
func CanonicalizeExisting(path string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxCanonicalizeAttempts; attempt++ {
		resolved, err := filepath.EvalSymlinks(path)
		if err == nil {
			abs, err := filepath.Abs(resolved)
			if err != nil {
				return "", err
			}
			return filepath.Clean(abs), nil
		}
		lastErr = err
		if attempt < maxCanonicalizeAttempts-1 {
			time.Sleep(canonicalizeRetryDelay)
		}
	}
	return "", lastErr
}

// Contains reports whether candidate (already canonical) lies at or
// under root (already canonical), via a clean path-prefix comparison.
func Contains(root, candidate string) bool {
	root = filepath.Clean(root)
	candidate = filepath.Clean(candidate)

	if root == candidate {
		return true
	}

	sep := string(filepath.Separator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(candidate, root)
}

// Check canonicalizes path and verifies it resolves under one of the
// sandbox's roots. It returns the canonical path on success, and
// apperr.ErrSandboxViolation (wrapped) otherwise — including when a
// symlink or junction would have escaped every allowed root.
func (s *Sandbox) Check(path string) (string, error) {
	canonical, err := CanonicalizeExisting(path)
	if err != nil {
		return "", apperr.Wrap("sandbox.Check", err)
	}

	for _, root := range s.roots {
		if Contains(root, canonical) {
			return canonical, nil
		}
	}
	return "", apperr.NewWithMessage("sandbox.Check", apperr.ErrSandboxViolation, "path outside allowed roots")
}

// CheckIsFile is Check plus a regular-file assertion.
func (s *Sandbox) CheckIsFile(path string) (string, error) {
	canonical, err := s.Check(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return "", apperr.Wrap("sandbox.CheckIsFile", err)
	}
	if info.IsDir() {
		return "", apperr.NewWithMessage("sandbox.CheckIsFile", apperr.ErrSandboxViolation, "not a file")
	}
	return canonical, nil
}

// CheckIsDir is Check plus a directory assertion.
func (s *Sandbox) CheckIsDir(path string) (string, error) {
	canonical, err := s.Check(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return "", apperr.Wrap("sandbox.CheckIsDir", err)
	}
	if !info.IsDir() {
		return "", apperr.NewWithMessage("sandbox.CheckIsDir", apperr.ErrSandboxViolation, "not a directory")
	}
	return canonical, nil
}

// Roots returns the canonical root list, primarily for diagnostics/tests.
func (s *Sandbox) Roots() []string {
	out := make([]string, len(s.roots))
	copy(out, s.roots)
	return out
}
