package main

import (
	"context"
	"fmt"
	"os"

	"cursedclipper/internal/app"
	"cursedclipper/internal/clipboard"
	"cursedclipper/internal/config"
	"cursedclipper/internal/events"
	"cursedclipper/internal/export"
	"cursedclipper/internal/fetch"
	"cursedclipper/internal/handlers"
	"cursedclipper/internal/logger"
	"cursedclipper/internal/notify"
	"cursedclipper/internal/progressbus"
	"cursedclipper/internal/sandbox"
	"cursedclipper/internal/stage"
	"cursedclipper/internal/storage"
	"cursedclipper/internal/telemetry"
	"cursedclipper/internal/tools"
	"cursedclipper/internal/youtube"

	"github.com/wailsapp/wails/v3/pkg/application"
)

// Version is set at build time via ldflags, or read from the embedded VERSION file.
var Version string

// App is the Facade exposed to the frontend as the single Wails service.
// It owns every long-lived dependency and wires them into the handlers
// that actually implement each operation.
type App struct {
	ctx context.Context

	paths   *app.Paths
	cfg     *config.RuntimeToolsSettings
	sandbox *sandbox.Sandbox
	bus     *progressbus.Bus
	fetcher *fetch.Fetcher

	db           *storage.DB
	exportRepo   *storage.ExportRepository
	clipboardMon *clipboard.Monitor
	telemetry    *telemetry.Service
	notifier     *notify.Notifier

	toolsHandler  *handlers.ToolsHandler
	stageHandler  *handlers.StageHandler
	youtube       *handlers.YouTubeHandler
	exportHandler *handlers.ExportHandler
	systemHandler *handlers.SystemHandler
}

// NewApp creates the App's static state. Everything that depends on the
// Wails runtime context is deferred to ServiceStartup.
func NewApp() *App {
	return &App{
		telemetry: telemetry.NewService(),
	}
}

// ServiceStartup is called once by Wails when the app starts.
func (a *App) ServiceStartup(ctx context.Context, options application.ServiceOptions) error {
	a.ctx = ctx

	paths, err := app.GetPaths()
	if err != nil {
		return fmt.Errorf("resolve app paths: %w", err)
	}
	a.paths = paths

	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("create app directories: %w", err)
	}

	if err := logger.Init(paths.AppData); err != nil {
		fmt.Printf("warning: failed to initialize logger: %v\n", err)
	}
	logger.Log.Info().Str("version", Version).Str("appData", paths.AppData).Msg("cursedclipper starting up")

	cfg, err := config.Load(paths.AppConfig)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("failed to load settings, using defaults")
		cfg = config.Default()
	}
	a.cfg = cfg

	sandboxRoots := []string{paths.ProjectsRoot, paths.AppData}
	if custom := cfg.Get().ProjectsRootDir; custom != "" {
		sandboxRoots = append(sandboxRoots, custom)
	}
	a.sandbox = sandbox.New(sandboxRoots...)

	a.bus = progressbus.New(wailsEmitter{})
	a.fetcher = fetch.New(a.bus)
	a.notifier = notify.New("")

	db, err := storage.New(paths.AppData)
	if err != nil {
		logger.Log.Error().Err(err).Msg("failed to initialize operational ledger")
		return fmt.Errorf("initialize storage: %w", err)
	}
	a.db = db
	a.exportRepo = storage.NewExportRepository(db)

	a.clipboardMon = clipboard.NewMonitor(wailsClipboardReader{}, wailsEmitter{})
	a.clipboardMon.Start(ctx)

	a.initializeHandlers(ctx)

	application.Get().Event.Emit(events.AppReady, map[string]any{
		"needsSetup": a.needsSetup(),
	})

	return nil
}

// initializeHandlers constructs every public-operation handler, wired to
// the shared paths/config/bus/fetcher above. Resolver closures are used
// wherever a handler needs a tool path at call time rather than at
// construction time, so a settings change or managed install takes effect
// on the very next request.
func (a *App) initializeHandlers(ctx context.Context) {
	a.toolsHandler = handlers.NewToolsHandler(a.paths, a.cfg, a.fetcher, a.bus)
	a.toolsHandler.SetContext(ctx)

	resolveStageTools := func() stage.Tools {
		status := tools.ResolveAll(a.paths, a.cfg.Get())
		return stage.Tools{FfmpegPath: status.Ffmpeg.Path, FfprobePath: status.Ffprobe.Path}
	}
	a.stageHandler = handlers.NewStageHandler(a.paths, a.cfg, resolveStageTools)
	a.stageHandler.SetContext(ctx)
	a.stageHandler.SetConsoleEmitter(a.consoleLog)

	resolveYtdlp := func() string {
		return tools.ResolveYtdlp(a.paths, a.cfg.Get()).Path
	}
	resolveMedia := func() (string, string) {
		status := tools.ResolveAll(a.paths, a.cfg.Get())
		return status.Ffmpeg.Path, status.Ffprobe.Path
	}
	a.youtube = handlers.NewYouTubeHandler(a.paths, a.cfg, a.bus, resolveYtdlp, resolveMedia)
	a.youtube.SetContext(ctx)
	a.youtube.SetConsoleEmitter(a.consoleLog)

	resolveExportTools := func() export.Tools {
		status := tools.ResolveAll(a.paths, a.cfg.Get())
		return export.Tools{FfmpegPath: status.Ffmpeg.Path, FfprobePath: status.Ffprobe.Path}
	}
	a.exportHandler = handlers.NewExportHandler(a.paths, a.cfg, a.bus, a.sandbox, resolveExportTools)
	a.exportHandler.SetContext(ctx)

	a.systemHandler = handlers.NewSystemHandler(a.sandbox, Version)
	a.systemHandler.SetContext(ctx)
}

func (a *App) needsSetup() bool {
	status := tools.ResolveAll(a.paths, a.cfg.Get())
	return !status.Ffmpeg.Available || !status.Ffprobe.Available || !status.YtDlp.Available
}

// consoleLog emits a user-friendly message to the frontend console.
func (a *App) consoleLog(message string) {
	application.Get().Event.Emit(events.ConsoleLog, message)
}

// ServiceShutdown releases every long-lived resource cleanly.
func (a *App) ServiceShutdown() error {
	if a.clipboardMon != nil {
		a.clipboardMon.Stop()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.Log.Error().Err(err).Msg("failed to close operational ledger")
		}
	}
	logger.Log.Info().Msg("application shutdown complete")
	return nil
}

// --- Tools & Settings ---

func (a *App) GetToolSettings() config.RuntimeToolsSettings {
	return a.toolsHandler.GetSettings()
}

func (a *App) SaveToolSettings(settings config.RuntimeToolsSettings) (config.RuntimeToolsSettings, error) {
	return a.toolsHandler.SaveSettings(settings)
}

func (a *App) GetToolStatus() tools.RuntimeToolsStatus {
	return a.toolsHandler.GetStatus()
}

func (a *App) InstallOrUpdateYtdlp(channel string) (tools.Status, error) {
	a.telemetry.TrackInstallAttempt()
	status, err := a.toolsHandler.InstallOrUpdateYtdlp(channel)
	if err != nil {
		return status, err
	}
	a.telemetry.TrackInstallSuccess()
	installChannel := channel
	if installChannel == "" {
		installChannel = "stable"
	}
	a.exportRepo.RecordToolInstall("yt-dlp", installChannel, status.Path)
	return status, nil
}

func (a *App) InstallOrUpdateFfmpeg() (tools.RuntimeToolsStatus, error) {
	a.telemetry.TrackInstallAttempt()
	status, err := a.toolsHandler.InstallOrUpdateFfmpeg()
	if err != nil {
		return status, err
	}
	a.telemetry.TrackInstallSuccess()
	a.exportRepo.RecordToolInstall("ffmpeg", "managed", status.Ffmpeg.Path)
	return status, nil
}

// --- Staging ---

func (a *App) StageLocalVideoFile(sourcePath, projectName string) (string, error) {
	return a.stageHandler.StageLocalVideoFile(sourcePath, projectName)
}

// --- YouTube ---

func (a *App) ProbeYoutubeFormats(rawURL string) (youtube.ProbeResult, error) {
	return a.youtube.ProbeFormats(rawURL)
}

func (a *App) DownloadYoutubeMedia(req youtube.DownloadRequest) (youtube.DownloadResult, error) {
	result, err := a.youtube.DownloadMedia(req)
	if err == nil {
		if info, statErr := os.Stat(result.OutputPath); statErr == nil {
			a.telemetry.TrackBytesFetched(info.Size())
		}
	}
	return result, err
}

// --- Batch export ---

// ExportClipsBatch renders a batch of clip tasks and records the outcome
// in the operational ledger, surfacing a desktop toast either way; the
// telemetry counters are bumped only on success.
func (a *App) ExportClipsBatch(projectName, sourcePath string, req export.BatchRequest) (export.Result, error) {
	result, err := a.exportHandler.ExportClipsBatch(req)
	if err != nil {
		a.exportRepo.RecordFailure(projectName, sourcePath, len(req.Tasks), err)
		a.notifier.ExportFailed(projectName, err)
		return result, err
	}

	a.exportRepo.RecordSuccess(projectName, sourcePath, len(req.Tasks), result)
	a.telemetry.TrackBatchExported(len(result.Artifacts))
	a.notifier.ExportSucceeded(projectName, len(result.Artifacts))
	return result, nil
}

func (a *App) PreviewCoverImage(path string) (string, error) {
	return a.exportHandler.PreviewCoverImage(path)
}

func (a *App) GetExportHistory(limit int) ([]*storage.ExportRun, error) {
	return a.exportRepo.GetHistory(limit)
}

// --- System ---

func (a *App) OpenPathInFileManager(path string, selectFile bool) error {
	return a.systemHandler.OpenPathInFileManager(path, selectFile)
}

func (a *App) GetVersion() string {
	return a.systemHandler.GetVersion()
}

func (a *App) GetTelemetrySnapshot() telemetry.Counters {
	return a.telemetry.Snapshot()
}

// wailsClipboardReader adapts the Wails v3 clipboard API to
// clipboard.ClipboardReader.
type wailsClipboardReader struct{}

func (wailsClipboardReader) Text() (string, bool) {
	return application.Get().Clipboard.Text()
}

// wailsEmitter adapts the Wails v3 event emitter to clipboard.Emitter.
type wailsEmitter struct{}

func (wailsEmitter) Emit(topic string, payload any) {
	application.Get().Event.Emit(topic, payload)
}
