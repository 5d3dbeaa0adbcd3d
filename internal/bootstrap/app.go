package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"m4b-studio/internal/config"
	"m4b-studio/internal/convert"
	"m4b-studio/internal/diagnostics"
	"m4b-studio/internal/domain"
	"m4b-studio/internal/jobs"
	"m4b-studio/internal/meta"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var audioDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Audio files",
		Pattern:     "*.mp3;*.m4a;*.wav",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

var audiobookDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "M4B audiobook",
		Pattern:     "*.m4b",
	},
}

// App wires configuration, jobs, the conversion pipeline, and UI
// runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Jobs        *jobs.Manager
	Pipeline    conversionRunner
	Diagnostics domain.DiagnosticReport
	assets      fs.FS
	checker     *diagnostics.Checker

	mu          sync.Mutex
	activeJobID string
	cancel      context.CancelFunc
	events      *jobs.EventBus
	runtimeCtx  context.Context
}

// conversionRunner isolates the conversion pipeline behind an interface.
type conversionRunner interface {
	Validate(req convert.Request) error
	Run(ctx context.Context, req convert.Request) (convert.Result, error)
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}

	store := config.NewJSONStore(filepath.Join(homeDir, ".m4b-studio", "settings.json"))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	checker := diagnostics.NewChecker()
	report := checker.Run(settings)

	return &App{
		Settings:    settings,
		Store:       store,
		Jobs:        jobs.NewManager(),
		Pipeline:    convert.NewPipeline(),
		Diagnostics: report,
		assets:      assets,
		checker:     checker,
		events:      jobs.NewEventBus(1000),
	}, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "M4B Studio",
		Width:       980,
		Height:      720,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown: func(ctx context.Context) {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.runtimeCtx = nil
		},
		Bind: []interface{}{a},
	})
}

// Startup stores the Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	return a.Diagnostics
}

// RefreshDiagnostics reloads settings and reruns environment checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	return a.refreshDiagnosticsFromSettings(normalizeSettings(settings)), nil
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.refreshDiagnosticsFromSettings(normalized)
	return normalized, nil
}

// PickAudioFiles opens a native multi-selection dialog for input audio.
// The returned order is the dialog's order; the frontend lets the user
// rearrange tracks before exporting.
func (a *App) PickAudioFiles() ([]string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return nil, err
	}

	paths, err := wailsruntime.OpenMultipleFilesDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select audio files",
		Filters: audioDialogFilter,
	})
	if err != nil {
		return nil, err
	}

	trimmed := make([]string, 0, len(paths))
	for _, path := range paths {
		if path = strings.TrimSpace(path); path != "" {
			trimmed = append(trimmed, path)
		}
	}
	return trimmed, nil
}

// PickSaveLocation opens a native save dialog for the destination file.
func (a *App) PickSaveLocation() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.SaveFileDialog(ctx, wailsruntime.SaveDialogOptions{
		Title:           "Export audiobook",
		DefaultFilename: "audiobook.m4b",
		Filters:         audiobookDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// SuggestMetadata derives title/author prefills from the first selected
// file's audio tags.
func (a *App) SuggestMetadata(path string) meta.Suggestion {
	return meta.Probe(path)
}

// StartConversion validates the request synchronously and, when it is
// acceptable, runs the conversion on a worker goroutine. Validation
// failures are returned to the caller and recorded as a failed job;
// no process is spawned for them.
func (a *App) StartConversion(files []string, title, author, outputPath string) (domain.Job, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Job{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	jobID := uuid.NewString()
	if err := a.Jobs.Start(jobID, outputPath); err != nil {
		return domain.Job{}, err
	}
	a.publishStatus(jobID, domain.JobStatusValidating, "Validating input")

	req := convert.Request{
		Files:      files,
		Meta:       domain.AudiobookMeta{Title: title, Author: author},
		OutputPath: outputPath,
		EnginePath: settings.EnginePath,
		Bitrate:    settings.AudioBitrate,
		TailLines:  settings.TailLines,
	}

	if err := a.Pipeline.Validate(req); err != nil {
		_ = a.Jobs.Transition(domain.JobStatusFailed)
		a.publishEvent(jobs.Event{
			JobID:   jobID,
			Type:    jobs.EventTypeError,
			Status:  domain.JobStatusFailed,
			Message: err.Error(),
		})
		return domain.Job{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	a.activeJobID = jobID
	a.cancel = cancel
	a.Settings = settings
	a.mu.Unlock()

	if err := a.Jobs.Transition(domain.JobStatusConverting); err == nil {
		a.publishStatus(jobID, domain.JobStatusConverting, "Conversion started")
	}

	req.OnLine = func(line string) {
		a.publishLine(jobID, line)
	}

	go a.runConversionJob(ctx, jobID, req)
	return a.Jobs.Current(), nil
}

// CancelConversion requests termination of the running engine, if any.
// The worker observes the resulting stream end and finalizes the job as
// cancelled; cancelling an idle app is an error, not a crash.
func (a *App) CancelConversion() error {
	a.mu.Lock()
	cancel := a.cancel
	activeJobID := a.activeJobID
	a.mu.Unlock()

	if cancel == nil {
		return jobs.ErrNoRunningJob
	}

	cancel()
	if activeJobID != "" {
		a.publishStatus(activeJobID, domain.JobStatusConverting, "Cancellation requested")
	}
	return nil
}

// CurrentJob returns current job metadata and status.
func (a *App) CurrentJob() domain.Job {
	return a.Jobs.Current()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// OpenOutputFolder reveals the finished audiobook in the platform file manager.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		target = a.Jobs.Current().OutputPath
	}
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// runConversionJob executes the pipeline and maps its outcome to exactly
// one terminal event: result, error, or cancelled.
func (a *App) runConversionJob(ctx context.Context, jobID string, req convert.Request) {
	result, err := a.Pipeline.Run(ctx, req)

	// Clearing before the terminal event means any engine bytes that
	// straggle in are dropped by publishLine rather than trailing it.
	a.clearActiveJob(jobID)

	if err != nil {
		if errors.Is(err, context.Canceled) {
			_ = a.Jobs.Cancel()
			a.publishStatus(jobID, domain.JobStatusCancelled, "Conversion cancelled")
			return
		}

		_ = a.Jobs.Transition(domain.JobStatusFailed)
		event := jobs.Event{
			JobID:   jobID,
			Type:    jobs.EventTypeError,
			Status:  domain.JobStatusFailed,
			Message: err.Error(),
		}

		var engineErr *convert.EngineError
		if errors.As(err, &engineErr) {
			event.ExitCode = engineErr.ExitCode
			event.Tail = engineErr.Tail
		}
		a.publishEvent(event)
		return
	}

	if err := a.Jobs.Transition(domain.JobStatusDone); err == nil {
		a.publishEvent(jobs.Event{
			JobID:      jobID,
			Type:       jobs.EventTypeResult,
			Status:     domain.JobStatusDone,
			Message:    "Audiobook written",
			OutputPath: result.OutputPath,
		})
	}
}

// publishStatus sends a normalized status event.
func (a *App) publishStatus(jobID string, status domain.JobStatus, message string) {
	a.publishEvent(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeStatus,
		Status:  status,
		Message: message,
	})
}

// publishLine forwards one line of engine output while the job is still
// active. Output arriving after the terminal event is discarded.
func (a *App) publishLine(jobID, line string) {
	a.mu.Lock()
	active := a.activeJobID == jobID
	a.mu.Unlock()
	if !active {
		return
	}

	a.publishEvent(jobs.Event{
		JobID: jobID,
		Type:  jobs.EventTypeLine,
		Line:  line,
	})
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)

	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "conversion:event", published)
	}
}

// clearActiveJob clears cancellation handles for completed job IDs.
func (a *App) clearActiveJob(jobID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.activeJobID == jobID {
		a.activeJobID = ""
		a.cancel = nil
	}
}

// refreshDiagnosticsFromSettings reruns checks against given settings.
func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings)
	}
	return a.Diagnostics
}

// runtimeContext returns the current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// normalizeSettings trims user inputs and applies defaults for empty fields.
func normalizeSettings(settings domain.Settings) domain.Settings {
	defaults := config.DefaultSettings()

	settings.EnginePath = strings.TrimSpace(settings.EnginePath)
	if settings.EnginePath == "" {
		settings.EnginePath = defaults.EnginePath
	}
	settings.AudioBitrate = strings.TrimSpace(settings.AudioBitrate)
	if settings.AudioBitrate == "" {
		settings.AudioBitrate = defaults.AudioBitrate
	}
	if settings.TailLines <= 0 {
		settings.TailLines = defaults.TailLines
	}
	return settings
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
