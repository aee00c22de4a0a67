// Package watcher keeps the knowledge store in sync with a directory on disk.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"personal-kb/internal/contextutil"
)

const (
	DefaultInterval    = 2 * time.Second
	DefaultStopTimeout = 5 * time.Second
)

// Store is the part of the knowledge store the reconciler drives.
type Store interface {
	Add(ctx context.Context, filePath, filename string) (string, error)
	Delete(ctx context.Context, documentID string) (bool, error)
}

// Options configures a Reconciler.
type Options struct {
	WatchPath   string
	Extensions  []string
	Interval    time.Duration
	StopTimeout time.Duration
	// Notify enables filesystem notifications that trigger a cycle before the interval elapses.
	Notify bool
}

// FileStatus describes one tracked file.
type FileStatus struct {
	Path       string `json:"path"`
	Name       string `json:"name"`
	DocumentID string `json:"document_id"`
}

// Status is a point-in-time snapshot of the reconciler.
type Status struct {
	Running             bool         `json:"running"`
	WatchPath           string       `json:"watch_path"`
	TrackedFiles        int          `json:"tracked_files"`
	SupportedExtensions []string     `json:"supported_extensions"`
	Files               []FileStatus `json:"files"`
}

// ScanResult reports the outcome of an initial scan or rescan.
type ScanResult struct {
	Ingested int `json:"ingested"`
	Total    int `json:"total"`
}

type trackedFile struct {
	hash       string
	documentID string
}

// registry holds the tracked files keyed by path.
type registry struct {
	mu    sync.RWMutex
	files map[string]trackedFile
}

func (r *registry) get(path string) (trackedFile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[path]
	return f, ok
}

func (r *registry) set(path string, f trackedFile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[path] = f
}

func (r *registry) remove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, path)
}

func (r *registry) snapshot() map[string]trackedFile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]trackedFile, len(r.files))
	for k, v := range r.files {
		out[k] = v
	}
	return out
}

// Reconciler periodically scans a directory and applies additions, updates and deletions to the
// knowledge store. Per-file failures are logged and retried on a later cycle.
type Reconciler struct {
	store Store
	opts  Options
	exts  map[string]struct{}
	reg   registry

	// cycleMu serializes reconciliation cycles, initial scans and rescans.
	cycleMu sync.Mutex

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a stopped reconciler.
func New(store Store, opts Options) *Reconciler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = DefaultStopTimeout
	}
	return &Reconciler{
		store: store,
		opts:  opts,
		exts:  normalizeExtensions(opts.Extensions),
		reg:   registry{files: make(map[string]trackedFile)},
	}
}

// Start runs an initial scan and launches the background loop. It returns false without doing
// anything when the reconciler is already running. The reconciler reports running from the
// start of the initial scan, and Stop may be called while the scan is in progress.
func (r *Reconciler) Start(ctx context.Context) (bool, error) {
	logger := contextutil.LoggerFromContext(ctx)

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		logger.WarnContext(ctx, "folder watcher already running", "watch_path", r.opts.WatchPath)
		return false, nil
	}
	if err := os.MkdirAll(r.opts.WatchPath, 0o755); err != nil {
		r.mu.Unlock()
		return false, fmt.Errorf("failed to create watch path %s: %w", r.opts.WatchPath, err)
	}

	// The loop outlives the caller's request and logs as the watcher component.
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	loopCtx = contextutil.WithLogger(loopCtx, slog.Default().With("component", "watcher"))
	done := make(chan struct{})

	r.running = true
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	res, err := r.initialScan(loopCtx)
	if err != nil {
		cancel()
		close(done)
		r.mu.Lock()
		if r.done == done {
			r.running = false
			r.cancel = nil
			r.done = nil
		}
		r.mu.Unlock()
		return false, err
	}
	logger.InfoContext(ctx, "initial scan complete", "ingested", res.Ingested, "total", res.Total)

	nudge := make(chan struct{}, 1)
	if r.opts.Notify && loopCtx.Err() == nil {
		if err := startNotifier(loopCtx, r.opts.WatchPath, nudge); err != nil {
			logger.WarnContext(ctx, "file notifications unavailable, polling only", "error", err)
		}
	}

	go r.run(loopCtx, nudge, done)

	logger.InfoContext(ctx, "folder watcher started", "watch_path", r.opts.WatchPath, "interval", r.opts.Interval)
	return true, nil
}

// Stop cancels the loop, or an initial scan still in progress, and waits up to the stop timeout
// for it to exit. Work still busy after the timeout is left to finish on its own. It returns
// false when already stopped.
func (r *Reconciler) Stop(ctx context.Context) bool {
	logger := contextutil.LoggerFromContext(ctx)

	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		logger.WarnContext(ctx, "folder watcher is not running")
		return false
	}
	cancel, done := r.cancel, r.done
	r.running = false
	r.cancel = nil
	r.done = nil
	r.mu.Unlock()

	cancel()

	timer := time.NewTimer(r.opts.StopTimeout)
	defer timer.Stop()
	select {
	case <-done:
		logger.InfoContext(ctx, "folder watcher stopped")
	case <-timer.C:
		logger.WarnContext(ctx, "folder watcher did not stop in time", "timeout", r.opts.StopTimeout)
	}
	return true
}

// Running reports whether the background loop is active.
func (r *Reconciler) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Status returns a snapshot of the tracked files sorted by path.
func (r *Reconciler) Status() Status {
	running := r.Running()
	files := r.reg.snapshot()

	list := make([]FileStatus, 0, len(files))
	for path, f := range files {
		list = append(list, FileStatus{
			Path:       path,
			Name:       filepath.Base(path),
			DocumentID: f.documentID,
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })

	exts := make([]string, 0, len(r.exts))
	for ext := range r.exts {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	return Status{
		Running:             running,
		WatchPath:           r.opts.WatchPath,
		TrackedFiles:        len(list),
		SupportedExtensions: exts,
		Files:               list,
	}
}

// ForceRescan removes the documents of every tracked file and ingests the directory again.
// Files whose document could not be removed stay tracked.
func (r *Reconciler) ForceRescan(ctx context.Context) (ScanResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()

	files := r.reg.snapshot()
	for _, path := range sortedKeys(files) {
		if _, err := r.store.Delete(ctx, files[path].documentID); err != nil {
			logger.ErrorContext(ctx, "failed to remove document during rescan", "path", path, "document_id", files[path].documentID, "error", err)
			continue
		}
		r.reg.remove(path)
	}

	res, err := r.scanUntrackedLocked(ctx)
	if err != nil {
		return res, err
	}
	logger.InfoContext(ctx, "rescan complete", "ingested", res.Ingested, "total", res.Total)
	return res, nil
}

// Reconcile runs one scan, diff and apply cycle. Only a failed directory scan is returned;
// per-file failures are logged.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()

	paths, err := scanDir(ctx, r.opts.WatchPath, r.exts)
	if err != nil {
		return fmt.Errorf("scan %s: %w", r.opts.WatchPath, err)
	}

	current := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		current[p] = struct{}{}
	}
	known := r.reg.snapshot()

	for _, path := range sortedKeys(known) {
		if ctx.Err() != nil {
			return nil
		}
		if _, ok := current[path]; !ok {
			r.handleDeleted(ctx, path, known[path])
		}
	}

	for _, path := range paths {
		if ctx.Err() != nil {
			return nil
		}
		if f, ok := known[path]; ok {
			r.handleExisting(ctx, path, f)
			continue
		}
		if _, err := r.ingest(ctx, path); err != nil {
			logger.ErrorContext(ctx, "failed to add file", "path", path, "error", err)
		}
	}
	return nil
}

func (r *Reconciler) handleDeleted(ctx context.Context, path string, f trackedFile) {
	logger := contextutil.LoggerFromContext(ctx)

	removed, err := r.store.Delete(ctx, f.documentID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to remove deleted file", "path", path, "document_id", f.documentID, "error", err)
		return
	}
	r.reg.remove(path)
	if !removed {
		logger.WarnContext(ctx, "document of deleted file was already gone", "path", path, "document_id", f.documentID)
		return
	}
	logger.InfoContext(ctx, "file removed", "path", path, "document_id", f.documentID)
}

func (r *Reconciler) handleExisting(ctx context.Context, path string, f trackedFile) {
	logger := contextutil.LoggerFromContext(ctx)

	hash, err := fileHash(path)
	if err != nil {
		logger.WarnContext(ctx, "skipping file that cannot be hashed", "path", path, "error", err)
		return
	}
	if hash == f.hash {
		return
	}

	if _, err := r.store.Delete(ctx, f.documentID); err != nil {
		logger.ErrorContext(ctx, "failed to remove old document of changed file", "path", path, "document_id", f.documentID, "error", err)
		return
	}

	documentID, err := r.store.Add(ctx, path, filepath.Base(path))
	if err != nil {
		// The old document is gone; forget the file so the next cycle adds it as new.
		r.reg.remove(path)
		logger.ErrorContext(ctx, "failed to re-add changed file", "path", path, "error", err)
		return
	}
	r.reg.set(path, trackedFile{hash: hash, documentID: documentID})
	logger.InfoContext(ctx, "file updated", "path", path, "old_document_id", f.documentID, "document_id", documentID)
}

// ingest hashes and adds a file, then tracks it.
func (r *Reconciler) ingest(ctx context.Context, path string) (string, error) {
	hash, err := fileHash(path)
	if err != nil {
		return "", err
	}
	documentID, err := r.store.Add(ctx, path, filepath.Base(path))
	if err != nil {
		return "", err
	}
	r.reg.set(path, trackedFile{hash: hash, documentID: documentID})
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "file added", "path", path, "document_id", documentID)
	return documentID, nil
}

func (r *Reconciler) initialScan(ctx context.Context) (ScanResult, error) {
	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()
	return r.scanUntrackedLocked(ctx)
}

// scanUntrackedLocked ingests every supported file that is not tracked yet. Total counts the
// files attempted. The caller holds cycleMu.
func (r *Reconciler) scanUntrackedLocked(ctx context.Context) (ScanResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	paths, err := scanDir(ctx, r.opts.WatchPath, r.exts)
	if err != nil {
		return ScanResult{}, fmt.Errorf("scan %s: %w", r.opts.WatchPath, err)
	}

	var res ScanResult
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		if _, ok := r.reg.get(path); ok {
			continue
		}
		res.Total++
		if _, err := r.ingest(ctx, path); err != nil {
			logger.ErrorContext(ctx, "failed to add file", "path", path, "error", err)
			continue
		}
		res.Ingested++
	}
	return res, nil
}

func (r *Reconciler) run(ctx context.Context, nudge <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	logger := contextutil.LoggerFromContext(ctx)

	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-nudge:
		}

		if err := r.Reconcile(ctx); err != nil && ctx.Err() == nil {
			logger.ErrorContext(ctx, "reconciliation cycle failed", "error", err)
		}
	}
}

func sortedKeys(m map[string]trackedFile) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
