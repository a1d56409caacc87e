package ingest

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fentz26/cortexdesk/internal/models"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a watched directory must stay quiet before
// the collected files are submitted as one batch.
const DefaultDebounce = 2 * time.Second

// Watcher submits files dropped into a directory.
type Watcher struct {
	dir        string
	coord      *Coordinator
	credential string
	debounce   time.Duration
	logger     *log.Logger
	onBatch    func(*models.IngestionOutcome, error)

	fsw    *fsnotify.Watcher
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewWatcher creates a watcher for dir that ingests through coord.
func NewWatcher(dir string, coord *Coordinator, credential string) *Watcher {
	return &Watcher{
		dir:        dir,
		coord:      coord,
		credential: credential,
		debounce:   DefaultDebounce,
		logger:     log.Default(),
		pending:    make(map[string]struct{}),
	}
}

// WithDebounce sets the quiet period.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// WithLogger sets the logger.
func (w *Watcher) WithLogger(l *log.Logger) *Watcher {
	w.logger = l
	return w
}

// OnBatch registers a callback invoked after every submitted batch.
func (w *Watcher) OnBatch(fn func(*models.IngestionOutcome, error)) *Watcher {
	w.onBatch = fn
	return w
}

// Start begins watching. The loop ends when ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.fsw = fsw
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.loop()
	w.logger.Printf("Watching %s for new documents", w.dir)
	return nil
}

// Stop ends the loop and waits for an in-flight batch to finish.
func (w *Watcher) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	w.wg.Wait()
	w.fsw.Close()
	w.logger.Println("Watcher stopped")
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			w.mu.Lock()
			w.pending[ev.Name] = struct{}{}
			w.mu.Unlock()
			timer.Reset(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Printf("Watcher error: %v", err)
		case <-timer.C:
			w.flush()
		}
	}
}

// flush submits every pending file that still exists and fits the limit.
func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()
	sort.Strings(paths)

	var files []FileHandle
	for _, p := range paths {
		f, err := OpenFile(p)
		if err != nil {
			continue
		}
		if err := w.coord.Validate([]FileHandle{f}); err != nil {
			w.logger.Printf("Skipping %s: %v", p, err)
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return
	}

	out, err := w.coord.Ingest(w.ctx, files, w.credential)
	if err != nil {
		w.logger.Printf("Error ingesting %d watched files: %v", len(files), err)
	} else {
		w.logger.Printf("Ingested %d watched files, %d failed", len(files), out.Failed())
	}
	if w.onBatch != nil {
		w.onBatch(out, err)
	}
}
