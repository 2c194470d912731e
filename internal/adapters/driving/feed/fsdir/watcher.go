// Package fsdir feeds a directory of documents into the pipeline and
// watches it for changes. Every file present at startup is submitted
// once, then filesystem events drive incremental re-submission so edits
// produce new revisions of the same logical document.
package fsdir

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/veridian-labs/reguard/internal/core/domain"
	"github.com/veridian-labs/reguard/internal/core/ports/driving"
	"github.com/veridian-labs/reguard/internal/logger"
)

// settleDelay is how long a file must be quiet before it is submitted.
// Editors fire several Write events for one save; debouncing collapses
// them into a single revision.
const settleDelay = 200 * time.Millisecond

// mimeTypes maps recognised file extensions to the MIME type handed to
// the normaliser registry. Unlisted extensions are skipped.
var mimeTypes = map[string]string{
	".txt":  "text/plain",
	".text": "text/plain",
	".md":   "text/markdown",
	".html": "text/html",
	".htm":  "text/html",
}

// Watcher streams a directory's documents into a pipeline.
type Watcher struct {
	pipeline driving.Pipeline
	root     string

	settle time.Duration
}

// New creates a watcher over root. The directory must exist.
func New(pipeline driving.Pipeline, root string) (*Watcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", root)
	}
	return &Watcher{
		pipeline: pipeline,
		root:     root,
		settle:   settleDelay,
	}, nil
}

// SubmitExisting walks the root and submits every recognised file.
// Returns the number of files submitted.
func (w *Watcher) SubmitExisting(ctx context.Context) (int, error) {
	submitted := 0
	err := filepath.WalkDir(w.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") && path != w.root {
				return filepath.SkipDir
			}
			return nil
		}
		if MIMEFor(path) == "" {
			return nil
		}
		if err := w.submitFile(ctx, path); err != nil {
			return err
		}
		submitted++
		return nil
	})
	if err != nil {
		return submitted, fmt.Errorf("walking %s: %w", w.root, err)
	}
	return submitted, nil
}

// Run watches the root for changes and submits modified files until ctx
// is cancelled. Subdirectories created while running are watched too.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addDirs(fw); err != nil {
		return err
	}
	logger.Info("Watching %s", w.root)

	// Pending files debounce per path; the earliest deadline decides
	// when to flush.
	pending := make(map[string]time.Time)
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, event, pending)
			resetToEarliest(timer, pending)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case now := <-timer.C:
			for path, due := range pending {
				if now.Before(due) {
					continue
				}
				delete(pending, path)
				if err := w.submitFile(ctx, path); err != nil {
					logger.Warn("Submitting %s: %v", path, err)
				}
			}
			resetToEarliest(timer, pending)
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, event fsnotify.Event, pending map[string]time.Time) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		// Removed between event and stat.
		return
	}
	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 && !strings.HasPrefix(filepath.Base(event.Name), ".") {
			if err := fw.Add(event.Name); err != nil {
				logger.Warn("Watching new directory %s: %v", event.Name, err)
			}
		}
		return
	}

	if MIMEFor(event.Name) == "" {
		return
	}
	pending[event.Name] = time.Now().Add(w.settle)
}

func (w *Watcher) addDirs(fw *fsnotify.Watcher) error {
	return filepath.WalkDir(w.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") && path != w.root {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) submitFile(ctx context.Context, path string) error {
	mime := MIMEFor(path)
	if mime == "" {
		logger.Debug("Skipping %s: unrecognised extension", path)
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	raw := domain.RawDocument{
		SourceURI: path,
		MIMEType:  mime,
		Content:   content,
		Metadata:  map[string]any{"feed": "fsdir"},
	}
	return w.pipeline.Submit(ctx, raw)
}

// MIMEFor maps a file path to the MIME type used for normalisation, or
// empty when the extension is not recognised. Hidden files are skipped.
func MIMEFor(path string) string {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return ""
	}
	return mimeTypes[strings.ToLower(filepath.Ext(path))]
}

// resetToEarliest arms the timer for the soonest pending deadline, or
// parks it when nothing is pending.
func resetToEarliest(timer *time.Timer, pending map[string]time.Time) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	if len(pending) == 0 {
		timer.Reset(time.Hour)
		return
	}
	earliest := time.Time{}
	for _, due := range pending {
		if earliest.IsZero() || due.Before(earliest) {
			earliest = due
		}
	}
	wait := time.Until(earliest)
	if wait < 0 {
		wait = 0
	}
	timer.Reset(wait)
}
