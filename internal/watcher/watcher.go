// Package watcher keeps the index current by triggering debounced
// incremental rebuilds when files under the indexed root change.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/raglab/codeassist-mcp/internal/extractor"
	"github.com/raglab/codeassist-mcp/internal/indexer"
	"github.com/raglab/codeassist-mcp/pkg/types"
)

// DefaultDebounce batches bursts of file events into a single rebuild.
const DefaultDebounce = 500 * time.Millisecond

// Reindexer triggers an incremental rebuild. Satisfied by *indexer.Manager.
type Reindexer interface {
	Rebuild(ctx context.Context, root string) (*types.RebuildReport, error)
}

// Watcher reruns incremental indexing when files under the indexed root
// change. Events are debounced so an editor save burst or a branch switch
// costs one rebuild, not one per file.
type Watcher struct {
	index    Reindexer
	root     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

// New creates a watcher over root and registers every non-ignored
// directory beneath it. debounce <= 0 selects DefaultDebounce.
func New(index Reindexer, root string, debounce time.Duration) (*Watcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s: not a directory", root)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		index:    index,
		root:     root,
		debounce: debounce,
		fsw:      fsw,
	}

	if err := w.addDirs(root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add watch dirs: %w", err)
	}

	return w, nil
}

// Close releases the underlying file-system watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run blocks until ctx is canceled or the event stream closes, rebuilding
// the index after each debounced burst of relevant events. A rebuild that
// loses the index lock to a concurrent caller is retried after the next
// debounce window.
func (w *Watcher) Run(ctx context.Context) error {
	log.Printf("watcher: watching %s (debounce %s)", w.root, w.debounce)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.ignoreEvent(event) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				w.watchNewDirs(event.Name)
			}
			if !pending {
				timer.Reset(w.debounce)
				pending = true
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("watcher: %v", err)

		case <-timer.C:
			pending = false
			report, err := w.index.Rebuild(ctx, w.root)
			if err != nil {
				if errors.Is(err, indexer.ErrRebuildInProgress) {
					timer.Reset(w.debounce)
					pending = true
					continue
				}
				log.Printf("watcher: rebuild failed: %v", err)
				continue
			}
			log.Printf("watcher: reindexed %s: %d files, %d snippets (generation %s)",
				w.root, report.FilesIndexed+report.FilesSkipped, report.SnippetsIndexed, report.GenerationID)
		}
	}
}

// ignoreEvent filters events that cannot affect the index: irrelevant ops,
// ignored directories, and files no extractor handles.
func (w *Watcher) ignoreEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return true
	}
	if w.ignoredPath(event.Name) {
		return true
	}

	// A removed or renamed path cannot be inspected anymore. Names without
	// an extension may have been directories holding source files, so they
	// pass through; the incremental rebuild is a no-op when nothing indexed
	// actually changed.
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		ext := filepath.Ext(event.Name)
		return ext != "" && extractor.DetectLanguage(event.Name) == types.LangUnknown
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		return false
	}
	return extractor.DetectLanguage(event.Name) == types.LangUnknown
}

// ignoredPath reports whether any path component below the root is hidden
// or belongs to the directories indexing skips.
func (w *Watcher) ignoredPath(name string) bool {
	rel, err := filepath.Rel(w.root, name)
	if err != nil {
		return false
	}

	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") || part == "vendor" || part == "node_modules" || part == "__pycache__" {
			return true
		}
	}
	return false
}

// addDirs walks root and registers every directory that indexing would
// descend into.
func (w *Watcher) addDirs(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && w.ignoredPath(path) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// watchNewDirs registers a just-created directory (and anything beneath it)
// so later events inside it are seen. fsnotify watches are not recursive.
func (w *Watcher) watchNewDirs(name string) {
	info, err := os.Stat(name)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addDirs(name); err != nil {
		log.Printf("watcher: add %s: %v", name, err)
	}
}
