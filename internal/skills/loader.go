// Package skills loads plain-text skill files from a local directory and
// watches it for changes so a running process picks up edits without a
// restart.
package skills

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/viziclaw/agentcore/internal/observability"
)

// Skill is one loaded skill file.
type Skill struct {
	Name string
	Body string
}

// Loader holds the current set of skills read from a directory and keeps
// them fresh via an fsnotify watch.
type Loader struct {
	dir    string
	logger *observability.Logger

	mu     sync.RWMutex
	skills []Skill

	watcher *fsnotify.Watcher
}

// NewLoader reads dir once and starts watching it for changes. An empty or
// missing dir yields an empty, inert Loader.
func NewLoader(dir string, logger *observability.Logger) (*Loader, error) {
	l := &Loader{dir: dir, logger: logger}
	if dir == "" {
		return l, nil
	}

	if err := l.reload(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, err
	}
	l.watcher = watcher

	return l, nil
}

// Watch runs the reload loop until ctx is cancelled. Call it in its own
// goroutine.
func (l *Loader) Watch(ctx context.Context) {
	if l.watcher == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			l.watcher.Close()
			return
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if err := l.reload(); err != nil && l.logger != nil {
				l.logger.Warn(ctx, "skill reload failed", "error", err)
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			if l.logger != nil {
				l.logger.Warn(ctx, "skill watcher error", "error", err)
			}
		}
	}
}

func (l *Loader) reload() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return err
	}

	var loaded []Skill
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		body, err := os.ReadFile(filepath.Join(l.dir, entry.Name()))
		if err != nil {
			continue
		}
		loaded = append(loaded, Skill{
			Name: strings.TrimSuffix(entry.Name(), ".md"),
			Body: strings.TrimSpace(string(body)),
		})
	}
	sort.Slice(loaded, func(i, j int) bool { return loaded[i].Name < loaded[j].Name })

	l.mu.Lock()
	l.skills = loaded
	l.mu.Unlock()
	return nil
}

// Skills returns the currently loaded skills.
func (l *Loader) Skills() []Skill {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Skill, len(l.skills))
	copy(out, l.skills)
	return out
}

// Concatenated joins every skill body with a blank line between them, for
// embedding directly into the system prompt.
func (l *Loader) Concatenated() string {
	skills := l.Skills()
	bodies := make([]string, len(skills))
	for i, s := range skills {
		bodies[i] = s.Body
	}
	return strings.Join(bodies, "\n\n")
}
