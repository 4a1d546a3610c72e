package registry

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"lumina-hq/polaris/pkg/telemetry/logging"
)

// seedFile is the on-disk shape of the source seed file.
type seedFile struct {
	Sources []*Source `yaml:"sources"`
}

// LoadSeedFile parses a YAML seed file and returns the sources declared
// in it. Every source is validated; the first invalid entry fails the
// whole load so a bad edit never half-applies.
func LoadSeedFile(path string) ([]*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %q: %w", path, err)
	}

	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %q: %w", path, err)
	}

	for _, src := range sf.Sources {
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("seed file %q: %w", path, err)
		}
	}

	return sf.Sources, nil
}

// Seeder loads a YAML seed file into the registry and optionally
// re-applies it when the file changes on disk. Reload storms from
// editors that write multiple events are debounced.
type Seeder struct {
	service  *Service
	path     string
	logger   *logging.Logger
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timer   *time.Timer
	done    chan struct{}
}

// NewSeeder creates a seeder for the given seed file.
func NewSeeder(service *Service, path string, logger *logging.Logger) *Seeder {
	var log *logging.Logger
	if logger != nil {
		log = logger.WithComponent("registry-seeder")
	}
	return &Seeder{
		service:  service,
		path:     path,
		logger:   log,
		debounce: 250 * time.Millisecond,
		done:     make(chan struct{}),
	}
}

// Apply loads the seed file and upserts every source it declares.
func (s *Seeder) Apply(ctx context.Context) error {
	sources, err := LoadSeedFile(s.path)
	if err != nil {
		return err
	}

	for _, src := range sources {
		if err := s.service.Register(ctx, src); err != nil {
			return fmt.Errorf("failed to register source %s: %w", src.ID, err)
		}
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "seed file applied",
			"path", s.path,
			"sources", len(sources),
		)
	}
	return nil
}

// Watch re-applies the seed file whenever it changes. It blocks until
// the context is cancelled or Stop is called. A failed reload keeps the
// previously applied sources.
func (s *Seeder) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	s.mu.Lock()
	s.watcher = watcher
	s.mu.Unlock()

	if err := watcher.Add(s.path); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch seed file %q: %w", s.path, err)
	}

	if s.logger != nil {
		s.logger.Info("seed file watcher started", "path", s.path)
	}

	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-s.done:
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}
			s.scheduleReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			if s.logger != nil {
				s.logger.Error("seed file watcher error", "error", err.Error())
			}
			// Keep watching despite errors.
		}
	}
}

// scheduleReload debounces rapid write events into a single reload.
func (s *Seeder) scheduleReload(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		if err := s.Apply(ctx); err != nil {
			if s.logger != nil {
				s.logger.Error("seed file reload failed", "error", err.Error())
			}
		}
	})
}

// Stop terminates an active Watch.
func (s *Seeder) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
	default:
		close(s.done)
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
