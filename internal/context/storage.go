package context

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	contextsFileName = "contexts.yaml"
	userConfigDir    = ".config/yoctl"
)

// Storage reads and writes contexts.yaml. It is safe for concurrent use
// within one process; concurrent writers in separate processes are not
// coordinated.
type Storage struct {
	mu        sync.RWMutex
	configDir string
}

// NewStorage uses ~/.config/yoctl.
func NewStorage() (*Storage, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine home directory: %w", err)
	}
	return &Storage{configDir: filepath.Join(homeDir, userConfigDir)}, nil
}

// NewStorageWithPath uses dir instead of the default directory.
func NewStorageWithPath(dir string) *Storage {
	return &Storage{configDir: dir}
}

// Dir returns the directory holding contexts.yaml.
func (s *Storage) Dir() string {
	return s.configDir
}

// Path returns the full path of contexts.yaml.
func (s *Storage) Path() string {
	return filepath.Join(s.configDir, contextsFileName)
}

// Load reads the file. A missing file yields an empty config.
func (s *Storage) Load() (*ContextConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadLocked()
}

func (s *Storage) loadLocked() (*ContextConfig, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ContextConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read contexts file: %w", err)
	}

	var cfg ContextConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse contexts file: %w", err)
	}
	return &cfg, nil
}

// Save replaces the file with cfg.
func (s *Storage) Save(cfg *ContextConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(cfg)
}

// saveLocked writes through a temporary file and a rename so readers, and
// the watcher, never see a partial file.
func (s *Storage) saveLocked(cfg *ContextConfig) error {
	if err := os.MkdirAll(s.configDir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal contexts config: %w", err)
	}

	tmp, err := os.CreateTemp(s.configDir, contextsFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write contexts file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write contexts file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write contexts file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write contexts file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		return fmt.Errorf("failed to write contexts file: %w", err)
	}
	return nil
}

func (s *Storage) update(fn func(cfg *ContextConfig) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.loadLocked()
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return s.saveLocked(cfg)
}

// GetCurrentContext returns the current context or nil.
func (s *Storage) GetCurrentContext() (*Context, error) {
	cfg, err := s.Load()
	if err != nil {
		return nil, err
	}
	return cfg.Current(), nil
}

// GetCurrentContextName returns the current context name, possibly empty.
func (s *Storage) GetCurrentContextName() (string, error) {
	cfg, err := s.Load()
	if err != nil {
		return "", err
	}
	return cfg.CurrentContext, nil
}

// SetCurrentContext selects an existing context.
func (s *Storage) SetCurrentContext(name string) error {
	return s.update(func(cfg *ContextConfig) error {
		if !cfg.HasContext(name) {
			return &ContextNotFoundError{Name: name}
		}
		cfg.CurrentContext = name
		return nil
	})
}

// AddContext stores a new context. The name must be valid and unused and
// the endpoint an http(s) URL.
func (s *Storage) AddContext(ctx Context) error {
	if err := ValidateContextName(ctx.Name); err != nil {
		return err
	}
	if err := validateEndpoint(ctx.Endpoint); err != nil {
		return err
	}

	return s.update(func(cfg *ContextConfig) error {
		if cfg.HasContext(ctx.Name) {
			return fmt.Errorf("context %q already exists", ctx.Name)
		}
		cfg.AddOrUpdateContext(ctx)
		return nil
	})
}

// UpdateContext applies fn to an existing context and stores the result.
// fn must not change the name.
func (s *Storage) UpdateContext(name string, fn func(ctx *Context)) error {
	return s.update(func(cfg *ContextConfig) error {
		existing := cfg.GetContext(name)
		if existing == nil {
			return &ContextNotFoundError{Name: name}
		}
		updated := *existing
		fn(&updated)
		updated.Name = name
		if err := validateEndpoint(updated.Endpoint); err != nil {
			return err
		}
		cfg.AddOrUpdateContext(updated)
		return nil
	})
}

// DeleteContext removes a context.
func (s *Storage) DeleteContext(name string) error {
	return s.update(func(cfg *ContextConfig) error {
		if !cfg.RemoveContext(name) {
			return &ContextNotFoundError{Name: name}
		}
		return nil
	})
}

// RenameContext renames a context and follows it with current-context.
func (s *Storage) RenameContext(oldName, newName string) error {
	if err := ValidateContextName(newName); err != nil {
		return err
	}

	return s.update(func(cfg *ContextConfig) error {
		old := cfg.GetContext(oldName)
		if old == nil {
			return &ContextNotFoundError{Name: oldName}
		}
		if oldName == newName {
			return nil
		}
		if cfg.HasContext(newName) {
			return fmt.Errorf("context %q already exists", newName)
		}

		wasCurrent := cfg.CurrentContext == oldName
		renamed := *old
		renamed.Name = newName
		cfg.RemoveContext(oldName)
		cfg.AddOrUpdateContext(renamed)
		if wasCurrent {
			cfg.CurrentContext = newName
		}
		return nil
	})
}

// ListContexts returns all contexts in file order.
func (s *Storage) ListContexts() ([]Context, error) {
	cfg, err := s.Load()
	if err != nil {
		return nil, err
	}
	return cfg.Contexts, nil
}

// GetContext returns the named context or nil.
func (s *Storage) GetContext(name string) (*Context, error) {
	cfg, err := s.Load()
	if err != nil {
		return nil, err
	}
	return cfg.GetContext(name), nil
}

// GetContextNames returns all context names, for shell completion.
func (s *Storage) GetContextNames() ([]string, error) {
	cfg, err := s.Load()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cfg.Contexts))
	for i, ctx := range cfg.Contexts {
		names[i] = ctx.Name
	}
	return names, nil
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return fmt.Errorf("endpoint %q must start with http:// or https://", endpoint)
	}
	return nil
}
