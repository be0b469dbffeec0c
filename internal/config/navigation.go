package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultNavigationPath is where LoadNavigation looks for settings.
var DefaultNavigationPath = filepath.Join("config", "navigation.yaml")

// DefaultRefreshDelay is how long the navigation controller waits after a
// back/forward signal before refreshing, so the router restores state first.
const DefaultRefreshDelay = 100 * time.Millisecond

// Navigation configures the client navigation lifecycle controller.
type Navigation struct {
	// RefreshDelay is the wait between a history signal and the forced refresh.
	RefreshDelay time.Duration `yaml:"refresh_delay"`
	// ScrollContainer is the element id of the designated scroll container.
	ScrollContainer string `yaml:"scroll_container"`
}

// DefaultNavigation returns the built-in navigation settings.
func DefaultNavigation() *Navigation {
	return &Navigation{
		RefreshDelay:    DefaultRefreshDelay,
		ScrollContainer: "main-scroll",
	}
}

// LoadNavigation loads navigation settings from DefaultNavigationPath.
func LoadNavigation() (*Navigation, error) {
	return LoadNavigationFromPath(DefaultNavigationPath)
}

// LoadNavigationFromPath loads navigation settings from path. Unset fields keep defaults.
func LoadNavigationFromPath(path string) (*Navigation, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read navigation config: %w", err)
	}

	cfg := DefaultNavigation()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse navigation config: %w", err)
	}

	if cfg.RefreshDelay < 0 {
		return nil, fmt.Errorf("refresh_delay must not be negative, got %s", cfg.RefreshDelay)
	}

	return cfg, nil
}

// LoadNavigationOrDefault loads navigation settings, falling back to defaults
// when the file does not exist. Other read or parse errors are returned.
func LoadNavigationOrDefault(path string) (*Navigation, error) {
	cfg, err := LoadNavigationFromPath(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultNavigation(), nil
	}
	return cfg, err
}
