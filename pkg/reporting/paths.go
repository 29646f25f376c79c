package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultPathManager implements path management functionality
type DefaultPathManager struct{}

// NewDefaultPathManager creates a new path manager
func NewDefaultPathManager() *DefaultPathManager {
	return &DefaultPathManager{}
}

// GetDefaultOutputDir returns results/<session>_<YYYY-MM-DD> for a replay
// started at day.
func (p *DefaultPathManager) GetDefaultOutputDir(session string, day time.Time) string {
	s := strings.ToLower(strings.TrimSpace(session))
	if s == "" {
		s = "session"
	}
	return filepath.Join("results", fmt.Sprintf("%s_%s", s, day.UTC().Format("2006-01-02")))
}

// EnsureDirectoryExists creates the parent directory of path
func (p *DefaultPathManager) EnsureDirectoryExists(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// EnsureDirectoryExists creates the parent directory of path
func EnsureDirectoryExists(path string) error {
	return NewDefaultPathManager().EnsureDirectoryExists(path)
}
