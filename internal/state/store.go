// Package state persists the risk state between runs so that an active
// pause, a loss streak or a monthly halt survives a restart.
package state

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	rerrors "github.com/ducminhle1904/polymarket-risk/internal/errors"
	"github.com/ducminhle1904/polymarket-risk/internal/risk"
)

const recordVersion = 1

// Record is the on-disk envelope.
type Record struct {
	Version int        `json:"version"`
	SavedAt time.Time  `json:"saved_at"`
	State   risk.State `json:"state"`
}

// Store saves and loads the risk state as <dir>/<name>_risk_state.json,
// keeping the previous file as <name>_risk_state_backup.json.
type Store struct {
	dir  string
	name string
	log  zerolog.Logger
}

// NewStore creates a store rooted at dir.
func NewStore(dir, name string, log zerolog.Logger) *Store {
	return &Store{
		dir:  dir,
		name: name,
		log:  log.With().Str("module", "state").Logger(),
	}
}

// Path returns the state file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_risk_state.json", s.name))
}

func (s *Store) backupPath() string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_risk_state_backup.json", s.name))
}

// Save writes st atomically. The previous file, if any, becomes the backup.
func (s *Store) Save(st risk.State, now time.Time) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return rerrors.WrapError(err, rerrors.ErrorCategoryFatal, "state", "create_dir").
			WithContext("dir", s.dir)
	}

	path := s.Path()
	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, s.backupPath()); err != nil {
			s.log.Warn().Err(err).Msg("Failed to create state backup")
		}
	}

	data, err := json.MarshalIndent(Record{Version: recordVersion, SavedAt: now.UTC(), State: st}, "", "  ")
	if err != nil {
		return rerrors.WrapError(err, rerrors.ErrorCategoryFatal, "state", "marshal")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return rerrors.WrapError(err, rerrors.ErrorCategoryFatal, "state", "write_temp").
			WithContext("file", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return rerrors.WrapError(err, rerrors.ErrorCategoryFatal, "state", "rename").
			WithContext("file", path)
	}

	s.log.Info().Str("file", path).Msg("Risk state saved")
	return nil
}

// Load reads the saved state. found is false when no state file exists.
// A corrupt primary file falls back to the backup.
func (s *Store) Load() (st risk.State, found bool, err error) {
	rec, err := readRecord(s.Path())
	if os.IsNotExist(err) {
		return risk.State{}, false, nil
	}
	if err != nil {
		s.log.Warn().Err(err).Str("file", s.Path()).Msg("State file unreadable, trying backup")
		backup, berr := readRecord(s.backupPath())
		if berr != nil {
			return risk.State{}, false, rerrors.WrapError(err, rerrors.ErrorCategoryInput, "state", "load").
				WithMessage("state file and backup unreadable").
				WithContext("file", s.Path())
		}
		rec = backup
	}
	return rec.State, true, nil
}

func readRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, err
	}
	if err := validateRecord(rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func validateRecord(rec Record) error {
	if rec.Version != recordVersion {
		return fmt.Errorf("unsupported state version %d", rec.Version)
	}
	if rec.State.ConsecutiveLosses < 0 {
		return fmt.Errorf("negative loss streak %d", rec.State.ConsecutiveLosses)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
