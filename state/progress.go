package state

import (
	"context"
	"time"
)

// Progress tracks where the subject rotation stands.
type Progress struct {
	LastIndex       int        `json:"lastIndex"`
	LastSubject     string     `json:"lastSubject"`
	LastGeneratedAt *time.Time `json:"lastGeneratedAt"`
	TotalGenerated  int        `json:"totalGenerated"`
}

// DefaultProgress is the state before anything was generated.
func DefaultProgress() Progress {
	return Progress{LastIndex: -1}
}

// Progress reads the current record; a missing file yields the default.
func (s *Store) Progress() (Progress, error) {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	p := DefaultProgress()
	if err := readJSON(s.path(progressFile), &p); err != nil {
		return Progress{}, err
	}
	return p, nil
}

// SaveProgress records a generated subject and bumps the total.
func (s *Store) SaveProgress(ctx context.Context, index int, subject string) (Progress, error) {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	var out Progress
	err := s.update(ctx, progressFile, func(path string) error {
		cur := DefaultProgress()
		if err := readJSON(path, &cur); err != nil {
			return err
		}
		now := s.now().UTC()
		out = Progress{
			LastIndex:       index,
			LastSubject:     subject,
			LastGeneratedAt: &now,
			TotalGenerated:  cur.TotalGenerated + 1,
		}
		return writeJSON(path, out)
	})
	return out, err
}

// ResetProgress restores the default record.
func (s *Store) ResetProgress(ctx context.Context) (Progress, error) {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	out := DefaultProgress()
	err := s.update(ctx, progressFile, func(path string) error {
		return writeJSON(path, out)
	})
	return out, err
}
