package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"domovoy/internal/models"
)

// fileState is the on-disk layout of the JSON store. Settings is kept as a
// raw blob: voice and assist provider preferences belong to the frontend
// and round-trip through here untouched.
type fileState struct {
	Version   int               `json:"version"`
	Users     []models.User     `json:"users"`
	Reminders []models.Reminder `json:"reminders"`
	Settings  json.RawMessage   `json:"settings,omitempty"`
}

// JSONStore keeps the whole household in memory and writes the file on
// every mutation.
type JSONStore struct {
	path   string
	logger *zerolog.Logger

	mu    sync.RWMutex
	state fileState
}

// OpenJSON loads the store at path, falling back to seed data when the
// file is missing or unreadable. Malformed records are repaired per field,
// never rejected.
func OpenJSON(path string, logger *zerolog.Logger) (*JSONStore, error) {
	s := &JSONStore{path: path, logger: logger}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		logger.Info().Str("path", path).Msg("no existing store, seeding defaults")
		s.state = fileState{Version: 1, Users: SeedUsers()}
	case err != nil:
		return nil, fmt.Errorf("read store: %w", err)
	default:
		if jsonErr := json.Unmarshal(data, &s.state); jsonErr != nil {
			logger.Warn().Err(jsonErr).Str("path", path).Msg("store file corrupt, starting from seed data")
			s.state = fileState{Version: 1, Users: SeedUsers()}
		}
	}

	if len(s.state.Users) == 0 {
		s.state.Users = SeedUsers()
	}
	now := time.Now()
	for i := range s.state.Reminders {
		s.state.Reminders[i].Normalize(now)
		if s.state.Reminders[i].ID == "" {
			s.state.Reminders[i].ID = uuid.NewString()
		}
	}

	if err := s.save(); err != nil {
		return nil, err
	}
	return s, nil
}

// save writes the current state to disk. Callers must hold the write lock
// or be the only goroutine with access (during Open).
func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *JSONStore) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, len(s.state.Users))
	copy(out, s.state.Users)
	return out
}

func (s *JSONStore) UserByID(id string) models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.state.Users {
		if u.ID == id {
			return u
		}
	}
	return unknownMember(id)
}

func (s *JSONStore) CreateUser(u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.state.Users = append(s.state.Users, *u)
	return s.save()
}

func (s *JSONStore) UpdateUser(u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Users {
		if s.state.Users[i].ID == u.ID {
			s.state.Users[i] = u
			return s.save()
		}
	}
	return ErrNotFound
}

func (s *JSONStore) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.state.Users) <= 1 {
		return ErrLastUser
	}
	for i := range s.state.Users {
		if s.state.Users[i].ID == id {
			// Reminders owned by this user are kept; their owner lookup
			// degrades to the unknown-member placeholder.
			s.state.Users = append(s.state.Users[:i], s.state.Users[i+1:]...)
			return s.save()
		}
	}
	return ErrNotFound
}

func (s *JSONStore) Reminders() []models.Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Reminder, len(s.state.Reminders))
	copy(out, s.state.Reminders)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *JSONStore) ReminderByID(id string) (models.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.state.Reminders {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Reminder{}, ErrNotFound
}

func (s *JSONStore) CreateReminder(r *models.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Normalize(time.Now())
	s.state.Reminders = append(s.state.Reminders, *r)
	return s.save()
}

func (s *JSONStore) UpdateReminder(r models.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Reminders {
		if s.state.Reminders[i].ID == r.ID {
			s.state.Reminders[i] = r
			return s.save()
		}
	}
	return ErrNotFound
}

func (s *JSONStore) DeleteReminder(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Reminders {
		if s.state.Reminders[i].ID == id {
			s.state.Reminders = append(s.state.Reminders[:i], s.state.Reminders[i+1:]...)
			return s.save()
		}
	}
	return ErrNotFound
}

func (s *JSONStore) Close() error {
	return nil
}

// Path returns the backing file path, used by the backup service.
func (s *JSONStore) Path() string {
	return s.path
}
