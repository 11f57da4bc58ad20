package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"domovoy/internal/models"
)

// SQLiteStore is the sqlite-backed alternative to the JSON file store.
// Timestamps are stored as RFC 3339 text so a dump stays human-readable.
type SQLiteStore struct {
	db     *sql.DB
	logger *zerolog.Logger
}

// OpenSQLite opens the database at path, creates missing tables and seeds
// the default household when the users table is empty.
func OpenSQLite(path string, logger *zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.seedIfEmpty(); err != nil {
		return nil, err
	}
	return s, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			avatar TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS reminders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			recurrence TEXT NOT NULL DEFAULT 'none',
			type TEXT NOT NULL DEFAULT 'general',
			is_completed BOOLEAN NOT NULL DEFAULT 0,
			last_triggered_at TEXT,
			snooze_until TEXT,
			created_at TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_reminders_date ON reminders(date, time)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) seedIfEmpty() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	s.logger.Info().Msg("empty database, seeding default household")
	for _, u := range SeedUsers() {
		u.CreatedAt = time.Now()
		if err := s.CreateUser(&u); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Users() []models.User {
	rows, err := s.db.Query("SELECT id, name, avatar, color, created_at FROM users ORDER BY created_at")
	if err != nil {
		s.logger.Error().Err(err).Msg("query users")
		return nil
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var created string
		if err := rows.Scan(&u.ID, &u.Name, &u.Avatar, &u.Color, &created); err != nil {
			s.logger.Error().Err(err).Msg("scan user")
			continue
		}
		u.CreatedAt = parseTimestamp(created)
		users = append(users, u)
	}
	return users
}

func (s *SQLiteStore) UserByID(id string) models.User {
	var u models.User
	var created string
	err := s.db.QueryRow("SELECT id, name, avatar, color, created_at FROM users WHERE id = ?", id).
		Scan(&u.ID, &u.Name, &u.Avatar, &u.Color, &created)
	if err != nil {
		return unknownMember(id)
	}
	u.CreatedAt = parseTimestamp(created)
	return u
}

func (s *SQLiteStore) CreateUser(u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(
		"INSERT INTO users (id, name, avatar, color, created_at) VALUES (?, ?, ?, ?, ?)",
		u.ID, u.Name, u.Avatar, u.Color, u.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateUser(u models.User) error {
	res, err := s.db.Exec(
		"UPDATE users SET name = ?, avatar = ?, color = ? WHERE id = ?",
		u.Name, u.Avatar, u.Color, u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteUser(id string) error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count <= 1 {
		return ErrLastUser
	}
	res, err := s.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) Reminders() []models.Reminder {
	rows, err := s.db.Query(
		"SELECT " + reminderColumns + " FROM reminders ORDER BY date, time, id")
	if err != nil {
		s.logger.Error().Err(err).Msg("query reminders")
		return nil
	}
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		r, err := scanReminder(rows.Scan)
		if err != nil {
			s.logger.Error().Err(err).Msg("scan reminder")
			continue
		}
		reminders = append(reminders, r)
	}
	return reminders
}

func (s *SQLiteStore) ReminderByID(id string) (models.Reminder, error) {
	row := s.db.QueryRow("SELECT "+reminderColumns+" FROM reminders WHERE id = ?", id)
	r, err := scanReminder(row.Scan)
	if err == sql.ErrNoRows {
		return models.Reminder{}, ErrNotFound
	}
	if err != nil {
		return models.Reminder{}, fmt.Errorf("get reminder: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) CreateReminder(r *models.Reminder) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Normalize(time.Now())
	_, err := s.db.Exec(
		`INSERT INTO reminders (id, user_id, title, date, time, recurrence, type,
			is_completed, last_triggered_at, snooze_until, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Title, r.Date, r.Time, string(r.Recurrence), string(r.Type),
		r.IsCompleted, formatTimestamp(r.LastTriggeredAt), formatTimestamp(r.SnoozeUntil),
		r.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateReminder(r models.Reminder) error {
	res, err := s.db.Exec(
		`UPDATE reminders SET user_id = ?, title = ?, date = ?, time = ?, recurrence = ?,
			type = ?, is_completed = ?, last_triggered_at = ?, snooze_until = ?
		 WHERE id = ?`,
		r.UserID, r.Title, r.Date, r.Time, string(r.Recurrence), string(r.Type),
		r.IsCompleted, formatTimestamp(r.LastTriggeredAt), formatTimestamp(r.SnoozeUntil),
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteReminder(id string) error {
	res, err := s.db.Exec("DELETE FROM reminders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const reminderColumns = `id, user_id, title, date, time, recurrence, type,
	is_completed, last_triggered_at, snooze_until, created_at`

func scanReminder(scan func(dest ...any) error) (models.Reminder, error) {
	var r models.Reminder
	var triggered, snooze sql.NullString
	var created string
	err := scan(&r.ID, &r.UserID, &r.Title, &r.Date, &r.Time, &r.Recurrence, &r.Type,
		&r.IsCompleted, &triggered, &snooze, &created)
	if err != nil {
		return models.Reminder{}, err
	}
	r.LastTriggeredAt = parseNullTimestamp(triggered)
	r.SnoozeUntil = parseNullTimestamp(snooze)
	r.CreatedAt = parseTimestamp(created)
	return r, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func formatTimestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNullTimestamp(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil
	}
	return &t
}
