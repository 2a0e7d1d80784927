package subscription

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DL444/cqu-schedule/lib/schedule"
	"github.com/DL444/cqu-schedule/lib/sqliteutil"
)

//go:embed schema.sql
var schema string

var ErrNotFound = errors.New("record not found")

// Store persists users, schedules and the current term as JSON rows in
// sqlite.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (Store, error) {
	db, err := sqliteutil.OpenDB(schema, path)
	if err != nil {
		return Store{}, fmt.Errorf("failed to open subscription store: %w", err)
	}
	return Store{db: db}, nil
}

// NewStoreFromDB wraps an existing database, applying the schema.
func NewStoreFromDB(db *sql.DB) (Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return Store{}, err
	}
	return Store{db: db}, nil
}

func (s Store) Close() error {
	return s.db.Close()
}

func getPayload[T any](ctx context.Context, db *sql.DB, query string, args ...any) (T, error) {
	var out T
	var payload string
	err := db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return out, ErrNotFound
	}
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return out, err
	}
	return out, nil
}

func (s Store) GetUser(ctx context.Context, username string) (schedule.User, error) {
	return getPayload[schedule.User](ctx, s.db,
		"SELECT payload FROM users WHERE username = ?", username)
}

func (s Store) SetUser(ctx context.Context, user schedule.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (username, payload) VALUES (?, ?)
		ON CONFLICT (username) DO UPDATE SET payload = excluded.payload`,
		user.Username, string(payload))
	return err
}

// DeleteUser removes the user and their stored schedule.
func (s Store) DeleteUser(ctx context.Context, username string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE username = ?", username); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM schedules WHERE username = ?", username); err != nil {
		return err
	}
	return tx.Commit()
}

func (s Store) ListUsernames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT username FROM users ORDER BY username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usernames []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, err
		}
		usernames = append(usernames, username)
	}
	return usernames, rows.Err()
}

func (s Store) GetSchedule(ctx context.Context, username string) (schedule.Schedule, error) {
	return getPayload[schedule.Schedule](ctx, s.db,
		"SELECT payload FROM schedules WHERE username = ?", username)
}

func (s Store) SetSchedule(ctx context.Context, sched schedule.Schedule) error {
	payload, err := json.Marshal(sched)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO schedules (username, payload) VALUES (?, ?)
		ON CONFLICT (username) DO UPDATE SET payload = excluded.payload`,
		sched.Username, string(payload))
	return err
}

func (s Store) GetTerm(ctx context.Context) (schedule.Term, error) {
	return getPayload[schedule.Term](ctx, s.db,
		"SELECT payload FROM term WHERE id = 0")
}

func (s Store) SetTerm(ctx context.Context, term schedule.Term) error {
	payload, err := json.Marshal(term)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO term (id, payload) VALUES (0, ?)
		ON CONFLICT (id) DO UPDATE SET payload = excluded.payload`,
		string(payload))
	return err
}
