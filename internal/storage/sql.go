package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timeLayout keeps text timestamps sortable in SQLite.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sqlStore is the database/sql implementation shared by the SQLite and
// Postgres backends. Queries are written with ? placeholders and rebound
// for drivers that number them.
type sqlStore struct {
	db       *sql.DB
	numbered bool
	textTime bool
	now      func() time.Time
}

func (s *sqlStore) bind(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) timeArg(t time.Time) any {
	if s.textTime {
		return t.UTC().Format(timeLayout)
	}
	return t.UTC()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *sqlStore) scan(row rowScanner) (Message, error) {
	var (
		m                Message
		priority         string
		created, updated any
	)
	if err := row.Scan(&m.ID, &m.Title, &m.Content, &priority, &m.Active, &created, &updated); err != nil {
		return Message{}, err
	}
	m.Priority = Priority(priority)

	var err error
	if m.CreatedAt, err = parseTime(created); err != nil {
		return Message{}, fmt.Errorf("created_at: %w", err)
	}
	if m.UpdatedAt, err = parseTime(updated); err != nil {
		return Message{}, fmt.Errorf("updated_at: %w", err)
	}
	return m, nil
}

func parseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return time.Parse(timeLayout, t)
	case []byte:
		return time.Parse(timeLayout, string(t))
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
	}
}

const selectColumns = `SELECT id, title, content, priority, active, created_at, updated_at FROM messages`

func (s *sqlStore) List(ctx context.Context) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	out := []Message{}
	for rows.Next() {
		m, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *sqlStore) Get(ctx context.Context, id string) (Message, error) {
	return s.get(ctx, s.db, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *sqlStore) get(ctx context.Context, q querier, id string) (Message, error) {
	m, err := s.scan(q.QueryRowContext(ctx, s.bind(selectColumns+` WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	if err != nil {
		return Message{}, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return m, nil
}

func (s *sqlStore) Create(ctx context.Context, in MessageInput) (Message, error) {
	if err := in.Validate(); err != nil {
		return Message{}, err
	}
	m := newMessage(in, s.now())

	_, err := s.db.ExecContext(ctx, s.bind(`
		INSERT INTO messages (id, title, content, priority, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		m.ID, m.Title, m.Content, string(m.Priority), m.Active, s.timeArg(m.CreatedAt), s.timeArg(m.UpdatedAt))
	if err != nil {
		return Message{}, fmt.Errorf("failed to insert message: %w", err)
	}
	return m, nil
}

func (s *sqlStore) Update(ctx context.Context, id string, patch MessagePatch) (Message, error) {
	if err := patch.Validate(); err != nil {
		return Message{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Message{}, fmt.Errorf("failed to begin update: %w", err)
	}
	defer tx.Rollback()

	m, err := s.get(ctx, tx, id)
	if err != nil {
		return Message{}, err
	}
	m = patch.apply(m, s.now())

	_, err = tx.ExecContext(ctx, s.bind(`
		UPDATE messages SET title = ?, content = ?, priority = ?, active = ?, updated_at = ?
		WHERE id = ?`),
		m.Title, m.Content, string(m.Priority), m.Active, s.timeArg(m.UpdatedAt), id)
	if err != nil {
		return Message{}, fmt.Errorf("failed to update message %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return Message{}, fmt.Errorf("failed to commit update: %w", err)
	}
	return m, nil
}

func (s *sqlStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM messages WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete message %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete message %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
