// Package storage persists the announcement messages shown next to the news.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/newsboard/internal/logger"
)

var (
	ErrNotFound       = errors.New("message not found")
	ErrInvalidMessage = errors.New("invalid message")
)

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) valid() bool {
	return p == PriorityNormal || p == PriorityUrgent
}

type Message struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Priority  Priority  `json:"priority"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MessageInput is the payload for a new message. Priority defaults to
// normal and Active to true.
type MessageInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Priority Priority `json:"priority"`
	Active   *bool    `json:"active"`
}

// MessagePatch updates only the fields that are set.
type MessagePatch struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Priority *Priority `json:"priority"`
	Active   *bool     `json:"active"`
}

// Store is implemented by the memory, SQLite and Postgres backends.
type Store interface {
	List(ctx context.Context) ([]Message, error)
	Get(ctx context.Context, id string) (Message, error)
	Create(ctx context.Context, in MessageInput) (Message, error)
	Update(ctx context.Context, id string, patch MessagePatch) (Message, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

func (in MessageInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("%w: title and content are required", ErrInvalidMessage)
	}
	if in.Priority != "" && !in.Priority.valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidMessage, in.Priority)
	}
	return nil
}

func (p MessagePatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidMessage)
	}
	if p.Content != nil && strings.TrimSpace(*p.Content) == "" {
		return fmt.Errorf("%w: content cannot be empty", ErrInvalidMessage)
	}
	if p.Priority != nil && !p.Priority.valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidMessage, *p.Priority)
	}
	return nil
}

// newMessage builds a message from validated input.
func newMessage(in MessageInput, now time.Time) Message {
	priority := in.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	now = now.UTC()
	return Message{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Content:   in.Content,
		Priority:  priority,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (p MessagePatch) apply(m Message, now time.Time) Message {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Content != nil {
		m.Content = *p.Content
	}
	if p.Priority != nil {
		m.Priority = *p.Priority
	}
	if p.Active != nil {
		m.Active = *p.Active
	}
	m.UpdatedAt = now.UTC()
	return m
}

var seedMessages = []MessageInput{
	{
		Title:    "Bem-vindos!",
		Content:  "Este é o novo painel informativo. Aqui você encontrará avisos importantes da administração.",
		Priority: PriorityNormal,
	},
	{
		Title:    "Manutenção Programada",
		Content:  "O elevador passará por manutenção preventiva no próximo sábado, das 8h às 12h. Pedimos desculpas pelo transtorno.",
		Priority: PriorityUrgent,
	},
	{
		Title:    "Reunião de Condomínio",
		Content:  "A próxima reunião ordinária será no salão de festas às 19h. Pauta: prestação de contas.",
		Priority: PriorityNormal,
	},
}

// Seed inserts the welcome messages into an empty store.
func Seed(ctx context.Context, s Store) error {
	existing, err := s.List(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	logger.Info("seeding initial messages", "count", len(seedMessages))
	for _, in := range seedMessages {
		if _, err := s.Create(ctx, in); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return nil
}

// Open returns the backend named by driver: "memory", "sqlite" or
// "postgres".
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(driver) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(dsn)
	case "postgres", "postgresql":
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
