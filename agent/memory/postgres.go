package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PostgresConfig struct {
	DSN string `envconfig:"DSN" split_words:"true" required:"true"`
}

type conversationRow struct {
	bun.BaseModel `bun:"table:conversations,alias:c"`

	SessionKey string    `bun:"session_key,pk"`
	Payload    []byte    `bun:"payload,type:jsonb,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

// PostgresStore persists conversations one row per session, payload as jsonb.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &PostgresStore{db: db}, nil
}

// Init creates the conversations table when it does not exist yet.
func (s *PostgresStore) Init(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*conversationRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create conversations table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, sessionKey string) (*Conversation, error) {
	if strings.TrimSpace(sessionKey) == "" {
		return nil, ErrInvalidSessionKey
	}

	row := new(conversationRow)
	err := s.db.NewSelect().
		Model(row).
		Where("session_key = ?", sessionKey).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal(row.Payload, &conv); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	if conv.Context == nil {
		conv.Context = make(map[string]any, 4)
	}
	return &conv, nil
}

func (s *PostgresStore) Save(ctx context.Context, conv *Conversation) error {
	if conv == nil {
		return ErrNilConversation
	}
	if strings.TrimSpace(conv.SessionKey) == "" {
		return ErrInvalidSessionKey
	}

	payload, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}

	row := &conversationRow{
		SessionKey: conv.SessionKey,
		Payload:    payload,
		UpdatedAt:  conv.UpdatedAt,
	}
	if _, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (session_key) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionKey string) error {
	if strings.TrimSpace(sessionKey) == "" {
		return ErrInvalidSessionKey
	}
	if _, err := s.db.NewDelete().
		Model((*conversationRow)(nil)).
		Where("session_key = ?", sessionKey).
		Exec(ctx); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
