package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/PabloGalante/idefend/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	email_key     TEXT PRIMARY KEY,
	email         TEXT NOT NULL,
	first_name    TEXT NOT NULL,
	last_name     TEXT NOT NULL,
	state         TEXT NOT NULL,
	language      TEXT NOT NULL,
	password_hash BLOB,
	demo          INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL
)`

// Store is a domain.ProfileStore on a local SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path with WAL and ensures the schema.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveProfile(ctx context.Context, p *domain.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (email_key, email, first_name, last_name, state, language, password_hash, demo, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email_key) DO UPDATE SET
			email = excluded.email,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			state = excluded.state,
			language = excluded.language,
			password_hash = excluded.password_hash,
			demo = excluded.demo,
			created_at = excluded.created_at
	`, emailKey(p.Email), p.Email, p.FirstName, p.LastName, p.State, p.Language,
		p.PasswordHash, p.Demo, p.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, email string) (*domain.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT email, first_name, last_name, state, language, password_hash, demo, created_at
		FROM profiles
		WHERE email_key = ?
	`, emailKey(email))

	var p domain.Profile
	var createdAt int64
	if err := row.Scan(&p.Email, &p.FirstName, &p.LastName, &p.State, &p.Language,
		&p.PasswordHash, &p.Demo, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &p, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
