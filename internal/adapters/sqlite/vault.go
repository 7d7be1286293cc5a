// Package sqlite provides a SQLite-backed implementation of the token
// vault port. The pair is sealed before it touches disk.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
	"github.com/RealSaake/waveline-sub000/internal/core/ports"
	"github.com/RealSaake/waveline-sub000/internal/seal"
)

// Vault implements the token vault port for SQLite.
type Vault struct {
	db     *sql.DB
	sealer *seal.Sealer
}

var _ ports.TokenVault = (*Vault)(nil)

// NewVault creates a connection and runs the schema migration.
func NewVault(storagePath string, sealer *seal.Sealer) (*Vault, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	v := &Vault{db: db, sealer: sealer}
	if err := v.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return v, nil
}

// Close ensures the DB connection is closed gracefully.
func (v *Vault) Close() error {
	return v.db.Close()
}

func (v *Vault) migrate() error {
	// single-row table: this service carries exactly one session
	_, err := v.db.Exec(`
		CREATE TABLE IF NOT EXISTS session (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			envelope BLOB NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	return err
}

func (v *Vault) Load(ctx context.Context) (domain.TokenPair, error) {
	row := v.db.QueryRowContext(ctx, "SELECT envelope FROM session WHERE id = 1")
	var envelope []byte
	if err := row.Scan(&envelope); err != nil {
		if err == sql.ErrNoRows {
			return domain.TokenPair{}, domain.ErrNoSession
		}
		return domain.TokenPair{}, fmt.Errorf("failed to load session: %w", err)
	}

	plaintext, err := v.sealer.Open(envelope)
	if err != nil {
		// an unreadable envelope (rotated secret, corrupt row) is the same
		// as no session: the user re-authenticates
		return domain.TokenPair{}, domain.ErrNoSession
	}

	var pair domain.TokenPair
	if err := json.Unmarshal(plaintext, &pair); err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return pair, nil
}

func (v *Vault) Store(ctx context.Context, pair domain.TokenPair) error {
	plaintext, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	envelope, err := v.sealer.Seal(plaintext)
	if err != nil {
		return fmt.Errorf("failed to seal session: %w", err)
	}

	_, err = v.db.ExecContext(ctx, `
		INSERT INTO session (id, envelope, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET envelope = excluded.envelope, updated_at = excluded.updated_at
	`, envelope, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (v *Vault) Clear(ctx context.Context) error {
	if _, err := v.db.ExecContext(ctx, "DELETE FROM session WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
