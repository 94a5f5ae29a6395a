package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const timeLayout = "2006-01-02T15:04:05.000Z"

// SQLStore keeps sessions in the libSQL "sessions" table.
type SQLStore struct {
	db     *sql.DB
	sealer *Sealer
	ttl    time.Duration
	now    func() time.Time
}

func NewSQLStore(db *sql.DB, sealer *Sealer, ttl time.Duration) *SQLStore {
	return &SQLStore{db: db, sealer: sealer, ttl: ttl, now: time.Now}
}

func (s *SQLStore) Create(ctx context.Context, token string) (Record, error) {
	sealed, err := s.sealer.Seal(token)
	if err != nil {
		return Record{}, fmt.Errorf("sealing token: %w", err)
	}
	now := s.now().UTC()
	rec := Record{
		ID:        uuid.NewString(),
		Token:     token,
		Subject:   SubjectOf(token),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, token_sealed, subject, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, sealed, rec.Subject, rec.CreatedAt.Format(timeLayout), rec.ExpiresAt.Format(timeLayout))
	if err != nil {
		return Record{}, fmt.Errorf("inserting session: %w", err)
	}
	return rec, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Record, error) {
	if id == "" {
		return Record{}, ErrNotFound
	}
	var (
		rec                  Record
		sealed               string
		createdAt, expiresAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, token_sealed, subject, created_at, expires_at
		FROM sessions
		WHERE id = ? AND expires_at > ?
	`, id, s.now().UTC().Format(timeLayout)).Scan(&rec.ID, &sealed, &rec.Subject, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("loading session: %w", err)
	}

	rec.Token, err = s.sealer.Open(sealed)
	if err != nil {
		return Record{}, drop(ctx, s, id, err)
	}
	rec.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	rec.ExpiresAt, _ = time.Parse(timeLayout, expiresAt)
	return rec, nil
}

// drop deletes a session whose stored token can no longer be opened, as
// after a SESSION_KEY rotation. The returned error matches ErrNotFound.
func drop(ctx context.Context, store Store, id string, cause error) error {
	err := fmt.Errorf("opening session %s: %w", id, errors.Join(ErrNotFound, cause))
	if delErr := store.Delete(ctx, id); delErr != nil {
		return errors.Join(err, delErr)
	}
	return err
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Purge removes expired sessions and returns how many were dropped.
func (s *SQLStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, s.now().UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	return res.RowsAffected()
}

// Check implements health.Checker.
func (s *SQLStore) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
