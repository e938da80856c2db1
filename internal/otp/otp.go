package otp

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// Validity of an issued code.
const TTL = 10 * time.Minute

var ErrInvalid = errors.New("invalid or expired OTP")

// Conf is the one-time-code store. Codes are keyed by identifier (email),
// expire after TTL and are deleted on first successful verification, so a
// code can never be replayed and state survives process restarts.
type Conf struct {
	db  *sql.DB
	now func() time.Time
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db, now: time.Now}, nil
}

// Generate returns a 6-digit numeric code.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generating otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Store saves a code for the identifier, replacing any previous one.
func (c *Conf) Store(ctx context.Context, identifier, code string) error {
	query := `
		INSERT INTO otp_codes (identifier, code, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (identifier) DO UPDATE
		SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at, created_at = NOW()`
	if _, err := c.db.ExecContext(ctx, query, identifier, code, c.now().Add(TTL)); err != nil {
		return fmt.Errorf("storing otp: %w", err)
	}
	return nil
}

// Verify checks a code and consumes it. Case-sensitive, single use; expired
// codes are removed on sight.
func (c *Conf) Verify(ctx context.Context, identifier, code string) error {
	var stored string
	var expiresAt time.Time
	err := c.db.QueryRowContext(ctx,
		`SELECT code, expires_at FROM otp_codes WHERE identifier = $1`,
		identifier).Scan(&stored, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalid
		}
		return fmt.Errorf("loading otp: %w", err)
	}

	if !Valid(stored, expiresAt, code, c.now()) {
		if c.now().After(expiresAt) {
			_, _ = c.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE identifier = $1`, identifier)
		}
		return ErrInvalid
	}

	if _, err := c.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE identifier = $1`, identifier); err != nil {
		return fmt.Errorf("consuming otp: %w", err)
	}
	return nil
}

// Valid reports whether a submitted code matches the stored one and has not
// expired at the given instant.
func Valid(stored string, expiresAt time.Time, submitted string, now time.Time) bool {
	if now.After(expiresAt) {
		return false
	}
	return stored == submitted
}
