package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/awmbw/live-mart/internal/auth"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("user already exists")
)

// Conf is the users store.
type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

const userColumns = `id, name, email, password, phone, role, address,
	latitude, longitude, is_verified, provider, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Phone, &u.Role,
		&u.Address, &u.Latitude, &u.Longitude, &u.IsVerified, &u.Provider,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("scanning user: %w", err)
	}
	return u, nil
}

// InsertUser registers an unverified account with a bcrypt-hashed password.
func (c *Conf) InsertUser(ctx context.Context, nu NewUser, lat, lng *float64) (User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	query := `
		INSERT INTO users (id, name, email, password, phone, role, address, latitude, longitude, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE)
		RETURNING ` + userColumns
	row := c.db.QueryRowContext(ctx, query, uuid.NewString(), nu.Name, nu.Email,
		string(hashed), nu.Phone, nu.Role, nu.Address, lat, lng)

	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrDuplicateEmail
		}
		return User{}, fmt.Errorf("inserting user: %w", err)
	}
	return u, nil
}

// InsertSocialUser creates a pre-verified customer account for a social
// identity. No password is stored.
func (c *Conf) InsertSocialUser(ctx context.Context, su SocialUser) (User, error) {
	query := `
		INSERT INTO users (id, name, email, role, is_verified, provider, provider_id)
		VALUES ($1, $2, $3, $4, TRUE, $5, $6)
		RETURNING ` + userColumns
	row := c.db.QueryRowContext(ctx, query, uuid.NewString(), su.Name, su.Email,
		auth.RoleCustomer, su.Provider, su.ProviderID)

	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrDuplicateEmail
		}
		return User{}, fmt.Errorf("inserting social user: %w", err)
	}
	return u, nil
}

func (c *Conf) GetUserByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(c.db.QueryRowContext(ctx, query, email))
}

func (c *Conf) GetUserByID(ctx context.Context, id string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(c.db.QueryRowContext(ctx, query, id))
}

// CheckPassword compares a plaintext password against the stored hash.
func (u User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// MarkVerified flips the verification flag after a successful OTP check.
func (c *Conf) MarkVerified(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("marking user verified: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile merges the non-empty fields of the update into the user row
// and returns the updated user.
func (c *Conf) UpdateProfile(ctx context.Context, id string, up ProfileUpdate) (User, error) {
	query := `
		UPDATE users SET
			name = COALESCE(NULLIF($2, ''), name),
			phone = COALESCE(NULLIF($3, ''), phone),
			address = COALESCE(NULLIF($4, ''), address),
			latitude = COALESCE($5, latitude),
			longitude = COALESCE($6, longitude),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	row := c.db.QueryRowContext(ctx, query, id, up.Name, up.Phone, up.Address,
		up.Latitude, up.Longitude)
	return scanUser(row)
}

// ListRetailersWithLocation returns retailer accounts for nearby-shop
// ranking. Rows without coordinates are still returned; the geo layer skips
// them.
func (c *Conf) ListRetailersWithLocation(ctx context.Context) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1`
	rows, err := c.db.QueryContext(ctx, query, auth.RoleRetailer)
	if err != nil {
		return nil, fmt.Errorf("listing retailers: %w", err)
	}
	defer rows.Close()

	var retailers []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		retailers = append(retailers, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating retailers: %w", err)
	}
	return retailers, nil
}
