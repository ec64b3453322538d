package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/pkg/database"
	"github.com/bentansusanto/travel-api/pkg/middleware"
)

// Either index rejects a used email
const (
	userEmailConstraint = "users_email_key"
	userEmailLowerIndex = "ux_users_email_lower"
)

const userColumns = `id, name, email, role, password_hash, is_verified, verify_code, verify_code_expires_at, created_at, updated_at`

// PostgresUserRepository stores accounts and sessions
type PostgresUserRepository struct {
	db *database.PostgresDB
}

// NewPostgresUserRepository creates a new PostgreSQL user repository
func NewPostgresUserRepository(db *database.PostgresDB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var code *string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.IsVerified,
		&code, &u.VerifyCodeExpiresAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if code != nil {
		u.VerifyCode = *code
	}
	return &u, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// GetByID retrieves a user
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.db.Q(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.Q(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = $1`, strings.ToLower(email)))
}

// GetByVerifyCode retrieves the user holding an outstanding code
func (r *PostgresUserRepository) GetByVerifyCode(ctx context.Context, code string) (*domain.User, error) {
	if code == "" {
		return nil, domain.ErrUserNotFound
	}
	return scanUser(r.db.Q(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE verify_code = $1`, code))
}

// Create inserts an account
func (r *PostgresUserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Q(ctx).Exec(ctx, query, u.ID, u.Name, u.Email, u.Role, u.PasswordHash, u.IsVerified,
		nullable(u.VerifyCode), u.VerifyCodeExpiresAt, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, userEmailConstraint) || database.IsUniqueViolation(err, userEmailLowerIndex) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update writes every mutable column of u
func (r *PostgresUserRepository) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET name = $2, password_hash = $3, is_verified = $4,
		verify_code = $5, verify_code_expires_at = $6, updated_at = $7
		WHERE id = $1`

	tag, err := r.db.Q(ctx).Exec(ctx, query, u.ID, u.Name, u.PasswordHash, u.IsVerified,
		nullable(u.VerifyCode), u.VerifyCodeExpiresAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// CountByRole counts accounts holding role
func (r *PostgresUserRepository) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	if err := r.db.Q(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// CreateSession stores a login
func (r *PostgresUserRepository) CreateSession(ctx context.Context, s *domain.Session) error {
	query := `INSERT INTO sessions (token_hash, user_id, ip, expires_at, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.Q(ctx).Exec(ctx, query, s.TokenHash, s.UserID, s.IP, s.ExpiresAt, s.CreatedAt); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession retrieves a login by token hash, expired or not
func (r *PostgresUserRepository) GetSession(ctx context.Context, tokenHash string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.Q(ctx).QueryRow(ctx,
		`SELECT token_hash, user_id, ip, expires_at, created_at FROM sessions WHERE token_hash = $1`, tokenHash).
		Scan(&s.TokenHash, &s.UserID, &s.IP, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// DeleteSession ends one login; unknown hashes are ignored
func (r *PostgresUserRepository) DeleteSession(ctx context.Context, tokenHash string) error {
	if _, err := r.db.Q(ctx).Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteUserSessions ends every login of userID
func (r *PostgresUserRepository) DeleteUserSessions(ctx context.Context, userID string) error {
	if _, err := r.db.Q(ctx).Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

// Verify implements middleware.TokenVerifier for opaque session tokens.
// Only the SHA-256 of a token is stored.
func (r *PostgresUserRepository) Verify(ctx context.Context, token string) (*middleware.Principal, error) {
	query := `SELECT u.id, u.email, u.role FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = $1 AND s.expires_at > NOW()`

	var p middleware.Principal
	err := r.db.Q(ctx).QueryRow(ctx, query, HashToken(token)).Scan(&p.UserID, &p.Email, &p.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, middleware.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	return &p, nil
}

// HashToken returns the hex SHA-256 stored for a session token
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Upsert writes a seeded user, replacing name, email and role of an
// existing id. Seeded users count as verified and sign in through a
// password reset.
func (r *PostgresUserRepository) Upsert(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (id, name, email, role, is_verified) VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, role = EXCLUDED.role,
			updated_at = NOW()`

	if _, err := r.db.Q(ctx).Exec(ctx, query, u.ID, u.Name, u.Email, u.Role); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}
