package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/hongminglow/pawfam/internal/models"
	"github.com/hongminglow/pawfam/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

const uniqueViolation = "23505"

// Store provides Postgres-backed persistence for users.
type Store struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new Store and runs migrations.
func NewUserStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

const userColumns = `id, username, email, role, password_hash, reset_code, reset_code_expiry, created_at`

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
		INSERT INTO users (id, username, email, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query, uuid.NewString(), user.Username, user.Email, string(user.Role), user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.User{}, &storage.ConflictError{Field: conflictField(pgErr.ConstraintName)}
		}
		return models.User{}, err
	}
	return created, nil
}

// FindByID fetches a user by primary key.
func (s *Store) FindByID(ctx context.Context, id string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByEmail fetches a user by normalized email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// SetResetCode stores a pending reset code, replacing any previous one.
func (s *Store) SetResetCode(ctx context.Context, userID, code string, expiry time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET reset_code = $2, reset_code_expiry = $3 WHERE id = $1`,
		userID, code, expiry)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ConsumeResetCode swaps the password hash and clears the reset pair in a single statement.
func (s *Store) ConsumeResetCode(ctx context.Context, userID, code string, now time.Time, passwordHash string) error {
	const query = `
		UPDATE users
		SET password_hash = $4, reset_code = NULL, reset_code_expiry = NULL
		WHERE id = $1 AND reset_code = $2 AND reset_code_expiry > $3`
	tag, err := s.pool.Exec(ctx, query, userID, code, now, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrResetCodeMismatch
	}
	return nil
}

// ClearResetCode drops the pending pair if it still holds code.
func (s *Store) ClearResetCode(ctx context.Context, userID, code string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET reset_code = NULL, reset_code_expiry = NULL WHERE id = $1 AND reset_code = $2`,
		userID, code)
	return err
}

func conflictField(constraint string) string {
	switch {
	case strings.Contains(constraint, "email"):
		return "email"
	case strings.Contains(constraint, "username"):
		return "username"
	default:
		return "account"
	}
}

func scanUser(row pgx.Row) (models.User, error) {
	var (
		user      models.User
		role      string
		resetCode *string
	)
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &role, &user.PasswordHash, &resetCode, &user.ResetCodeExpiry, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	user.Role = models.Role(role)
	if resetCode != nil {
		user.ResetCode = *resetCode
	}
	return user, nil
}
