package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
	"github.com/Lmagalhaesz/classly/internal/core/port"
	"github.com/Lmagalhaesz/classly/internal/repository"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolationCode = "23505"

// UserRepository implements port.CredentialStore using PostgreSQL.
type UserRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewUserRepository(exec pgExecutor) *UserRepository {
	return &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new user row. Returns repository.ErrConflict when the
// email is already registered.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	query := r.builder.Insert("users").
		Columns(
			"id",
			"email",
			"name",
			"password_hash",
			"role",
			"token_version",
			"created_at",
		).
		Values(
			user.ID,
			user.Email,
			user.Name,
			user.PasswordHash,
			user.Role,
			user.TokenVersion,
			user.CreatedAt,
		)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, squirrel.Eq{"email": email})
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

func (r *UserRepository) getBy(ctx context.Context, where squirrel.Eq) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(
			"id",
			"email",
			"name",
			"password_hash",
			"role",
			"token_version",
			"created_at",
		).
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&user.TokenVersion,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &user, nil
}

// IncrementTokenVersion atomically bumps the user's token version and
// returns the new value. Every access token minted before the bump fails
// verification afterwards.
func (r *UserRepository) IncrementTokenVersion(ctx context.Context, id string) (int64, error) {
	stmt, args, err := r.builder.
		Update("users").
		Set("token_version", squirrel.Expr("token_version + 1")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING token_version").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update token version sql: %w", err)
	}

	var version int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("increment token version: %w", err)
	}

	return version, nil
}

var _ port.CredentialStore = (*UserRepository)(nil)
