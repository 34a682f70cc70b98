package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"phone_ordering_backend/internal/models"

	"github.com/google/uuid"
)

// AuthRepository defines the interface for authentication-related database operations.
type AuthRepository interface {
	CreateUser(ctx context.Context, executor SQLExecutor, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, userID string) (*models.User, error)
	DeleteUsersByTenant(ctx context.Context, executor SQLExecutor, tenantID string) error
}

// authRepository implements the AuthRepository interface.
type authRepository struct {
	db *sql.DB // The direct database connection pool
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

const userColumns = `id, email, password_hash, role, tenant_id, phone, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.TenantID, &u.Phone, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser inserts a new user. The email is stored lower-cased; PasswordHash must already be a bcrypt hash.
func (r *authRepository) CreateUser(ctx context.Context, executor SQLExecutor, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now

	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := executor.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Role, user.TenantID, user.Phone, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return wrapWriteError(err, "creating user")
	}
	return nil
}

func (r *authRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound // Use the common repository error
		}
		return nil, fmt.Errorf("%w: finding user by email: %v", ErrDatabaseError, err)
	}
	return user, nil
}

func (r *authRepository) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by ID %s: %v", ErrDatabaseError, userID, err)
	}
	return user, nil
}

func (r *authRepository) DeleteUsersByTenant(ctx context.Context, executor SQLExecutor, tenantID string) error {
	if _, err := executor.ExecContext(ctx, `DELETE FROM users WHERE tenant_id = $1`, tenantID); err != nil {
		return fmt.Errorf("%w: deleting users for restaurant %s: %v", ErrDatabaseError, tenantID, err)
	}
	return nil
}
