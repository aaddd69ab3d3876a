package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sheeplab/sheepdiary/internal/apperror"
)

// UserRepository defines the data access contract for user accounts.
// All SQL for the users table lives here.
type UserRepository interface {
	// Create inserts a new user. The user's ID is set on the struct after insert.
	Create(ctx context.Context, user *User) error

	// FindByID retrieves a single user by primary key.
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindByEmail retrieves a single user by email address.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// EmailExists reports whether an account with the given email exists.
	EmailExists(ctx context.Context, email string) (bool, error)
}

// userRepository implements UserRepository using MariaDB with hand-written SQL.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository backed by the given database connection.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user row and sets the auto-generated ID on the struct.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (email, name, password_hash, gender, age, joined_at)
	           VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		user.Email, user.Name, user.PasswordHash, user.Gender, user.Age, user.JoinedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return apperror.NewConflict("an account with this email already exists")
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	user.ID = id

	return nil
}

// FindByID retrieves a single user by primary key.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT id, email, name, password_hash, gender, age, joined_at
	           FROM users WHERE id = ?`

	var u User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Gender, &u.Age, &u.JoinedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by id: %w", err)
	}
	return &u, nil
}

// FindByEmail retrieves a single user by email address.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, email, name, password_hash, gender, age, joined_at
	           FROM users WHERE email = ?`

	var u User
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Gender, &u.Age, &u.JoinedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}
	return &u, nil
}

// EmailExists reports whether an account with the given email exists.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}
	return exists, nil
}

// isDuplicateEntry checks if a MySQL/MariaDB error is a duplicate key violation.
// Error code 1062 is ER_DUP_ENTRY for unique constraint violations.
func isDuplicateEntry(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Duplicate entry")
}
