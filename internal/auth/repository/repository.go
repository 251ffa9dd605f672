// Package repository provides PostgreSQL persistence for user accounts
// and role assignments.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bridge_backend/platform/apperr"
)

const userNotFoundMessage = "user not found"

// uniqueViolation is the PostgreSQL error code for unique constraint failures.
const uniqueViolation = "23505"

// Repo implements the auth repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new auth repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const userColumns = `id, subject, email, display_name, is_active, last_seen_at, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Subject, &u.Email, &u.DisplayName, &u.IsActive, &u.LastSeenAt, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUser inserts a user and assigns the initial role in one transaction.
// The role row is created on demand so provisioning works before any seed
// command has run. A concurrent insert for the same subject surfaces as a
// conflict the caller resolves by re-reading.
func (r *Repo) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return User{}, fmt.Errorf("begin create user: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO users (subject, email, display_name)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	user, err := scanUser(tx.QueryRow(ctx, query, params.Subject, params.Email, params.DisplayName))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, apperr.Conflict("user already exists")
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	if params.InitialRole != "" {
		if err := ensureRole(ctx, tx, params.InitialRole); err != nil {
			return User{}, err
		}
		linkQuery := `
			INSERT INTO user_roles (user_id, role_id)
			SELECT $1, id FROM roles WHERE name = $2
			ON CONFLICT DO NOTHING`
		if _, err := tx.Exec(ctx, linkQuery, user.ID, params.InitialRole); err != nil {
			return User{}, fmt.Errorf("assign initial role: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return User{}, fmt.Errorf("commit create user: %w", err)
	}
	return user, nil
}

// GetUserBySubject retrieves a user by identity provider subject.
func (r *Repo) GetUserBySubject(ctx context.Context, subject string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE subject = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, subject))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("get user by subject: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by internal ID.
func (r *Repo) GetUserByID(ctx context.Context, userID uuid.UUID) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// GetUsersByIDs retrieves the users with the given IDs. Unknown IDs are
// simply absent from the result.
func (r *Repo) GetUsersByIDs(ctx context.Context, userIDs []uuid.UUID) ([]User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Subject, &u.Email, &u.DisplayName, &u.IsActive, &u.LastSeenAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// TouchLastSeen records account activity.
func (r *Repo) TouchLastSeen(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE users SET last_seen_at = now() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("touch last seen: %w", err)
	}
	return nil
}

// UpdateProfile updates the mutable profile fields of a user.
func (r *Repo) UpdateProfile(ctx context.Context, params UpdateProfileParams) (User, error) {
	query := `
		UPDATE users
		SET email = COALESCE($2, email),
			display_name = COALESCE($3, display_name),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, params.UserID, params.Email, params.DisplayName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// SetActive enables or disables an account.
func (r *Repo) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	query := `UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, userID, active)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(userNotFoundMessage)
	}
	return nil
}

// ListUsers returns users with their roles, optionally filtered by role name.
func (r *Repo) ListUsers(ctx context.Context, params ListUsersParams) ([]UserWithRoles, int, error) {
	args := []any{}
	where := ""
	if params.Role != "" {
		where = `
			WHERE u.id IN (
				SELECT ur.user_id FROM user_roles ur
				JOIN roles ro ON ro.id = ur.role_id
				WHERE ro.name = $1
			)`
		args = append(args, params.Role)
	}

	countQuery := `SELECT COUNT(*) FROM users u` + where
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT u.id, u.subject, u.email, u.display_name, u.is_active, u.last_seen_at, u.created_at, u.updated_at,
			array_remove(array_agg(ro.name), NULL) AS roles
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles ro ON ro.id = ur.role_id
		%s
		GROUP BY u.id
		ORDER BY u.created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []UserWithRoles
	for rows.Next() {
		var u UserWithRoles
		if err := rows.Scan(&u.ID, &u.Subject, &u.Email, &u.DisplayName, &u.IsActive, &u.LastSeenAt, &u.CreatedAt, &u.UpdatedAt, &u.Roles); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return users, total, nil
}

// GetUserRoles returns the role names assigned to a user.
func (r *Repo) GetUserRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `
		SELECT ro.name
		FROM user_roles ur
		JOIN roles ro ON ro.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY ro.name`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get user roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}

// SetUserRoles replaces a user's role assignments.
func (r *Repo) SetUserRoles(ctx context.Context, userID uuid.UUID, roles []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin set roles: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear roles: %w", err)
	}

	for _, role := range roles {
		if err := ensureRole(ctx, tx, role); err != nil {
			return err
		}
		linkQuery := `
			INSERT INTO user_roles (user_id, role_id)
			SELECT $1, id FROM roles WHERE name = $2
			ON CONFLICT DO NOTHING`
		if _, err := tx.Exec(ctx, linkQuery, userID, role); err != nil {
			return fmt.Errorf("assign role %s: %w", role, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit set roles: %w", err)
	}
	return nil
}

// GrantRole adds a role to a user, keeping existing assignments in place.
func (r *Repo) GrantRole(ctx context.Context, userID uuid.UUID, role string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin grant role: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := ensureRole(ctx, tx, role); err != nil {
		return err
	}
	linkQuery := `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = $2
		ON CONFLICT DO NOTHING`
	if _, err := tx.Exec(ctx, linkQuery, userID, role); err != nil {
		return fmt.Errorf("grant role %s: %w", role, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit grant role: %w", err)
	}
	return nil
}

// ensureRole creates the named role row if it does not exist yet.
func ensureRole(ctx context.Context, tx pgx.Tx, name string) error {
	query := `INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
	if _, err := tx.Exec(ctx, query, name); err != nil {
		return fmt.Errorf("ensure role %s: %w", name, err)
	}
	return nil
}
