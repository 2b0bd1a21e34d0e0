package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/user-service/internal/apperror"
	"github.com/sakif/user-service/internal/model"
	"github.com/sakif/user-service/internal/repository"
)

// compile-time check that *userStore implements repository.UserRepository
var _ repository.UserRepository = (*userStore)(nil)

const userColumns = `id, role, first_name, last_name, email, password, age`

// userStore runs user queries on a single connection.
//
// The table is named "user", which is a reserved word in Postgres, so every
// statement quotes it through the dialect. Queries are built once here and
// rebound from ? placeholders to the driver's style ($1 for pgx).
type userStore struct {
	q querier
	d dialect

	insertSQL string
	getSQL    string
	listSQL   string
	updateSQL string
	deleteSQL string
}

func newUserStore(q querier, d dialect) *userStore {
	table := d.quote("user")
	bind := sqlx.BindType(d.driver)

	insert := `INSERT INTO ` + table + ` (role, first_name, last_name, email, password, age)
		 VALUES (?, ?, ?, ?, ?, ?)`
	if d.returningID {
		insert += ` RETURNING id`
	}

	return &userStore{
		q:         q,
		d:         d,
		insertSQL: sqlx.Rebind(bind, insert),
		getSQL: sqlx.Rebind(bind, `SELECT `+userColumns+`
		 FROM `+table+` WHERE id = ?`),
		listSQL: sqlx.Rebind(bind, `SELECT `+userColumns+`
		 FROM `+table+`
		 ORDER BY id
		 LIMIT ? OFFSET ?`),
		updateSQL: sqlx.Rebind(bind, `UPDATE `+table+`
		 SET role = ?, first_name = ?, last_name = ?, email = ?, password = ?, age = ?
		 WHERE id = ?`),
		deleteSQL: sqlx.Rebind(bind, `DELETE FROM `+table+` WHERE id = ?`),
	}
}

// Create inserts a new user and writes the store-assigned id back into
// user.ID. Any id already on the struct is ignored.
func (s *userStore) Create(ctx context.Context, user *model.User) error {
	args := []any{user.Role, user.FirstName, user.LastName, user.Email, user.Password, user.Age}

	if s.d.returningID {
		if err := s.q.QueryRowxContext(ctx, s.insertSQL, args...).Scan(&user.ID); err != nil {
			return fmt.Errorf("sqlstore: inserting user: %w", err)
		}
		return nil
	}

	result, err := s.q.ExecContext(ctx, s.insertSQL, args...)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlstore: reading new user id: %w", err)
	}
	user.ID = id

	return nil
}

// GetByID retrieves one user. Returns apperror.ErrNotFound if no row has
// that id.
func (s *userStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User

	err := sqlx.GetContext(ctx, s.q, &u, s.getSQL, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("User")
		}
		return nil, fmt.Errorf("sqlstore: getting user %d: %w", id, err)
	}

	return &u, nil
}

// List returns up to opts.Limit users after skipping opts.Offset, in
// primary-key (insertion) order. An empty page is an empty slice, not nil,
// so it serializes as [].
func (s *userStore) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	users := []model.User{}

	if err := sqlx.SelectContext(ctx, s.q, &users, s.listSQL, opts.Limit, opts.Offset); err != nil {
		return nil, fmt.Errorf("sqlstore: listing users: %w", err)
	}

	return users, nil
}

// Update overwrites every column of the row identified by user.ID.
//
// There is no "only changed fields" logic: whatever the struct holds is
// written, nil Age included. Zero rows affected means the id does not exist.
func (s *userStore) Update(ctx context.Context, user *model.User) error {
	result, err := s.q.ExecContext(ctx, s.updateSQL,
		user.Role,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Password,
		user.Age,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: updating user %d: %w", user.ID, err)
	}

	return expectOneRow(result, "User")
}

// Delete removes the row with the given id.
func (s *userStore) Delete(ctx context.Context, id int64) error {
	result, err := s.q.ExecContext(ctx, s.deleteSQL, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting user %d: %w", id, err)
	}

	return expectOneRow(result, "User")
}

func expectOneRow(result sql.Result, resource string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource)
	}
	return nil
}
