package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/community-board-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

const uniqueViolation = "23505"

const userColumns = `id, email, name, description, is_active, is_admin, tags, links, team,
	available_days, avatar_url, token_version, login_issued_at, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db.DB,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		user              model.User
		tags, links, days []byte
		loginIssuedAt     sql.NullTime
	)

	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.Description, &user.IsActive, &user.IsAdmin,
		&tags, &links, &user.Team, &days, &user.AvatarURL, &user.TokenVersion, &loginIssuedAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}

	if err := unmarshalJSON(tags, &user.Tags); err != nil {
		return model.User{}, fmt.Errorf("failed to decode tags: %w", err)
	}
	if err := unmarshalJSON(links, &user.Links); err != nil {
		return model.User{}, fmt.Errorf("failed to decode links: %w", err)
	}
	if err := unmarshalJSON(days, &user.AvailableDays); err != nil {
		return model.User{}, fmt.Errorf("failed to decode available days: %w", err)
	}
	if loginIssuedAt.Valid {
		t := loginIssuedAt.Time
		user.LoginIssuedAt = &t
	}

	return user, nil
}

func unmarshalJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// jsonArg encodes v for a JSONB column. Nil slices and maps are stored as empty values.
func jsonArg(v any, empty string) (string, error) {
	switch t := v.(type) {
	case []string:
		if t == nil {
			return empty, nil
		}
	case map[string]string:
		if t == nil {
			return empty, nil
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type profileArgs struct {
	tags, links, days string
}

func encodeProfile(user model.User) (profileArgs, error) {
	var (
		args profileArgs
		err  error
	)
	if args.tags, err = jsonArg(user.Tags, "[]"); err != nil {
		return profileArgs{}, fmt.Errorf("failed to encode tags: %w", err)
	}
	if args.links, err = jsonArg(user.Links, "{}"); err != nil {
		return profileArgs{}, fmt.Errorf("failed to encode links: %w", err)
	}
	if args.days, err = jsonArg(user.AvailableDays, "[]"); err != nil {
		return profileArgs{}, fmt.Errorf("failed to encode available days: %w", err)
	}
	return args, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, email`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

func insertUser(ctx context.Context, db DBTX, user model.User) (model.User, error) {
	args, err := encodeProfile(user)
	if err != nil {
		return model.User{}, err
	}

	query := `INSERT INTO users (id, email, name, description, is_active, is_admin, tags, links, team,
			  available_days, avatar_url, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			  RETURNING ` + userColumns

	saved, err := scanUser(db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.Name, user.Description, user.IsActive, user.IsAdmin,
		args.tags, args.links, user.Team, args.days, user.AvatarURL, user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, fmt.Errorf("user %s: %w", user.Email, model.ErrAlreadyExists)
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return saved, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	return insertUser(ctx, r.db, user)
}

func (r *UserRepository) CreateMany(ctx context.Context, users []model.User) ([]model.User, error) {
	saved := make([]model.User, 0, len(users))

	err := WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		for _, user := range users {
			u, err := insertUser(ctx, tx, user)
			if err != nil {
				return err
			}
			saved = append(saved, u)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

func (r *UserRepository) Update(ctx context.Context, user model.User) (model.User, error) {
	args, err := encodeProfile(user)
	if err != nil {
		return model.User{}, err
	}

	query := `UPDATE users SET name = $2, description = $3, is_active = $4, tags = $5, links = $6,
			  team = $7, available_days = $8, avatar_url = $9, updated_at = $10
			  WHERE id = $1
			  RETURNING ` + userColumns

	saved, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Description, user.IsActive, args.tags, args.links,
		user.Team, args.days, user.AvatarURL, user.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to update user: %w", err)
	}

	return saved, nil
}

func (r *UserRepository) DeleteMany(ctx context.Context, ids []uuid.UUID) (int, error) {
	deleted := 0

	err := WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		for _, id := range ids {
			res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
			if err != nil {
				return fmt.Errorf("failed to delete user %s: %w", id, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read affected rows: %w", err)
			}
			deleted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}

func (r *UserRepository) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) (model.User, error) {
	query := `UPDATE users SET is_admin = $2, token_version = token_version + 1, updated_at = $3
			  WHERE id = $1
			  RETURNING ` + userColumns

	saved, err := scanUser(r.db.QueryRowContext(ctx, query, id, isAdmin, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to set admin flag: %w", err)
	}

	return saved, nil
}

func (r *UserRepository) BumpTokenVersion(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET token_version = token_version + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to bump token version: %w", err)
	}

	return expectAffected(res)
}

func (r *UserRepository) MarkLoginIssued(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET login_issued_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark login issued: %w", err)
	}

	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ListTags(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT tag FROM users, jsonb_array_elements_text(users.tags) AS tag ORDER BY tag`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags := make([]string, 0)
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}

	return tags, nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
