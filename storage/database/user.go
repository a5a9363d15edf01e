package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/medshare/backend/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

type dbUser struct {
	ID             string       `db:"id"`
	Nickname       string       `db:"nickname"`
	Email          string       `db:"email"`
	UniversityID   string       `db:"university_id"`
	PasswordHash   []byte       `db:"password_hash"`
	Points         int          `db:"points"`
	AIBonusPending bool         `db:"ai_bonus_pending"`
	Avatar         string       `db:"avatar"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
	LastLogin      sql.NullTime `db:"last_login"`
}

func (du dbUser) toUser() user.User {
	usr := user.User{
		ID:             du.ID,
		Nickname:       du.Nickname,
		Email:          du.Email,
		UniversityID:   du.UniversityID,
		PasswordHash:   du.PasswordHash,
		Points:         du.Points,
		AIBonusPending: du.AIBonusPending,
		Avatar:         du.Avatar,
		CreatedAt:      du.CreatedAt.UTC(),
		UpdatedAt:      du.UpdatedAt.UTC(),
	}
	if du.LastLogin.Valid {
		usr.LastLogin = du.LastLogin.Time.UTC()
	}
	return usr
}

const userColumns = `id, nickname, email, university_id, password_hash, points, ai_bonus_pending, avatar, created_at, updated_at, last_login`

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string) error {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreatePendingUser(ctx context.Context, pu user.PendingUser) (user.PendingUser, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return user.PendingUser{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	// re-registration replaces the previous pending row
	if _, err = tx.ExecContext(ctx, `DELETE FROM pending_users WHERE email = $1`, pu.Email); err != nil {
		return user.PendingUser{}, errors.Wrap(err, "deleting previous pending user")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pending_users (token, nickname, email, university_id, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		pu.Token, pu.Nickname, pu.Email, pu.UniversityID, pu.PasswordHash, pu.CreatedAt,
	)
	if err != nil {
		return user.PendingUser{}, errors.Wrap(err, "creating pending user")
	}

	if err = tx.Commit(); err != nil {
		return user.PendingUser{}, errors.Wrap(err, "committing transaction")
	}
	return pu, nil
}

func (repo *userRepository) GetPendingUserByToken(ctx context.Context, token string) (user.PendingUser, error) {
	var pu user.PendingUser
	err := repo.db.QueryRowxContext(ctx,
		`SELECT token, nickname, email, university_id, password_hash, created_at
		 FROM pending_users WHERE token = $1`, token,
	).Scan(&pu.Token, &pu.Nickname, &pu.Email, &pu.UniversityID, &pu.PasswordHash, &pu.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.PendingUser{}, user.ErrNotFound
		}
		return user.PendingUser{}, errors.Wrap(err, "getting pending user")
	}
	pu.CreatedAt = pu.CreatedAt.UTC()
	return pu, nil
}

func (repo *userRepository) DeletePendingUser(ctx context.Context, token string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM pending_users WHERE token = $1`, token)
	return errors.Wrap(err, "deleting pending user")
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	var du dbUser
	err := repo.db.QueryRowxContext(ctx,
		`INSERT INTO users (nickname, email, university_id, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		usr.Nickname, usr.Email, usr.UniversityID, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	).StructScan(&du)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return du.toUser(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if !validUUID(id) {
		return user.User{}, user.ErrNotFound
	}
	var du dbUser
	err := repo.db.GetContext(ctx, &du, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user by ID")
	}
	return du.toUser(), nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var du dbUser
	err := repo.db.GetContext(ctx, &du, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user by email")
	}
	return du.toUser(), nil
}

func (repo *userRepository) SetUserPassword(ctx context.Context, id string, hash []byte) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return errors.Wrap(err, "setting user password")
	}
	return checkAffected(res, user.ErrNotFound)
}

func (repo *userRepository) SetUserLastLogin(ctx context.Context, id string, t time.Time) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, t)
	if err != nil {
		return errors.Wrap(err, "setting last login")
	}
	return checkAffected(res, user.ErrNotFound)
}

func (repo *userRepository) SetUserAvatar(ctx context.Context, id, avatar string) (user.User, error) {
	var du dbUser
	err := repo.db.QueryRowxContext(ctx,
		`UPDATE users SET avatar = $2, updated_at = now() WHERE id = $1 RETURNING `+userColumns,
		id, avatar,
	).StructScan(&du)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "setting avatar")
	}
	return du.toUser(), nil
}

// AddUserPoints applies the delta in a single statement so concurrent awards
// cannot lose updates.
func (repo *userRepository) AddUserPoints(ctx context.Context, id string, delta int) (int, error) {
	var points int
	err := repo.db.GetContext(ctx,
		&points, `UPDATE users SET points = points + $2, updated_at = now() WHERE id = $1 RETURNING points`,
		id, delta)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, user.ErrNotFound
		}
		return 0, errors.Wrap(err, "adding user points")
	}
	return points, nil
}

func (repo *userRepository) GrantAIBonus(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE users SET ai_bonus_pending = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "granting AI bonus")
	}
	return checkAffected(res, user.ErrNotFound)
}

// ConsumeAIBonus clears the flag with a single conditional update; the
// guarded WHERE makes the check-and-clear atomic so the bonus pays at most
// once.
func (repo *userRepository) ConsumeAIBonus(ctx context.Context, id string) (bool, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE users SET ai_bonus_pending = FALSE, updated_at = now() WHERE id = $1 AND ai_bonus_pending`, id)
	if err != nil {
		return false, errors.Wrap(err, "consuming AI bonus")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "consuming AI bonus")
	}
	return n > 0, nil
}

func (repo *userRepository) FilterRankings(ctx context.Context, universityID string, limit int) ([]user.User, error) {
	q := `SELECT ` + userColumns + ` FROM users`
	args := []interface{}{limit}
	if universityID != "" {
		q += ` WHERE university_id = $2`
		args = append(args, universityID)
	}
	q += ` ORDER BY points DESC, created_at ASC, id ASC LIMIT $1`

	var dus []dbUser
	if err := repo.db.SelectContext(ctx, &dus, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering rankings")
	}
	users := make([]user.User, 0, len(dus))
	for _, du := range dus {
		users = append(users, du.toUser())
	}
	return users, nil
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "checking affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
