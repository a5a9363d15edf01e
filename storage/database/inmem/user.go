package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/medshare/backend/core/user"
)

type userRepository struct {
	db      *userTable
	pending *pendingTable
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user, pending: db.pending}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreatePendingUser(ctx context.Context, pu user.PendingUser) (user.PendingUser, error) {
	repo.pending.mutex.Lock()
	defer repo.pending.mutex.Unlock()

	// a re-registration invalidates the previous verification link
	for token, prev := range repo.pending.table {
		if prev.Email == pu.Email {
			delete(repo.pending.table, token)
		}
	}
	repo.pending.table[pu.Token] = &pu
	return pu, nil
}

func (repo *userRepository) GetPendingUserByToken(ctx context.Context, token string) (user.PendingUser, error) {
	repo.pending.mutex.RLock()
	defer repo.pending.mutex.RUnlock()

	if pu, ok := repo.pending.table[token]; ok {
		return *pu, nil
	}
	return user.PendingUser{}, user.ErrNotFound
}

func (repo *userRepository) DeletePendingUser(ctx context.Context, token string) error {
	repo.pending.mutex.Lock()
	defer repo.pending.mutex.Unlock()
	delete(repo.pending.table, token)
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr.ID = uuid.NewString()
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.table[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) SetUserPassword(ctx context.Context, id string, hash []byte) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr, ok := repo.db.table[id]
	if !ok {
		return user.ErrNotFound
	}
	usr.PasswordHash = hash
	usr.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *userRepository) SetUserLastLogin(ctx context.Context, id string, t time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr, ok := repo.db.table[id]
	if !ok {
		return user.ErrNotFound
	}
	usr.LastLogin = t
	return nil
}

func (repo *userRepository) SetUserAvatar(ctx context.Context, id, avatar string) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr, ok := repo.db.table[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	usr.Avatar = avatar
	usr.UpdatedAt = time.Now().UTC()
	return *usr, nil
}

func (repo *userRepository) AddUserPoints(ctx context.Context, id string, delta int) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr, ok := repo.db.table[id]
	if !ok {
		return 0, user.ErrNotFound
	}
	usr.Points += delta
	return usr.Points, nil
}

func (repo *userRepository) GrantAIBonus(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr, ok := repo.db.table[id]
	if !ok {
		return user.ErrNotFound
	}
	usr.AIBonusPending = true
	return nil
}

func (repo *userRepository) ConsumeAIBonus(ctx context.Context, id string) (bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr, ok := repo.db.table[id]
	if !ok {
		return false, user.ErrNotFound
	}
	if !usr.AIBonusPending {
		return false, nil
	}
	usr.AIBonusPending = false
	return true, nil
}

func (repo *userRepository) FilterRankings(ctx context.Context, universityID string, limit int) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := make([]user.User, 0)
	for _, usr := range repo.query() {
		if universityID != "" && usr.UniversityID != universityID {
			continue
		}
		users = append(users, usr)
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].Points != users[j].Points {
			return users[i].Points > users[j].Points
		}
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})

	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}
