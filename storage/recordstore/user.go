package recordstore

import (
	"context"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/user"
)

// userRecord persists the password hash that user.User hides from JSON.
type userRecord struct {
	user.User
	PasswordHash []byte `json:"passwordHash"`
}

func newUserRecord(usr user.User) userRecord {
	return userRecord{User: usr, PasswordHash: usr.PasswordHash}
}

func (rec userRecord) user() user.User {
	usr := rec.User
	usr.PasswordHash = rec.PasswordHash
	return usr
}

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	return usr, repo.db.users.insert(ctx, repo.db.store, newUserRecord(usr))
}

func (repo *userRepository) QueryAllUsers(context.Context) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := make([]user.User, 0, len(repo.db.users.rows))
	for _, rec := range repo.db.users.rows {
		users = append(users, rec.user())
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if i := repo.db.users.index(func(rec userRecord) bool { return rec.ID == id }); i >= 0 {
		return repo.db.users.rows[i].user(), nil
	}
	return user.User{}, core.NewNotFoundError("user", id)
}

func (repo *userRepository) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if i := repo.db.users.index(func(rec userRecord) bool { return core.SameText(rec.Username, username) }); i >= 0 {
		return repo.db.users.rows[i].user(), nil
	}
	return user.User{}, core.NewNotFoundError("user", username)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.db.users.index(func(rec userRecord) bool { return rec.ID == usr.ID })
	if i < 0 {
		return user.User{}, core.NewNotFoundError("user", usr.ID)
	}
	// only save set fields
	if usr.PasswordHash == nil {
		usr.PasswordHash = repo.db.users.rows[i].PasswordHash
	}
	usr.CreatedAt = repo.db.users.rows[i].CreatedAt
	return usr, repo.db.users.replace(ctx, repo.db.store, i, newUserRecord(usr))
}

func (repo *userRepository) DeleteUser(ctx context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.db.users.index(func(rec userRecord) bool { return rec.ID == id })
	if i < 0 {
		return core.NewNotFoundError("user", id)
	}
	if repo.db.users.rows[i].Role == user.RoleDeveloper {
		developers := repo.db.users.all(func(rec userRecord) bool { return rec.Role == user.RoleDeveloper })
		if len(developers) <= 1 {
			return core.NewConstraintError("%s", user.ErrLastDeveloper)
		}
	}
	return repo.db.users.remove(ctx, repo.db.store, i)
}
