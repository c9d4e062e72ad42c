package user

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/activity"
)

var (
	// errors
	ErrUsernameExists  = errors.New("a user with this username already exists")
	ErrLastDeveloper   = errors.New("cannot delete the last developer account")
	ErrDeleteSelf      = errors.New("cannot delete your own account")
	ErrRoleNotAllowed  = errors.New("not enough rights to set this role")
	ErrUsersNotAllowed = errors.New("only a developer can manage users")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		// GetUserByUsername does a case-insensitive match.
		GetUserByUsername(ctx context.Context, username string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		// DeleteUser fails with a *core.ConstraintError when usr is the last developer.
		DeleteUser(ctx context.Context, id string) error
	}

	Service struct {
		repo     Repository
		activity activity.Recorder
		validate *validator.Validate
	}
)

func NewService(repo Repository, recorder activity.Recorder, validate *validator.Validate) *Service {
	return &Service{repo: repo, activity: recorder, validate: validate}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname string, exclUsers ...User) error {
	usr, err := svc.repo.GetUserByUsername(ctx, uname)
	if err != nil {
		if core.IsNotFound(err) {
			return nil
		}
		return errors.Wrap(err, "finding user by username")
	}
	for _, excl := range exclUsers {
		if excl.ID == usr.ID {
			return nil
		}
	}
	return core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
}

// checkActor makes sure the operator in ctx may manage users and assign `role`.
// Requests without an operator (admin CLI) are trusted.
func checkActor(ctx context.Context, role string) error {
	actor := core.ActorFromContext(ctx)
	if actor.ID == "" {
		return nil
	}
	if !CanManageUsers(actor.Role) {
		return core.NewValidationError(ErrUsersNotAllowed)
	}
	if role != "" && !CanCreateRole(actor.Role, role) {
		return core.NewValidationError(ErrRoleNotAllowed, core.FieldError{Field: "role", Error: ErrRoleNotAllowed.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(ctx, svc.validate, svc); err != nil {
		return User{}, err
	}
	if err := checkActor(ctx, nu.Role); err != nil {
		return User{}, err
	}

	now := core.NowFunc()
	usr := User{
		ID:        core.NewID("user"),
		Username:  nu.Username,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	err = svc.activity.Record(ctx, activity.UserCreated, fmt.Sprintf("User %q created", usr.Username), map[string]interface{}{"userId": usr.ID})
	return usr, errors.Wrap(err, "recording activity")
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err = uu.Validate(ctx, svc.validate, usr, svc); err != nil {
		return User{}, err
	}
	role := ""
	if uu.Role != usr.Role {
		role = uu.Role
	}
	if err = checkActor(ctx, role); err != nil {
		return User{}, err
	}

	usr.Username = uu.Username
	usr.Role = uu.Role
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.Password != "" {
		if err = usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	usr.UpdatedAt = core.NowFunc()
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return User{}, errors.Wrap(err, "updating user")
	}
	err = svc.activity.Record(ctx, activity.UserUpdated, fmt.Sprintf("User %q updated", usr.Username), map[string]interface{}{"userId": usr.ID})
	return usr, errors.Wrap(err, "recording activity")
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if err := checkActor(ctx, ""); err != nil {
		return err
	}
	if core.ActorFromContext(ctx).ID == id {
		return core.NewValidationError(ErrDeleteSelf)
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	err = svc.activity.Record(ctx, activity.UserDeleted, fmt.Sprintf("User %q deleted", usr.Username), map[string]interface{}{"userId": id})
	return errors.Wrap(err, "recording activity")
}

// SetPassword resets a password without the acting-operator checks (admin CLI).
func (svc *Service) SetPassword(ctx context.Context, uname, pwd string) (User, error) {
	usr, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return User{}, err
	}
	if err = svc.validate.Struct(UpdateUser{Username: usr.Username, Password: pwd}); err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = null.TimeFrom(core.NowFunc())
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
}
