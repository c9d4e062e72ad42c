package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/breakthefear/btf/core"
)

// Roles
const (
	RoleManager   = "manager"
	RoleAdmin     = "admin"
	RoleDeveloper = "developer"
)

var (
	AllRoles = []string{RoleManager, RoleAdmin, RoleDeveloper}

	rolePriorities = map[string]int{
		RoleManager:   1,
		RoleAdmin:     2,
		RoleDeveloper: 3,
	}

	Roles = []Role{
		{Name: "Manager", Value: RoleManager},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Developer", Value: RoleDeveloper},
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

// CanCreateRole reports whether an operator with role `actor` may create or assign `role`.
// A developer may assign any role; the others only roles strictly below their own.
func CanCreateRole(actor, role string) bool {
	if RolePriority(role) == 0 {
		return false
	}
	if actor == RoleDeveloper {
		return true
	}
	return RolePriority(role) < RolePriority(actor)
}

// CanManageUsers reports whether `role` gives access to operator management.
func CanManageUsers(role string) bool {
	return role == RoleDeveloper
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User is an operator of the institute (not a student).
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
	LastLogin    null.Time `json:"lastLogin"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) Actor() core.Actor {
	return core.Actor{ID: u.ID, Username: u.Username, Role: u.Role}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username        string `json:"username" validate:"required,min=3,max=50,alphanum_"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"omitempty,eqfield=Password"`
	Role            string `json:"role" validate:"required,userrole"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, nu.Username)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Username string `json:"username" validate:"omitempty,min=3,max=50,alphanum_"`
	Role     string `json:"role" validate:"omitempty,userrole"`
	IsActive *bool  `json:"isActive"`
	Password string `json:"password" validate:"omitempty"`
}

func (uu *UpdateUser) Validate(ctx context.Context, validate *validator.Validate, origUsr User, svc *Service) error {
	if uname := core.CleanString(uu.Username, true /* lower */); uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}
	if role := core.CleanString(uu.Role, true /* lower */); role != "" {
		uu.Role = role
	} else {
		uu.Role = origUsr.Role
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, uu.Username, origUsr)
}
