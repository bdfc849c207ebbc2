package user

import (
	"github.com/pkg/errors"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
)

// Roles in login lookup order.
var Roles = []Role{RoleAdmin, RoleParent, RoleTeacher, RoleStudent}

var ErrInvalidRole = errors.New("invalid role")

func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", ErrInvalidRole
}

// Principal is the authenticated caller of a request.
// It is one of AdminPrincipal, TeacherPrincipal, StudentPrincipal or ParentPrincipal.
type Principal interface {
	PrincipalID() string
	PrincipalName() string
	Role() Role
	Scope() Scope
	principal()
}

type (
	AdminPrincipal struct {
		ID       string
		Username string
	}

	TeacherPrincipal struct {
		ID       string
		Username string
	}

	StudentPrincipal struct {
		ID       string
		Username string
	}

	ParentPrincipal struct {
		ID       string
		Username string
	}
)

var (
	_ Principal = AdminPrincipal{}
	_ Principal = TeacherPrincipal{}
	_ Principal = StudentPrincipal{}
	_ Principal = ParentPrincipal{}
)

func (p AdminPrincipal) PrincipalID() string   { return p.ID }
func (p AdminPrincipal) PrincipalName() string { return p.Username }
func (p AdminPrincipal) Role() Role            { return RoleAdmin }
func (p AdminPrincipal) Scope() Scope          { return AdminScope{} }
func (AdminPrincipal) principal()              {}

func (p TeacherPrincipal) PrincipalID() string   { return p.ID }
func (p TeacherPrincipal) PrincipalName() string { return p.Username }
func (p TeacherPrincipal) Role() Role            { return RoleTeacher }
func (p TeacherPrincipal) Scope() Scope          { return TeacherScope{TeacherID: p.ID} }
func (TeacherPrincipal) principal()              {}

func (p StudentPrincipal) PrincipalID() string   { return p.ID }
func (p StudentPrincipal) PrincipalName() string { return p.Username }
func (p StudentPrincipal) Role() Role            { return RoleStudent }
func (p StudentPrincipal) Scope() Scope          { return StudentScope{StudentID: p.ID} }
func (StudentPrincipal) principal()              {}

func (p ParentPrincipal) PrincipalID() string   { return p.ID }
func (p ParentPrincipal) PrincipalName() string { return p.Username }
func (p ParentPrincipal) Role() Role            { return RoleParent }
func (p ParentPrincipal) Scope() Scope          { return ParentScope{ParentID: p.ID} }
func (ParentPrincipal) principal()              {}

// NewPrincipal builds the Principal variant matching role.
func NewPrincipal(role Role, id, username string) (Principal, error) {
	switch role {
	case RoleAdmin:
		return AdminPrincipal{ID: id, Username: username}, nil
	case RoleTeacher:
		return TeacherPrincipal{ID: id, Username: username}, nil
	case RoleStudent:
		return StudentPrincipal{ID: id, Username: username}, nil
	case RoleParent:
		return ParentPrincipal{ID: id, Username: username}, nil
	}
	return nil, ErrInvalidRole
}

func IsAdmin(p Principal) bool {
	_, ok := p.(AdminPrincipal)
	return ok
}

// HasAnyRole reports whether p plays one of roles. No roles means any.
func HasAnyRole(p Principal, roles ...Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if p.Role() == r {
			return true
		}
	}
	return false
}
