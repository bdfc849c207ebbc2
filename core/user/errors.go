package user

import (
	"github.com/Jaimin17/Zenith-School-Backend/core"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("user")
	ErrTeacherNotFound = core.NewNotFoundError("teacher")
	ErrStudentNotFound = core.NewNotFoundError("student")
	ErrParentNotFound  = core.NewNotFoundError("parent")
	ErrAdminNotFound   = core.NewNotFoundError("admin")

	ErrAuthFailed         = core.NewValidationErrorf("authentication failed")
	ErrAccountDeactivated = core.NewPermissionError("account deactivated")
	ErrTokenRevoked       = core.NewPermissionError("token has been revoked")
	ErrInvalidResetToken  = core.NewValidationErrorf("invalid or expired password reset link")
	ErrSupervisesClass    = core.NewValidationErrorf("teacher cannot be deleted while assigned as supervisor to one or more active classes")
	ErrClassFull          = core.NewValidationError(nil, core.FieldError{Field: "class_id", Error: "class capacity exceeded"})
)

// UniquenessError builds the 409 returned when field clashes with an account of the same role.
func UniquenessError(role Role, field string) error {
	msg := "a " + string(role) + " with this " + field + " already exists"
	return core.NewConflictError(msg, nil, core.FieldError{Field: field, Error: msg})
}
