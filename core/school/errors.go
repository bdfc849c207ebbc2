package school

import (
	"github.com/Jaimin17/Zenith-School-Backend/core"
)

var (
	// errors
	ErrGradeNotFound        = core.NewNotFoundError("grade")
	ErrSubjectNotFound      = core.NewNotFoundError("subject")
	ErrClassNotFound        = core.NewNotFoundError("class")
	ErrSupervisorNotFound   = core.NewNotFoundError("supervisor")
	ErrEventNotFound        = core.NewNotFoundError("event")
	ErrAnnouncementNotFound = core.NewNotFoundError("announcement")

	ErrGradeExists   = core.NewConflictError("a grade with this level already exists", nil, core.FieldError{Field: "level", Error: "a grade with this level already exists"})
	ErrSubjectExists = core.NewConflictError("a subject with this name already exists", nil, core.FieldError{Field: "name", Error: "a subject with this name already exists"})
	ErrClassExists   = core.NewConflictError("a class with this name already exists", nil, core.FieldError{Field: "name", Error: "a class with this name already exists"})

	ErrEventTimeOrder = core.NewValidationError(nil, core.FieldError{Field: "end_time", Error: "start_time must be before end_time"})
)
