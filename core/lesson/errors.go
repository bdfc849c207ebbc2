package lesson

import (
	"github.com/Jaimin17/Zenith-School-Backend/core"
)

var (
	// errors
	ErrLessonNotFound     = core.NewNotFoundError("lesson")
	ErrExamNotFound       = core.NewNotFoundError("exam")
	ErrAssignmentNotFound = core.NewNotFoundError("assignment")
	ErrResultNotFound     = core.NewNotFoundError("result")
	ErrStudentNotFound    = core.NewNotFoundError("student")
	ErrSubjectNotFound    = core.NewNotFoundError("subject")
	ErrClassNotFound      = core.NewNotFoundError("class")
	ErrTeacherNotFound    = core.NewNotFoundError("teacher")

	ErrLessonTimeOrder = core.NewValidationError(nil, core.FieldError{Field: "end_time", Error: "start_time must be before end_time"})
	ErrExamTimeOrder   = ErrLessonTimeOrder
	ErrDueDateOrder    = core.NewValidationError(nil, core.FieldError{Field: "due_date", Error: "start_date must be before due_date"})
	ErrStartInPast     = core.NewValidationErrorf("start cannot be in the past")

	ErrTeacherSubject    = core.NewValidationErrorf("teacher does not teach this subject")
	ErrStudentNotInClass = core.NewValidationErrorf("student is not enrolled in the lesson's class")

	ErrNotLessonTeacher = core.NewPermissionError("you can only manage records of your own lessons")
)
