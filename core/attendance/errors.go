package attendance

import (
	"github.com/Jaimin17/Zenith-School-Backend/core"
)

const overwriteHint = "set overwrite_existing to true to update existing records"

var (
	// errors
	ErrStudentNotFound = core.NewNotFoundError("student")

	ErrEmptyRecords = core.NewValidationError(nil, core.FieldError{Field: "records", Error: "at least one attendance record is required"})
	ErrFutureDate   = core.NewValidationError(nil, core.FieldError{Field: "date", Error: "cannot take attendance for a future date"})
	ErrInvalidDate  = core.NewValidationError(nil, core.FieldError{Field: "date", Error: "date must be formatted as YYYY-MM-DD"})

	ErrNotLessonTeacher = core.NewPermissionError("you can only take attendance for your own lessons")
	ErrNotOwnStudent    = core.NewPermissionError("you can only view your own attendance")
	ErrNotOwnChild      = core.NewPermissionError("you can only view your children's attendance")
)

func invalidStudentsError(ids []string) error {
	return &core.ValidationError{
		Fields:  []core.FieldError{{Field: "records", Error: "some students do not belong to the lesson's class"}},
		Details: map[string]interface{}{"invalid_student_ids": ids},
	}
}

func duplicateStudentsError(ids []string) error {
	return &core.ValidationError{
		Fields:  []core.FieldError{{Field: "records", Error: "student ids must be unique"}},
		Details: map[string]interface{}{"duplicate_student_ids": ids},
	}
}

func existingRecordsError(ids []string) error {
	return core.NewConflictError(
		"attendance already taken for some students",
		map[string]interface{}{"existing_student_ids": ids, "hint": overwriteHint},
	)
}
