package boiledrepos

import (
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

// pred is a raw SQL predicate with "?" placeholders.
type pred struct {
	clause string
	args   []interface{}
}

func where(clause string, args ...interface{}) *pred {
	return &pred{clause: clause, args: args}
}

func (p *pred) mod() qm.QueryMod {
	return qm.Where(p.clause, p.args...)
}

// rules holds the visibility predicate of one entity for each non-admin scope.
// A nil rule hides every row.
type rules struct {
	teacher func(id string) *pred
	student func(id string) *pred
	parent  func(id string) *pred
}

// restrictor implements user.Restrictor by picking the rule of the scope.
type restrictor struct {
	rules
	result *pred
}

var _ user.Restrictor = (*restrictor)(nil) // interface compliance check

func (r *restrictor) Everything()       { r.result = nil }
func (r *restrictor) Teacher(id string) { r.result = pick(r.teacher, id) }
func (r *restrictor) Student(id string) { r.result = pick(r.student, id) }
func (r *restrictor) Parent(id string)  { r.result = pick(r.parent, id) }

func pick(rule func(string) *pred, id string) *pred {
	if rule == nil {
		return where("false")
	}
	return rule(id)
}

// predicate returns the predicate scope applies to the entity, nil when it sees everything.
func (rl rules) predicate(scope user.Scope) *pred {
	if scope == nil {
		return where("false")
	}
	r := &restrictor{rules: rl}
	scope.Restrict(r)
	return r.result
}

// mods returns the query mods restricting the entity to scope.
func (rl rules) mods(scope user.Scope) []qm.QueryMod {
	if p := rl.predicate(scope); p != nil {
		return []qm.QueryMod{p.mod()}
	}
	return nil
}

// shared sub-selects
const (
	teacherClassesSQL = "SELECT id FROM class WHERE supervisor_id = ? AND NOT is_delete " +
		"UNION SELECT class_id FROM lesson WHERE teacher_id = ? AND NOT is_delete"
	studentClassSQL  = "SELECT class_id FROM student WHERE id = ? AND NOT is_delete"
	parentClassesSQL = "SELECT class_id FROM student WHERE parent_id = ? AND NOT is_delete"
	teacherLessonSQL = "SELECT id FROM lesson WHERE teacher_id = ?"
)

func classRule(column string) rules {
	return rules{
		teacher: func(id string) *pred { return where(column+" IN ("+teacherClassesSQL+")", id, id) },
		student: func(id string) *pred { return where(column+" IN ("+studentClassSQL+")", id) },
		parent:  func(id string) *pred { return where(column+" IN ("+parentClassesSQL+")", id) },
	}
}

// lessonChildRule restricts exams and assignments through the visibility of their lesson.
func lessonChildRule() rules {
	return rules{
		teacher: func(id string) *pred { return where("lesson_id IN ("+teacherLessonSQL+")", id) },
		student: func(id string) *pred {
			return where("lesson_id IN (SELECT id FROM lesson WHERE class_id IN ("+studentClassSQL+"))", id)
		},
		parent: func(id string) *pred {
			return where("lesson_id IN (SELECT id FROM lesson WHERE class_id IN ("+parentClassesSQL+"))", id)
		},
	}
}

// globalOrClassRule lets global rows (null class_id) through.
func globalOrClassRule() rules {
	cr := classRule("class_id")
	wrap := func(rule func(string) *pred) func(string) *pred {
		return func(id string) *pred {
			p := rule(id)
			return where("(class_id IS NULL OR "+p.clause+")", p.args...)
		}
	}
	return rules{teacher: wrap(cr.teacher), student: wrap(cr.student), parent: wrap(cr.parent)}
}

var (
	teacherVisibility = rules{
		teacher: func(id string) *pred { return where("id = ?", id) },
		student: func(id string) *pred {
			return where("id IN (SELECT teacher_id FROM lesson WHERE NOT is_delete AND class_id IN ("+studentClassSQL+"))", id)
		},
		parent: func(id string) *pred {
			return where("id IN (SELECT teacher_id FROM lesson WHERE NOT is_delete AND class_id IN ("+parentClassesSQL+"))", id)
		},
	}

	studentVisibility = rules{
		teacher: func(id string) *pred { return where("class_id IN ("+teacherClassesSQL+")", id, id) },
		student: func(id string) *pred { return where("id = ?", id) },
		parent:  func(id string) *pred { return where("parent_id = ?", id) },
	}

	parentVisibility = rules{
		teacher: func(id string) *pred {
			return where("id IN (SELECT parent_id FROM student WHERE NOT is_delete AND class_id IN ("+teacherClassesSQL+"))", id, id)
		},
		student: func(id string) *pred { return where("id IN (SELECT parent_id FROM student WHERE id = ?)", id) },
		parent:  func(id string) *pred { return where("id = ?", id) },
	}

	classVisibility = classRule("id")

	subjectVisibility = rules{
		teacher: func(id string) *pred {
			return where("id IN (SELECT subject_id FROM teacher_subject_link WHERE teacher_id = ?)", id)
		},
		student: func(id string) *pred {
			return where("id IN (SELECT subject_id FROM lesson WHERE NOT is_delete AND class_id IN ("+studentClassSQL+"))", id)
		},
		parent: func(id string) *pred {
			return where("id IN (SELECT subject_id FROM lesson WHERE NOT is_delete AND class_id IN ("+parentClassesSQL+"))", id)
		},
	}

	lessonVisibility = rules{
		teacher: func(id string) *pred { return where("teacher_id = ?", id) },
		student: func(id string) *pred { return where("class_id IN ("+studentClassSQL+")", id) },
		parent:  func(id string) *pred { return where("class_id IN ("+parentClassesSQL+")", id) },
	}

	examVisibility       = lessonChildRule()
	assignmentVisibility = lessonChildRule()

	resultVisibility = rules{
		teacher: func(id string) *pred {
			return where("(exam_id IN (SELECT id FROM exam WHERE lesson_id IN ("+teacherLessonSQL+")) "+
				"OR assignment_id IN (SELECT id FROM assignment WHERE lesson_id IN ("+teacherLessonSQL+")))", id, id)
		},
		student: func(id string) *pred { return where("student_id = ?", id) },
		parent: func(id string) *pred {
			return where("student_id IN (SELECT id FROM student WHERE parent_id = ? AND NOT is_delete)", id)
		},
	}

	eventVisibility        = globalOrClassRule()
	announcementVisibility = globalOrClassRule()

	attendanceVisibility = rules{
		teacher: func(id string) *pred { return where("lesson_id IN ("+teacherLessonSQL+")", id) },
		student: func(id string) *pred { return where("student_id = ?", id) },
		parent: func(id string) *pred {
			return where("student_id IN (SELECT id FROM student WHERE parent_id = ? AND NOT is_delete)", id)
		},
	}
)
