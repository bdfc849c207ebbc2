package user

// Restrictor receives the visibility rule of a Scope.
// Repositories implement it to turn the rule into query predicates.
type Restrictor interface {
	Everything()
	Teacher(teacherID string)
	Student(studentID string)
	Parent(parentID string)
}

// Scope decides which rows of a listing a principal may see.
type Scope interface {
	Restrict(r Restrictor)
}

type (
	AdminScope   struct{}
	TeacherScope struct{ TeacherID string }
	StudentScope struct{ StudentID string }
	ParentScope  struct{ ParentID string }
)

func (AdminScope) Restrict(r Restrictor)     { r.Everything() }
func (s TeacherScope) Restrict(r Restrictor) { r.Teacher(s.TeacherID) }
func (s StudentScope) Restrict(r Restrictor) { r.Student(s.StudentID) }
func (s ParentScope) Restrict(r Restrictor)  { r.Parent(s.ParentID) }
