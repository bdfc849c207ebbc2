package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/lesson"
	"github.com/Jaimin17/Zenith-School-Backend/core/schedule"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

type fakeTx struct{}

func (fakeTx) Transact(_ context.Context, fn func(tx core.DBExecutor) error) error { return fn(nil) }

type fakeRepo struct {
	Repository

	lessons  map[string]lesson.Lesson
	students []RosterStudent
	parents  map[string]string
	rows     []Attendance
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		lessons: map[string]lesson.Lesson{
			"l1": {ID: "l1", Name: "Algebra", Day: schedule.Monday, ClassID: "x", TeacherID: "t1"},
		},
		students: []RosterStudent{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}},
		parents:  map[string]string{"s1": "p1", "s2": "p2", "s3": ""},
	}
}

func (r *fakeRepo) GetLesson(_ context.Context, _ user.Scope, id string, _ ...core.DBExecutor) (lesson.Lesson, error) {
	if l, ok := r.lessons[id]; ok {
		return l, nil
	}
	return lesson.Lesson{}, lesson.ErrLessonNotFound
}

func (r *fakeRepo) RosterStudents(context.Context, string, ...core.DBExecutor) ([]RosterStudent, error) {
	return r.students, nil
}

func (r *fakeRepo) AttendanceOn(_ context.Context, lessonID string, date time.Time, _ ...core.DBExecutor) ([]Attendance, error) {
	var out []Attendance
	for _, a := range r.rows {
		if a.LessonID == lessonID && schedule.Date(a.AttendanceDate).Equal(date) && !a.IsDelete {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateAttendance(_ context.Context, rows []Attendance, _ ...core.DBExecutor) error {
	r.rows = append(r.rows, rows...)
	return nil
}

func (r *fakeRepo) UpdateAttendance(_ context.Context, rows []Attendance, _ ...core.DBExecutor) error {
	for _, u := range rows {
		for i := range r.rows {
			if r.rows[i].ID == u.ID {
				r.rows[i].Present = u.Present
			}
		}
	}
	return nil
}

func (r *fakeRepo) StudentParent(_ context.Context, studentID string, _ ...core.DBExecutor) (null.String, error) {
	parentID, ok := r.parents[studentID]
	if !ok {
		return null.String{}, ErrStudentNotFound
	}
	return null.NewString(parentID, parentID != ""), nil
}

func (r *fakeRepo) CountStudentAttendance(_ context.Context, studentID string, _ time.Time, _ ...core.DBExecutor) (int, int, error) {
	var total, present int
	for _, a := range r.rows {
		if a.StudentID == studentID {
			total++
			if a.Present {
				present++
			}
		}
	}
	return total, present, nil
}

func freezeNow(t *testing.T, now time.Time) {
	orig := nowFunc
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = orig })
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		marked, roster int
		want           Status
	}{
		{0, 0, StatusNotTaken},
		{0, 5, StatusNotTaken},
		{2, 5, StatusPartial},
		{5, 5, StatusComplete},
		{6, 5, StatusComplete},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.marked, tt.roster), "marked=%d roster=%d", tt.marked, tt.roster)
	}
}

func TestPlanTake(t *testing.T) {
	at := time.Date(2030, time.March, 4, 10, 0, 0, 0, time.UTC)
	roster := []string{"s1", "s2", "s3"}
	existing := []Attendance{
		{ID: "a1", StudentID: "s1", LessonID: "l1", Present: false},
		{ID: "a2", StudentID: "s3", LessonID: "l1", Present: true},
	}

	tests := []struct {
		name       string
		records    []Record
		overwrite  bool
		wantErr    interface{}
		wantDetail map[string]interface{}
		wantCreate int
		wantUpdate int
	}{
		{
			name:    "empty",
			wantErr: &core.ValidationError{},
		},
		{
			name:       "not in roster wins over duplicates",
			records:    []Record{{StudentID: "s9"}, {StudentID: "s2"}, {StudentID: "s2"}},
			wantErr:    &core.ValidationError{},
			wantDetail: map[string]interface{}{"invalid_student_ids": []string{"s9"}},
		},
		{
			name:       "duplicates",
			records:    []Record{{StudentID: "s2"}, {StudentID: "s2"}},
			wantErr:    &core.ValidationError{},
			wantDetail: map[string]interface{}{"duplicate_student_ids": []string{"s2"}},
		},
		{
			name:    "existing rows without overwrite",
			records: []Record{{StudentID: "s1"}, {StudentID: "s2"}, {StudentID: "s3"}},
			wantErr: &core.ConflictError{},
			wantDetail: map[string]interface{}{
				"existing_student_ids": []string{"s1", "s3"},
				"hint":                 overwriteHint,
			},
		},
		{
			name:       "only new students",
			records:    []Record{{StudentID: "s2", Present: true}},
			wantCreate: 1,
		},
		{
			name:       "overwrite",
			records:    []Record{{StudentID: "s1", Present: true}, {StudentID: "s2"}},
			overwrite:  true,
			wantCreate: 1,
			wantUpdate: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanTake("l1", roster, existing, tt.records, tt.overwrite, at)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.IsType(t, tt.wantErr, err)
				switch e := err.(type) {
				case *core.ValidationError:
					if tt.wantDetail != nil {
						assert.Equal(t, tt.wantDetail, e.Details)
					}
				case *core.ConflictError:
					assert.Equal(t, tt.wantDetail, e.Details)
				}
				return
			}
			require.NoError(t, err)
			assert.Len(t, plan.Create, tt.wantCreate)
			assert.Len(t, plan.Update, tt.wantUpdate)
			for _, a := range plan.Create {
				assert.Equal(t, at, a.AttendanceDate)
				assert.Equal(t, "l1", a.LessonID)
			}
		})
	}
}

func TestService_TakeAttendance_idempotent(t *testing.T) {
	freezeNow(t, time.Date(2030, time.March, 4, 14, 30, 0, 0, time.UTC))
	repo := newFakeRepo()
	svc := NewService(fakeTx{}, repo)
	ctx := context.Background()
	teacher := user.TeacherPrincipal{ID: "t1", Username: "t1"}

	req := TakeAttendance{
		LessonID: "l1",
		Date:     "2030-03-04",
		Records:  []Record{{StudentID: "s1", Present: true}, {StudentID: "s2", Present: false}, {StudentID: "s3", Present: true}},
	}
	first, err := svc.TakeAttendance(ctx, teacher, req)
	require.NoError(t, err)
	assert.Equal(t, TakeResult{CreatedCount: 3, PresentCount: 2, AbsentCount: 1, TotalStudents: 3, Status: StatusComplete}, first)
	assert.Equal(t, time.Date(2030, time.March, 4, 14, 30, 0, 0, time.UTC), repo.rows[0].AttendanceDate)

	_, err = svc.TakeAttendance(ctx, teacher, req)
	var conflict *core.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"s1", "s2", "s3"}, conflict.Details["existing_student_ids"])

	req.OverwriteExisting = true
	second, err := svc.TakeAttendance(ctx, teacher, req)
	require.NoError(t, err)
	assert.Equal(t, 0, second.CreatedCount)
	assert.Equal(t, 3, second.UpdatedCount)
	assert.Equal(t, first.PresentCount, second.PresentCount)
	assert.Equal(t, first.AbsentCount, second.AbsentCount)
	assert.Len(t, repo.rows, 3)
}

func TestService_TakeAttendance_rejects(t *testing.T) {
	freezeNow(t, time.Date(2030, time.March, 4, 14, 30, 0, 0, time.UTC))
	repo := newFakeRepo()
	svc := NewService(fakeTx{}, repo)
	ctx := context.Background()
	records := []Record{{StudentID: "s1", Present: true}}

	tests := []struct {
		name    string
		p       user.Principal
		req     TakeAttendance
		wantErr interface{}
	}{
		{"future date", user.AdminPrincipal{ID: "a1"}, TakeAttendance{LessonID: "l1", Date: "2030-03-05", Records: records}, &core.ValidationError{}},
		{"no records", user.AdminPrincipal{ID: "a1"}, TakeAttendance{LessonID: "l1", Date: "2030-03-04"}, &core.ValidationError{}},
		{"other teacher", user.TeacherPrincipal{ID: "t2"}, TakeAttendance{LessonID: "l1", Date: "2030-03-04", Records: records}, &core.PermissionError{}},
		{"unknown lesson", user.AdminPrincipal{ID: "a1"}, TakeAttendance{LessonID: "l9", Date: "2030-03-04", Records: records}, &core.NotFoundError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.TakeAttendance(ctx, tt.p, tt.req)
			require.Error(t, err)
			assert.IsType(t, tt.wantErr, errors.Cause(err))
		})
	}
	assert.Empty(t, repo.rows)
}

func TestService_GetRoster(t *testing.T) {
	freezeNow(t, time.Date(2030, time.March, 4, 14, 30, 0, 0, time.UTC))
	repo := newFakeRepo()
	repo.rows = []Attendance{
		{ID: "a1", StudentID: "s2", LessonID: "l1", AttendanceDate: time.Date(2030, time.March, 4, 9, 0, 0, 0, time.UTC), Present: true},
	}
	svc := NewService(fakeTx{}, repo)

	roster, err := svc.GetRoster(context.Background(), user.AdminPrincipal{ID: "a1"}, "l1", "")
	require.NoError(t, err)
	assert.Equal(t, "2030-03-04", roster.Date)
	require.Len(t, roster.Students, 3)
	assert.False(t, roster.Students[0].Present.Valid)
	assert.Equal(t, null.BoolFrom(true), roster.Students[1].Present)
	assert.Equal(t, Summary{TotalStudents: 3, MarkedCount: 1, PresentCount: 1, Status: StatusPartial}, roster.Summary)
}

func TestService_StudentSummary(t *testing.T) {
	freezeNow(t, time.Date(2030, time.March, 4, 14, 30, 0, 0, time.UTC))
	repo := newFakeRepo()
	repo.rows = []Attendance{
		{StudentID: "s1", Present: true},
		{StudentID: "s1", Present: true},
		{StudentID: "s1", Present: false},
	}
	svc := NewService(fakeTx{}, repo)
	ctx := context.Background()

	sum, err := svc.StudentSummary(ctx, user.ParentPrincipal{ID: "p1"}, "s1")
	require.NoError(t, err)
	assert.Equal(t, "2029-06-01", sum.From)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Absent)
	assert.Equal(t, 66.67, sum.Percentage)

	_, err = svc.StudentSummary(ctx, user.ParentPrincipal{ID: "p2"}, "s1")
	assert.Equal(t, ErrNotOwnChild, err)

	_, err = svc.StudentSummary(ctx, user.StudentPrincipal{ID: "s2"}, "s1")
	assert.Equal(t, ErrNotOwnStudent, err)

	_, err = svc.StudentSummary(ctx, user.ParentPrincipal{ID: "p1"}, "s3")
	assert.Equal(t, ErrNotOwnChild, err)

	_, err = svc.StudentSummary(ctx, user.AdminPrincipal{ID: "a1"}, "s9")
	assert.Equal(t, ErrStudentNotFound, err)
}
