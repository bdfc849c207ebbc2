package tests

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaimin17/Zenith-School-Backend/core/schedule"
	"github.com/Jaimin17/Zenith-School-Backend/core/school"
	"github.com/Jaimin17/Zenith-School-Backend/tests"
)

type listBody[T any] struct {
	Data       []T   `json:"data"`
	TotalCount int64 `json:"total_count"`
	Page       int   `json:"page"`
}

func Test_schoolApi_grades(t *testing.T) {
	testutil.PrepareDB(t, db)

	admin := testutil.CreateAdmin(t, repo, "admin")
	token := getToken(t, admin.Account())
	testutil.CreateGrade(t, repo, 1)

	tests := []httpTest{
		{name: "invalid level", body: []byte(`{"level": 13}`), wantCode: http.StatusBadRequest},
		{name: "missing level", body: []byte(`{}`), wantCode: http.StatusBadRequest, wantData: []byte(`{"level": "this field is required"}`)},
		{
			name: "duplicate", body: []byte(`{"level": 1}`), wantCode: http.StatusConflict,
			wantData: []byte(`{"level": "a grade with this level already exists", "error": "a grade with this level already exists"}`),
		},
		{name: "ok", body: []byte(`{"level": 2}`), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path, tt.token = http.MethodPost, "/v1/grades", token
			checkCodeAndData(t, tt, do(tt))
		})
	}

	rec := do(httpTest{path: "/v1/grades", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var grades []school.Grade
	unmarshal(t, rec, &grades)
	if assert.Len(t, grades, 2) {
		assert.Equal(t, 1, grades[0].Level)
		assert.Equal(t, 2, grades[1].Level)
	}
}

func Test_schoolApi_subjects(t *testing.T) {
	testutil.PrepareDB(t, db)

	admin := testutil.CreateAdmin(t, repo, "admin")
	token := getToken(t, admin.Account())
	math := testutil.CreateSubject(t, repo, "Mathematics")
	testutil.CreateSubject(t, repo, "History")
	teacher := testutil.CreateTeacher(t, repo, "teacher", "9876543210", math.ID)

	// create
	rec := do(httpTest{method: http.MethodPost, path: "/v1/subjects", token: token, body: []byte(`{"name": "  Physics "}`)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var physics school.Subject
	unmarshal(t, rec, &physics)
	assert.Equal(t, "Physics", physics.Name)

	rec = do(httpTest{method: http.MethodPost, path: "/v1/subjects", token: token, body: []byte(`{"name": "History"}`)})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// update
	rec = do(httpTest{method: http.MethodPut, path: "/v1/subjects/" + physics.ID, token: token, body: []byte(`{"name": "Mathematics"}`)})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = do(httpTest{method: http.MethodPut, path: "/v1/subjects/" + physics.ID, token: token, body: []byte(`{"name": "Chemistry"}`)})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(httpTest{method: http.MethodPut, path: "/v1/subjects/nope", token: token, body: []byte(`{"name": "Biology"}`)})
	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: []byte(`{"error": "subject not found"}`)}, rec)

	// list: admins see everything, teachers only what they teach
	rec = do(httpTest{path: "/v1/subjects?ordering=name", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var all listBody[school.Subject]
	unmarshal(t, rec, &all)
	assert.EqualValues(t, 3, all.TotalCount)
	if assert.Len(t, all.Data, 3) {
		assert.Equal(t, "Chemistry", all.Data[0].Name)
	}

	rec = do(httpTest{path: "/v1/subjects", token: getToken(t, teacher.Account())})
	require.Equal(t, http.StatusOK, rec.Code)
	var mine listBody[school.Subject]
	unmarshal(t, rec, &mine)
	if assert.Len(t, mine.Data, 1) {
		assert.Equal(t, math.ID, mine.Data[0].ID)
	}

	// delete unlinks teachers
	rec = do(httpTest{method: http.MethodDelete, path: "/v1/subjects/" + math.ID, token: token})
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"teachers_affected": 1, "lessons_affected": 0}`)}, rec)
	rec = do(httpTest{method: http.MethodDelete, path: "/v1/subjects/" + math.ID, token: token})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_schoolApi_classes(t *testing.T) {
	testutil.PrepareDB(t, db)

	admin := testutil.CreateAdmin(t, repo, "admin")
	token := getToken(t, admin.Account())
	grade := testutil.CreateGrade(t, repo, 1)
	teacher := testutil.CreateTeacher(t, repo, "teacher", "9876543210")

	tests := []httpTest{
		{name: "missing fields", body: []byte(`{}`), wantCode: http.StatusBadRequest},
		{
			name: "unknown supervisor", wantCode: http.StatusNotFound,
			body: marchallObj(t, school.SaveClass{Name: "1A", Capacity: 30, SupervisorID: "7f3b1c52-3c1c-4bd1-9e43-1d0a8f4bb0f0"}),
		},
		{
			name: "ok", wantCode: http.StatusCreated,
			body: marchallObj(t, school.SaveClass{Name: "1A", Capacity: 30, SupervisorID: teacher.ID, GradeID: grade.ID}),
		},
		{name: "duplicate name", wantCode: http.StatusConflict, body: marchallObj(t, school.SaveClass{Name: "1A", Capacity: 20})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path, tt.token = http.MethodPost, "/v1/classes", token
			checkCodeAndData(t, tt, do(tt))
		})
	}

	other := testutil.CreateClass(t, repo, "2B", "", "")

	// the supervisor sees the class they supervise
	rec := do(httpTest{path: "/v1/classes", token: getToken(t, teacher.Account())})
	require.Equal(t, http.StatusOK, rec.Code)
	var mine listBody[school.Class]
	unmarshal(t, rec, &mine)
	if assert.Len(t, mine.Data, 1) {
		assert.Equal(t, "1A", mine.Data[0].Name)
	}

	rec = do(httpTest{path: "/v1/classes/" + other.ID, token: getToken(t, teacher.Account())})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(httpTest{path: "/v1/classes/" + other.ID, token: token})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(httpTest{method: http.MethodDelete, path: "/v1/classes/" + other.ID, token: token})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(httpTest{path: "/v1/classes/" + other.ID, token: token})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_schoolApi_deleteClassCounts(t *testing.T) {
	testutil.PrepareDB(t, db)
	ctx := context.Background()

	admin := testutil.CreateAdmin(t, repo, "admin")
	token := getToken(t, admin.Account())
	grade := testutil.CreateGrade(t, repo, 1)
	math := testutil.CreateSubject(t, repo, "Math")
	teacher := testutil.CreateTeacher(t, repo, "teacher", "9876543210", math.ID)
	parent := testutil.CreateParent(t, repo, "parent", "9876543211")
	class := testutil.CreateClass(t, repo, "1A", teacher.ID, grade.ID)
	other := testutil.CreateClass(t, repo, "1B", "", grade.ID)

	days := []schedule.Day{schedule.Monday, schedule.Tuesday, schedule.Wednesday}
	lessonIDs := make([]string, 0, len(days))
	for i, day := range days {
		l := testutil.CreateLesson(t, repo, fmt.Sprintf("Lesson %d", i), day,
			schedule.NewClock(8, 0, 0), schedule.NewClock(9, 0, 0), math.ID, class.ID, teacher.ID)
		lessonIDs = append(lessonIDs, l.ID)
	}
	testutil.CreateLesson(t, repo, "Elsewhere", schedule.Thursday,
		schedule.NewClock(8, 0, 0), schedule.NewClock(9, 0, 0), math.ID, other.ID, teacher.ID)

	studentIDs := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		s := testutil.CreateStudent(t, repo, fmt.Sprintf("student%d", i), parent.ID, class.ID, grade.ID)
		studentIDs = append(studentIDs, s.ID)
	}
	testutil.CreateStudent(t, repo, "outsider", parent.ID, other.ID, grade.ID)

	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	eventIDs := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		e := testutil.CreateEvent(t, repo, fmt.Sprintf("Event %d", i), class.ID, start.Add(time.Duration(i)*2*time.Hour))
		eventIDs = append(eventIDs, e.ID)
	}
	testutil.CreateEvent(t, repo, "Assembly", "", start.Add(24*time.Hour))

	// rows deleted beforehand are not counted again
	rec := do(httpTest{method: http.MethodDelete, path: "/v1/lessons/" + lessonIDs[2], token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(httpTest{method: http.MethodDelete, path: "/v1/students/" + studentIDs[3], token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(httpTest{method: http.MethodDelete, path: "/v1/events/" + eventIDs[2], token: token})
	require.Equal(t, http.StatusNoContent, rec.Code)

	capacity, enrolled, err := repo.ClassSeats(ctx, class.ID, studentIDs[0])
	require.NoError(t, err)
	assert.Equal(t, 30, capacity)
	assert.EqualValues(t, 2, enrolled)

	rec = do(httpTest{method: http.MethodDelete, path: "/v1/classes/" + class.ID, token: token})
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: []byte(`{"lessons_affected": 2, "students_affected": 3, "events_affected": 2, "announcements_affected": 0}`),
	}, rec)

	// the other class and the global event are untouched
	var events listBody[school.Event]
	rec = do(httpTest{path: "/v1/events", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshal(t, rec, &events)
	if assert.Len(t, events.Data, 1) {
		assert.Equal(t, "Assembly", events.Data[0].Title)
	}
	_, enrolled, err = repo.ClassSeats(ctx, other.ID, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, enrolled)
}

func Test_schoolApi_events(t *testing.T) {
	testutil.PrepareDB(t, db)

	admin := testutil.CreateAdmin(t, repo, "admin")
	token := getToken(t, admin.Account())
	class := testutil.CreateClass(t, repo, "1A", "", "")

	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)
	event := func(title string, from, to time.Time, classID string) []byte {
		return marchallObj(t, school.SaveEvent{Title: title, Description: "desc", StartTime: from, EndTime: to, ClassID: classID})
	}

	rec := do(httpTest{method: http.MethodPost, path: "/v1/events", token: token, body: event("Sports day", start, start.Add(2*time.Hour), class.ID)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sports school.Event
	unmarshal(t, rec, &sports)

	tests := []httpTest{
		{
			name: "end before start", body: event("Backwards", start, start.Add(-time.Hour), ""),
			wantCode: http.StatusBadRequest, wantData: []byte(`{"end_time": "start_time must be before end_time"}`),
		},
		{
			name: "overlap same class", body: event("Science fair", start.Add(time.Hour), start.Add(3*time.Hour), class.ID),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: `event time overlaps with existing event "Sports day"`}),
		},
		{name: "back to back", body: event("Assembly", start.Add(2*time.Hour), start.Add(3*time.Hour), class.ID), wantCode: http.StatusCreated},
		{name: "unknown class", body: event("Trip", start, start.Add(time.Hour), "7f3b1c52-3c1c-4bd1-9e43-1d0a8f4bb0f0"), wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path, tt.token = http.MethodPost, "/v1/events", token
			checkCodeAndData(t, tt, do(tt))
		})
	}

	rec = do(httpTest{method: http.MethodDelete, path: "/v1/events/" + sports.ID, token: token})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// the slot is free again
	rec = do(httpTest{method: http.MethodPost, path: "/v1/events", token: token, body: event("Science fair", start.Add(time.Hour), start.Add(2*time.Hour), class.ID)})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}
