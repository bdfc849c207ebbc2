package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaimin17/Zenith-School-Backend/core/attendance"
	"github.com/Jaimin17/Zenith-School-Backend/core/schedule"
	"github.com/Jaimin17/Zenith-School-Backend/tests"
)

func Test_attendanceApi(t *testing.T) {
	testutil.PrepareDB(t, db)

	math := testutil.CreateSubject(t, repo, "Mathematics")
	teacher := testutil.CreateTeacher(t, repo, "teacher", "9876543210", math.ID)
	other := testutil.CreateTeacher(t, repo, "other", "9876543211", math.ID)
	parent := testutil.CreateParent(t, repo, "parent", "9876543212")
	class := testutil.CreateClass(t, repo, "1A", "", "")
	algebra := testutil.CreateLesson(t, repo, "Algebra", schedule.Monday,
		schedule.NewClock(8, 0, 0), schedule.NewClock(9, 0, 0), math.ID, class.ID, teacher.ID)
	alice := testutil.CreateStudent(t, repo, "alice", parent.ID, class.ID, "")
	bob := testutil.CreateStudent(t, repo, "bob", "", class.ID, "")
	outsider := testutil.CreateStudent(t, repo, "outsider", "", "", "")
	token := getToken(t, teacher.Account())

	now := time.Now().UTC()
	today := now.Format("2006-01-02")
	take := func(overwrite bool, records ...attendance.Record) []byte {
		return marchallObj(t, attendance.TakeAttendance{LessonID: algebra.ID, Date: today, Records: records, OverwriteExisting: overwrite})
	}

	tests := []httpTest{
		{
			name: "not the lesson teacher", token: getToken(t, other.Account()),
			body:     take(false, attendance.Record{StudentID: alice.ID, Present: true}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "you can only take attendance for your own lessons"}),
		},
		{name: "no records", body: take(false), wantCode: http.StatusBadRequest},
		{
			name: "future date", wantCode: http.StatusBadRequest, wantData: []byte(`{"date": "cannot take attendance for a future date"}`),
			body: marchallObj(t, attendance.TakeAttendance{
				LessonID: algebra.ID,
				Date:     now.AddDate(0, 0, 2).Format("2006-01-02"),
				Records:  []attendance.Record{{StudentID: alice.ID, Present: true}},
			}),
		},
		{
			name: "student outside the class", body: take(false, attendance.Record{StudentID: outsider.ID}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]interface{}{
				"records":             "some students do not belong to the lesson's class",
				"invalid_student_ids": []string{outsider.ID},
			}),
		},
		{
			name: "duplicates", body: take(false, attendance.Record{StudentID: alice.ID}, attendance.Record{StudentID: alice.ID}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]interface{}{
				"records":               "student ids must be unique",
				"duplicate_student_ids": []string{alice.ID},
			}),
		},
		{
			name: "partial", body: take(false, attendance.Record{StudentID: alice.ID, Present: true}),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, attendance.TakeResult{
				CreatedCount: 1, PresentCount: 1, TotalStudents: 2, Status: attendance.StatusPartial,
			}),
		},
		{
			name: "already taken", body: take(false, attendance.Record{StudentID: alice.ID, Present: false}),
			wantCode: http.StatusConflict,
		},
		{
			name: "overwrite and complete", body: take(true, attendance.Record{StudentID: alice.ID}, attendance.Record{StudentID: bob.ID, Present: true}),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, attendance.TakeResult{
				CreatedCount: 1, UpdatedCount: 1, PresentCount: 1, AbsentCount: 1, TotalStudents: 2, Status: attendance.StatusComplete,
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/v1/attendance/take"
			if tt.token == "" {
				tt.token = token
			}
			checkCodeAndData(t, tt, do(tt))
		})
	}

	// roster and status
	rec := do(httpTest{path: "/v1/attendance/roster?lesson_id=" + algebra.ID + "&date=" + today, token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var roster attendance.Roster
	unmarshal(t, rec, &roster)
	assert.Len(t, roster.Students, 2)
	assert.Equal(t, attendance.StatusComplete, roster.Status)
	for _, s := range roster.Students {
		assert.True(t, s.Present.Valid)
		assert.Equal(t, s.ID == bob.ID, s.Present.Bool)
	}

	rec = do(httpTest{path: "/v1/attendance/status?lesson_id=" + algebra.ID + "&date=bad", token: token})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(httpTest{path: "/v1/attendance/status?lesson_id=" + algebra.ID + "&date=" + today, token: token})
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, attendance.Summary{
		TotalStudents: 2, MarkedCount: 2, PresentCount: 1, AbsentCount: 1, Status: attendance.StatusComplete,
	})}, rec)

	// lessons of the week's Monday
	monday := schedule.StartOfWeek(now).Format("2006-01-02")
	rec = do(httpTest{path: "/v1/attendance/lessons?date=" + monday, token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var lessons []attendance.LessonAttendance
	unmarshal(t, rec, &lessons)
	if assert.Len(t, lessons, 1) {
		assert.Equal(t, algebra.ID, lessons[0].ID)
		assert.Equal(t, 2, lessons[0].TotalStudents)
	}
	rec = do(httpTest{path: "/v1/attendance/lessons?date=" + monday, token: getToken(t, other.Account())})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	// summaries
	summaryPath := "/v1/attendance/students/" + alice.ID + "/summary"
	rec = do(httpTest{path: summaryPath, token: getToken(t, parent.Account())})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sum attendance.StudentSummary
	unmarshal(t, rec, &sum)
	assert.Equal(t, 1, sum.Total)
	assert.Equal(t, 0, sum.Present)
	assert.Equal(t, 0.0, sum.Percentage)

	rec = do(httpTest{path: summaryPath, token: getToken(t, bob.Account())})
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "you can only view your own attendance"})}, rec)

	rec = do(httpTest{path: "/v1/attendance/students/" + bob.ID + "/summary", token: getToken(t, parent.Account())})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// the week view of a student holds their own rows only
	rec = do(httpTest{path: "/v1/attendance/week", token: getToken(t, bob.Account())})
	require.Equal(t, http.StatusOK, rec.Code)
	var week []attendance.Attendance
	unmarshal(t, rec, &week)
	if assert.Len(t, week, 1) {
		assert.Equal(t, bob.ID, week[0].StudentID)
		assert.True(t, week[0].Present)
	}
}
