package school

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/schedule"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

type fakeTx struct{}

func (fakeTx) Transact(_ context.Context, fn func(tx core.DBExecutor) error) error { return fn(nil) }

type fakeRepo struct {
	Repository

	classes map[string]Class
	events  []Event
	deleted map[string]ClassDeleteResult
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		classes: map[string]Class{
			"c1": {ID: "c1", Name: "1-A", Capacity: 30},
			"c2": {ID: "c2", Name: "1-B", Capacity: 30},
		},
		deleted: make(map[string]ClassDeleteResult),
	}
}

func (r *fakeRepo) GetClass(_ context.Context, _ user.Scope, id string, _ ...core.DBExecutor) (Class, error) {
	if c, ok := r.classes[id]; ok && !c.IsDelete {
		return c, nil
	}
	return Class{}, ErrClassNotFound
}

// OverlappingEvents hands every stored event back, leaving the filtering to the service.
func (r *fakeRepo) OverlappingEvents(context.Context, null.String, schedule.Interval, string, ...core.DBExecutor) ([]Event, error) {
	return r.events, nil
}

func (r *fakeRepo) GetEvent(_ context.Context, id string, _ ...core.DBExecutor) (Event, error) {
	for _, e := range r.events {
		if e.ID == id {
			return e, nil
		}
	}
	return Event{}, ErrEventNotFound
}

func (r *fakeRepo) CreateEvent(_ context.Context, e Event, _ ...core.DBExecutor) (Event, error) {
	r.events = append(r.events, e)
	return e, nil
}

func (r *fakeRepo) UpdateEvent(_ context.Context, e Event, _ ...core.DBExecutor) (Event, error) {
	for i := range r.events {
		if r.events[i].ID == e.ID {
			r.events[i] = e
		}
	}
	return e, nil
}

func (r *fakeRepo) DeleteClass(_ context.Context, id string, _ ...core.DBExecutor) (ClassDeleteResult, error) {
	c := r.classes[id]
	c.IsDelete = true
	r.classes[id] = c
	res := ClassDeleteResult{LessonsAffected: 4, StudentsAffected: 25, EventsAffected: 1}
	r.deleted[id] = res
	return res, nil
}

type countingMetrics struct {
	conflicts map[string]int
}

func (m *countingMetrics) SchedulingConflict(kind string) { m.conflicts[kind]++ }
func (m *countingMetrics) AttendanceWritten(int, int)     {}

func day(h int) time.Time {
	return time.Date(2030, time.March, 4, h, 0, 0, 0, time.UTC)
}

func TestService_CreateEvent(t *testing.T) {
	repo := newFakeRepo()
	metrics := &countingMetrics{conflicts: make(map[string]int)}
	svc := NewService(fakeTx{}, repo, nil, Deps{Metrics: metrics})
	ctx := context.Background()

	repo.events = []Event{
		{ID: "e1", Title: "Sports Day", StartTime: day(9), EndTime: day(12)}, // global
		{ID: "e2", Title: "Science Fair", StartTime: day(13), EndTime: day(15), ClassID: null.StringFrom("c1")},
		{ID: "e3", Title: "Old Party", StartTime: day(16), EndTime: day(18), ClassID: null.StringFrom("c1"), IsDelete: true},
	}

	tests := []struct {
		name        string
		data        SaveEvent
		wantErr     bool
		wantInError string
	}{
		{
			name:    "end before start",
			data:    SaveEvent{Title: "Bad", StartTime: day(11), EndTime: day(10)},
			wantErr: true,
		},
		{
			name:        "class event vs global event",
			data:        SaveEvent{Title: "Quiz", StartTime: day(10), EndTime: day(11), ClassID: "c2"},
			wantErr:     true,
			wantInError: "Sports Day",
		},
		{
			name:        "global event vs class event",
			data:        SaveEvent{Title: "Assembly", StartTime: day(14), EndTime: day(16)},
			wantErr:     true,
			wantInError: "Science Fair",
		},
		{
			name: "other class does not conflict",
			data: SaveEvent{Title: "Debate", StartTime: day(13), EndTime: day(14), ClassID: "c2"},
		},
		{
			name: "touching endpoints",
			data: SaveEvent{Title: "Lunch", StartTime: day(12), EndTime: day(13), ClassID: "c1"},
		},
		{
			name: "deleted events are ignored",
			data: SaveEvent{Title: "New Party", StartTime: day(16), EndTime: day(18), ClassID: "c1"},
		},
		{
			name:    "unknown class",
			data:    SaveEvent{Title: "Ghost", StartTime: day(19), EndTime: day(20), ClassID: "c9"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateEvent(ctx, tt.data)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantInError != "" {
				assert.True(t, strings.Contains(err.Error(), tt.wantInError), "error %q should name %q", err.Error(), tt.wantInError)
			}
		})
	}
	assert.Equal(t, 2, metrics.conflicts["event"])

	_, err := svc.CreateEvent(ctx, SaveEvent{Title: "Ghost", StartTime: day(19), EndTime: day(20), ClassID: "c9"})
	assert.True(t, core.IsNotFound(err))
}

func TestService_UpdateEvent_excludesSelf(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(fakeTx{}, repo, nil)
	ctx := context.Background()

	repo.events = []Event{{ID: "e1", Title: "Sports Day", StartTime: day(9), EndTime: day(12)}}

	e, err := svc.UpdateEvent(ctx, "e1", SaveEvent{Title: "Sports Day", Description: "longer", StartTime: day(9), EndTime: day(13)})
	require.NoError(t, err)
	assert.Equal(t, day(13), e.EndTime)

	_, err = svc.UpdateEvent(ctx, "nope", SaveEvent{Title: "x", StartTime: day(9), EndTime: day(10)})
	assert.Equal(t, ErrEventNotFound, err)
}

func TestService_DeleteClass(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(fakeTx{}, repo, nil)
	ctx := context.Background()

	res, err := svc.DeleteClass(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, ClassDeleteResult{LessonsAffected: 4, StudentsAffected: 25, EventsAffected: 1}, res)

	// a second delete finds nothing left to delete
	_, err = svc.DeleteClass(ctx, "c1")
	assert.Equal(t, ErrClassNotFound, err)
}

func TestSharesConflictScope(t *testing.T) {
	global := Event{ID: "g"}
	a := Event{ID: "a", ClassID: null.StringFrom("c1")}
	b := Event{ID: "b", ClassID: null.StringFrom("c2")}

	assert.True(t, sharesConflictScope(global, a))
	assert.True(t, sharesConflictScope(b, global))
	assert.True(t, sharesConflictScope(a, a))
	assert.False(t, sharesConflictScope(a, b))
}
