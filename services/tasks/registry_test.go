package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recLogger struct {
	infos  []string
	errors []string
}

func (l *recLogger) Debug(string, ...interface{})       {}
func (l *recLogger) Info(msg string, _ ...interface{})  { l.infos = append(l.infos, msg) }
func (l *recLogger) Warn(string, ...interface{})        {}
func (l *recLogger) Error(msg string, _ ...interface{}) { l.errors = append(l.errors, msg) }
func (l *recLogger) Fatal(string, ...interface{})       {}

type fakePurger struct {
	n     int64
	err   error
	calls int
}

func (p *fakePurger) PurgeBlacklist(context.Context) (int64, error) {
	p.calls++
	return p.n, p.err
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(&recLogger{})
	noop := func(context.Context) error { return nil }

	require.NoError(t, r.Register("weekly", "0 1 * * MON", time.Minute, noop))
	assert.Error(t, r.Register("weekly", "0 2 * * MON", time.Minute, noop), "duplicate name")
	assert.Error(t, r.Register("broken", "not a spec", time.Minute, noop))

	r.Start()
	next, ok := r.Next("weekly")
	require.True(t, ok)
	assert.Equal(t, time.Monday, next.Weekday())
	assert.Equal(t, 1, next.Hour())

	_, ok = r.Next("broken")
	assert.False(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, r.Stop(ctx))
}

func TestRegistry_run(t *testing.T) {
	logger := &recLogger{}
	r := NewRegistry(logger)

	var gotDeadline bool
	r.run("ok", time.Minute, func(ctx context.Context) error {
		_, gotDeadline = ctx.Deadline()
		return nil
	})
	assert.True(t, gotDeadline)
	assert.Empty(t, logger.errors)

	r.run("failing", 0, func(context.Context) error { return errors.New("boom") })
	assert.Equal(t, []string{"task failing: boom"}, logger.errors)
}

func TestPurgeBlacklist(t *testing.T) {
	tests := []struct {
		name      string
		purger    *fakePurger
		wantErr   bool
		wantInfos int
	}{
		{name: "nothing to purge", purger: &fakePurger{}},
		{name: "purged", purger: &fakePurger{n: 3}, wantInfos: 1},
		{name: "failure", purger: &fakePurger{err: errors.New("db down")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &recLogger{}
			err := PurgeBlacklist(tt.purger, logger)(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, 1, tt.purger.calls)
			assert.Len(t, logger.infos, tt.wantInfos)
		})
	}
}
