// Package tasks runs the periodic background jobs of the API.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/Jaimin17/Zenith-School-Backend/core"
)

// JobFunc is one run of a job. Its context is cancelled on timeout or when the registry stops.
type JobFunc func(ctx context.Context) error

type Registry struct {
	cron    *cron.Cron
	logger  core.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	jobs    map[string]cron.EntryID
	started bool
}

func NewRegistry(logger core.Logger) *Registry {
	cl := cronLogger{logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]cron.EntryID),
	}
}

// Register schedules fn under name on a standard 5-field cron spec.
func (r *Registry) Register(name, spec string, timeout time.Duration, fn JobFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[name]; ok {
		return errors.Errorf("task %q already registered", name)
	}
	id, err := r.cron.AddFunc(spec, func() { r.run(name, timeout, fn) })
	if err != nil {
		return errors.Wrapf(err, "scheduling task %q", name)
	}
	r.jobs[name] = id
	return nil
}

func (r *Registry) run(name string, timeout time.Duration, fn JobFunc) {
	ctx := r.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	if err := fn(ctx); err != nil {
		r.logger.Error(fmt.Sprintf("task %s: %v", name, err), err)
		return
	}
	r.logger.Debug(fmt.Sprintf("task %s done in %s", name, time.Since(start)))
}

// Next returns the next activation of a registered task.
func (r *Registry) Next(name string) (time.Time, bool) {
	r.mu.Lock()
	id, ok := r.jobs[name]
	r.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return r.cron.Entry(id).Next, true
}

func (r *Registry) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		r.cron.Start()
		r.started = true
	}
}

// Stop cancels the running jobs and waits for them to return, or for ctx to be done.
func (r *Registry) Stop(ctx context.Context) error {
	r.cancel()
	done := r.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for running tasks")
	}
}

// cronLogger reports cron's own messages through core.Logger.
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, kvMap(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, err, kvMap(keysAndValues))
}

func kvMap(kv []interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return m
}
