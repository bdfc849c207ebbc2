package core

// Metrics receives the domain counters of the services.
type Metrics interface {
	SchedulingConflict(kind string)
	AttendanceWritten(created, updated int)
}

type nopMetrics struct{}

// NopMetrics discards every counter.
var NopMetrics Metrics = nopMetrics{}

func (nopMetrics) SchedulingConflict(string)  {}
func (nopMetrics) AttendanceWritten(int, int) {}
