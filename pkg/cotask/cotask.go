// Package cotask is a cooperative, run-to-completion task scheduler.
//
// All periodic work of the robot runs on the one goroutine that calls RunOnce (or Run).
// Tasks are never preempted by each other: each Step must do one bounded unit of work and
// return.  Returning from Step is the task's yield.
package cotask

import (
	"bytes"
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
)

// Task is one cooperative unit of work.
type Task interface {
	Step() error
}

// TaskFunc adapts a plain function to the Task interface.
type TaskFunc func() error

func (f TaskFunc) Step() error {
	return f()
}

const DefaultIdleSleep = 200 * time.Microsecond

type entry struct {
	name     string
	priority int
	period   time.Duration
	task     Task
	seq      int

	ran     bool
	lastRun time.Time

	runs     uint64
	failures uint64
	panics   uint64
	lastErr  error
}

// Stats is a snapshot of one task's counters.
type Stats struct {
	Name     string
	Priority int
	Period   time.Duration
	Runs     uint64
	Failures uint64
	Panics   uint64
	LastRun  time.Time
	LastErr  error
}

// Scheduler owns the task registry.
type Scheduler struct {
	tasks []*entry
	seq   int

	now       func() time.Time
	logf      func(format string, args ...interface{})
	idleSleep time.Duration
}

type Option func(*Scheduler)

// WithClock replaces time.Now; used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

func WithLogger(logf func(format string, args ...interface{})) Option {
	return func(s *Scheduler) {
		s.logf = logf
	}
}

// WithIdleSleep sets how long Run sleeps after a pass that ran nothing.  Zero busy-loops.
func WithIdleSleep(d time.Duration) Option {
	return func(s *Scheduler) {
		s.idleSleep = d
	}
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		now: time.Now,
		logf: func(format string, args ...interface{}) {
			fmt.Printf(format, args...)
		},
		idleSleep: DefaultIdleSleep,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register adds a task.  Lower priority values run first; tasks with equal priority run in
// the order they were registered.  A task runs at most once per period.
func (s *Scheduler) Register(name string, priority int, period time.Duration, t Task) {
	s.tasks = append(s.tasks, &entry{
		name:     name,
		priority: priority,
		period:   period,
		task:     t,
		seq:      s.seq,
	})
	s.seq++
	sort.SliceStable(s.tasks, func(i, j int) bool {
		if s.tasks[i].priority != s.tasks[j].priority {
			return s.tasks[i].priority < s.tasks[j].priority
		}
		return s.tasks[i].seq < s.tasks[j].seq
	})
}

// Order returns the task names in the order a pass visits them.
func (s *Scheduler) Order() []string {
	names := make([]string, len(s.tasks))
	for i, e := range s.tasks {
		names[i] = e.name
	}
	return names
}

// RunOnce makes one pass over the registry, stepping every task whose period has elapsed.
// It returns the number of tasks that were stepped.
func (s *Scheduler) RunOnce() int {
	stepped := 0
	for _, e := range s.tasks {
		now := s.now()
		if e.ran && now.Sub(e.lastRun) < e.period {
			continue
		}
		e.ran = true
		e.lastRun = now
		e.runs++
		stepped++
		if err := s.step(e); err != nil {
			e.failures++
			e.lastErr = err
			s.logf("cotask: task %s failed: %v\n", e.name, err)
		}
	}
	return stepped
}

func (s *Scheduler) step(e *entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.panics++
			err = errors.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return e.task.Step()
}

// Run calls RunOnce until ctx is cancelled.  A step that is in progress when ctx is
// cancelled always runs to completion.
func (s *Scheduler) Run(ctx context.Context) {
	s.logf("cotask: scheduler started with %d tasks\n", len(s.tasks))
	defer s.logf("cotask: scheduler stopped\n")
	for ctx.Err() == nil {
		if s.RunOnce() == 0 && s.idleSleep > 0 {
			time.Sleep(s.idleSleep)
		}
	}
}

func (s *Scheduler) Stats() []Stats {
	stats := make([]Stats, len(s.tasks))
	for i, e := range s.tasks {
		stats[i] = Stats{
			Name:     e.name,
			Priority: e.priority,
			Period:   e.period,
			Runs:     e.runs,
			Failures: e.failures,
			Panics:   e.panics,
			LastRun:  e.lastRun,
			LastErr:  e.lastErr,
		}
	}
	return stats
}

// String renders the task table, one row per task.
func (s *Scheduler) String() string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TASK\tPRI\tPERIOD\tRUNS\tFAILS\tPANICS")
	for _, st := range s.Stats() {
		fmt.Fprintf(w, "%s\t%d\t%v\t%d\t%d\t%d\n", st.Name, st.Priority, st.Period, st.Runs, st.Failures, st.Panics)
	}
	_ = w.Flush()
	return buf.String()
}
