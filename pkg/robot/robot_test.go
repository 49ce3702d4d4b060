package robot

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/tigerbot-team/sumobot/pkg/config"
	"github.com/tigerbot-team/sumobot/pkg/cotask"
	"github.com/tigerbot-team/sumobot/pkg/hardware"
	"github.com/tigerbot-team/sumobot/pkg/motor"
	"github.com/tigerbot-team/sumobot/pkg/necdecoder"
	"github.com/tigerbot-team/sumobot/pkg/sumo"
)

type fakeMotor struct {
	levels []int
}

func (m *fakeMotor) SetDutyCycle(level int) error {
	m.levels = append(m.levels, level)
	return nil
}

func (m *fakeMotor) last() int {
	if len(m.levels) == 0 {
		return 0
	}
	return m.levels[len(m.levels)-1]
}

type fakeHardware struct {
	rangeCM  float64
	edge     bool
	accelG   float64
	accelErr error

	left, right fakeMotor
	onEdge      func(uint32)
}

func (h *fakeHardware) ReadRange() (float64, error) {
	return h.rangeCM, nil
}

func (h *fakeHardware) ReadEdge() (bool, error) {
	return h.edge, nil
}

func (h *fakeHardware) ReadAccelAxis() (float64, error) {
	return h.accelG, h.accelErr
}

func (h *fakeHardware) LeftMotor() motor.Interface {
	return &h.left
}

func (h *fakeHardware) RightMotor() motor.Interface {
	return &h.right
}

func (h *fakeHardware) BatteryVoltage() (float64, error) {
	return 8.0, nil
}

func (h *fakeHardware) BatteryCurrent() (float64, error) {
	return 0, hardware.ErrNoPowerMonitor
}

func (h *fakeHardware) Shutdown() {}

func (h *fakeHardware) StartEdgeCapture(ctx context.Context, onEdge func(uint32)) error {
	h.onEdge = onEdge
	return nil
}

type harness struct {
	t     *testing.T
	hw    *fakeHardware
	robot *Robot
	now   time.Time
	logs  []string
}

func newHarness(t *testing.T, hw *fakeHardware) *harness {
	h := &harness{t: t, hw: hw, now: time.Unix(1000, 0)}
	cfg := config.Default()
	cfg.Screen = ""
	h.robot = New(cfg, hw, WithSchedulerOptions(
		cotask.WithClock(func() time.Time { return h.now }),
		cotask.WithLogger(func(format string, args ...interface{}) {
			h.logs = append(h.logs, fmt.Sprintf(format, args...))
		}),
	))
	return h
}

// advance runs one scheduler pass per simulated millisecond.
func (h *harness) advance(d time.Duration) {
	for end := h.now.Add(d); h.now.Before(end); h.now = h.now.Add(time.Millisecond) {
		h.robot.Scheduler().RunOnce()
	}
}

func (h *harness) press(command byte, start uint32) {
	for _, ts := range necdecoder.FrameEdges(start, 0x00, command) {
		h.robot.IREdge(ts)
	}
}

func TestDecoderRunsBeforeMotors(t *testing.T) {
	h := newHarness(t, &fakeHardware{rangeCM: sumo.InitialRangeCM})
	pos := map[string]int{}
	for i, name := range h.robot.Scheduler().Order() {
		pos[name] = i
	}
	if pos[TaskDecoder] > pos[TaskMotorLeft] || pos[TaskDecoder] > pos[TaskMotorRight] {
		t.Fatalf("decoder must run before both motor tasks: %v", h.robot.Scheduler().Order())
	}
	if _, ok := pos[TaskDisplay]; ok {
		t.Fatal("display should not be registered without a screen")
	}
	if _, ok := pos[TaskSound]; ok {
		t.Fatal("sound should not be registered without a player")
	}
}

func TestStartFrameDrivesMotors(t *testing.T) {
	hw := &fakeHardware{rangeCM: 10}
	h := newHarness(t, hw)

	h.advance(50 * time.Millisecond)
	if hw.left.last() != 0 || hw.right.last() != 0 {
		t.Fatalf("expected stopped motors before the start command, got %d/%d", hw.left.last(), hw.right.last())
	}

	h.press(necdecoder.DefaultStartCode, 50000)
	// One pair of edges per decoder period.
	h.advance(2 * time.Second)

	if c := h.robot.Command.Get(); c != sumo.CommandStart {
		t.Fatalf("expected start command, got %v", c)
	}
	// Opponent ahead: both wheels forward; the right motor is mirrored.
	if hw.left.last() != 65 || hw.right.last() != -65 {
		t.Fatalf("expected 65/-65, got %d/%d", hw.left.last(), hw.right.last())
	}

	hw.rangeCM = sumo.NoEcho
	h.advance(300 * time.Millisecond)
	if hw.left.last() != 65 || hw.right.last() != 65 {
		t.Fatalf("expected search pattern 65/65, got %d/%d", hw.left.last(), hw.right.last())
	}
}

func TestStopReachesMotorsWhileAccelFails(t *testing.T) {
	hw := &fakeHardware{rangeCM: 10, accelErr: errors.New("bus error")}
	h := newHarness(t, hw)

	h.press(necdecoder.DefaultStartCode, 50000)
	h.advance(2 * time.Second)
	if hw.left.last() != 65 {
		t.Fatalf("expected robot to start despite accel failures, got %d", hw.left.last())
	}

	h.press(1, 3000000)
	h.advance(2 * time.Second)
	if c := h.robot.Command.Get(); c != sumo.CommandStop {
		t.Fatalf("expected stop command, got %v", c)
	}
	if hw.left.last() != 0 || hw.right.last() != 0 {
		t.Fatalf("expected stopped motors, got %d/%d", hw.left.last(), hw.right.last())
	}

	failures := 0
	for _, l := range h.logs {
		if strings.Contains(l, "task accel failed") {
			failures++
		}
	}
	if failures == 0 {
		t.Fatal("expected accel failures to be logged")
	}
	for _, s := range h.robot.Scheduler().Stats() {
		if s.Name == TaskAccel && s.Failures == 0 {
			t.Fatal("expected accel failures to be counted")
		}
	}
}

func TestEdgeTriggersBackup(t *testing.T) {
	hw := &fakeHardware{rangeCM: 10}
	h := newHarness(t, hw)
	h.press(necdecoder.DefaultStartCode, 50000)
	h.advance(2 * time.Second)

	hw.edge = true
	h.advance(60 * time.Millisecond)
	hw.edge = false
	h.advance(200 * time.Millisecond)
	if hw.left.last() != -65 || hw.right.last() != 65 {
		t.Fatalf("expected both wheels backing up, got %d/%d", hw.left.last(), hw.right.last())
	}
	if !h.robot.Edge.Get() {
		t.Fatal("edge flag should stay latched while backing up")
	}
}

func TestFullQueueDropsEdges(t *testing.T) {
	h := newHarness(t, &fakeHardware{rangeCM: 10})
	for i := 0; i < 200; i++ {
		h.robot.IREdge(uint32(i))
	}
	if n := h.robot.Edges.NumWaiting(); n != 136 {
		t.Fatalf("expected a full queue of 136, got %d", n)
	}
	if d := h.robot.Edges.Dropped(); d != 64 {
		t.Fatalf("expected 64 drops, got %d", d)
	}
	if s := h.robot.Status(); s.EdgeDrops != 64 {
		t.Fatalf("expected status to report drops, got %d", s.EdgeDrops)
	}
}

func TestStatusWithoutCurrentReading(t *testing.T) {
	h := newHarness(t, &fakeHardware{rangeCM: 10})
	s := h.robot.Status()
	if s.BatteryV != 8.0 {
		t.Errorf("expected 8V, got %v", s.BatteryV)
	}
	if !math.IsNaN(s.BatteryA) {
		t.Errorf("expected unknown current, got %v", s.BatteryA)
	}
}

func TestRunStopsMotorsOnCancel(t *testing.T) {
	hw := &fakeHardware{rangeCM: 10}
	h := newHarness(t, hw)
	h.robot.Left.Put(sumo.Forward)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.robot.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if hw.onEdge == nil {
		t.Fatal("expected edge capture to be started")
	}
	if hw.left.last() != 0 || hw.right.last() != 0 {
		t.Fatalf("expected motors stopped after Run, got %d/%d", hw.left.last(), hw.right.last())
	}
}
