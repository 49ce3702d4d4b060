// Package robot wires the sumo robot together: the shares and edge queue, every task, and the
// scheduler that runs them.
package robot

import (
	"context"
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/tigerbot-team/sumobot/pkg/brain"
	"github.com/tigerbot-team/sumobot/pkg/config"
	"github.com/tigerbot-team/sumobot/pkg/cotask"
	"github.com/tigerbot-team/sumobot/pkg/hardware"
	"github.com/tigerbot-team/sumobot/pkg/motortask"
	"github.com/tigerbot-team/sumobot/pkg/necdecoder"
	"github.com/tigerbot-team/sumobot/pkg/screen"
	"github.com/tigerbot-team/sumobot/pkg/sensortasks"
	"github.com/tigerbot-team/sumobot/pkg/sound"
	"github.com/tigerbot-team/sumobot/pkg/sumo"
	"github.com/tigerbot-team/sumobot/pkg/taskshare"
)

// Task names, in the scheduler's table.
const (
	TaskDecoder    = "decoder"
	TaskBrain      = "brain"
	TaskMotorLeft  = "motor_l"
	TaskMotorRight = "motor_r"
	TaskEdge       = "edge"
	TaskUltrasonic = "ultrasonic"
	TaskAccel      = "accel"
	TaskDisplay    = "display"
	TaskSound      = "sound"
)

type Robot struct {
	cfg   config.Config
	hw    hardware.Interface
	sched *cotask.Scheduler

	// Only the edge queue is written from outside the scheduler goroutine.
	Edges   *taskshare.Queue[uint32]
	Command *taskshare.Share[sumo.Command]
	RangeCM *taskshare.Share[float64]
	Edge    *taskshare.Share[bool]
	AccelG  *taskshare.Share[float64]
	Left    *taskshare.Share[sumo.Direction]
	Right   *taskshare.Share[sumo.Direction]

	decoder        *necdecoder.Decoder
	brain          *brain.Brain
	motorL, motorR *motortask.Task
	display        *screen.Task

	schedOpts []cotask.Option
	play      func(path string) bool
}

type Option func(*Robot)

func WithSchedulerOptions(opts ...cotask.Option) Option {
	return func(r *Robot) {
		r.schedOpts = append(r.schedOpts, opts...)
	}
}

// WithSoundCues enables the start/stop cues, played through play.
func WithSoundCues(play func(path string) bool) Option {
	return func(r *Robot) {
		r.play = play
	}
}

func New(cfg config.Config, hw hardware.Interface, opts ...Option) *Robot {
	r := &Robot{
		cfg: cfg,
		hw:  hw,

		Edges:   taskshare.NewQueue[uint32]("ir_edges", cfg.EdgeQueueCapacity, true, false),
		Command: taskshare.NewShare("command", false, sumo.CommandStop),
		RangeCM: taskshare.NewShare[float64]("range_cm", false, sumo.InitialRangeCM),
		Edge:    taskshare.NewShare("edge", false, false),
		AccelG:  taskshare.NewShare[float64]("accel_g", false, 0),
		Left:    taskshare.NewShare("direction_l", false, sumo.Stop),
		Right:   taskshare.NewShare("direction_r", false, sumo.Stop),
	}
	for _, o := range opts {
		o(r)
	}
	r.sched = cotask.New(r.schedOpts...)

	r.decoder = necdecoder.New(r.Edges, r.Command, cfg.IRTiming, cfg.StartCode)
	r.brain = brain.New(
		brain.Inputs{Command: r.Command, Edge: r.Edge, RangeCM: r.RangeCM, AccelG: r.AccelG},
		brain.Outputs{Left: r.Left, Right: r.Right},
		cfg.Thresholds,
	)
	r.motorL = &motortask.Task{
		Name:      "left motor",
		Direction: r.Left,
		Motor:     hw.LeftMotor(),
		Ctrl:      motortask.NewController(cfg.Motors.Gain, cfg.Motors.SetPoint, cfg.Motors.Magnitude),
	}
	r.motorR = &motortask.Task{
		Name:      "right motor",
		Direction: r.Right,
		Motor:     hw.RightMotor(),
		Ctrl:      motortask.NewController(cfg.Motors.Gain, cfg.Motors.SetPoint, cfg.Motors.Magnitude),
		Mirrored:  true,
	}

	t := cfg.Tasks
	r.register(TaskDecoder, t.Decoder, r.decoder)
	r.register(TaskBrain, t.Brain, r.brain)
	r.register(TaskMotorLeft, t.MotorLeft, r.motorL)
	r.register(TaskMotorRight, t.MotorRight, r.motorR)
	r.register(TaskEdge, t.Edge, &sensortasks.Edge{Sensor: hw, Out: r.Edge})
	r.register(TaskUltrasonic, t.Ultrasonic, &sensortasks.Range{Sensor: hw, Out: r.RangeCM})
	r.register(TaskAccel, t.Accel, &sensortasks.Accel{Sensor: hw, Out: r.AccelG})
	if cfg.Screen != "" {
		r.display = &screen.Task{Device: cfg.Screen, Status: r.Status}
		r.register(TaskDisplay, t.Display, r.display)
	}
	if r.play != nil {
		r.register(TaskSound, t.Sound, &sound.CueTask{
			Command: r.Command,
			Sounds: map[sumo.Command]string{
				sumo.CommandStart: cfg.Sounds.Start,
				sumo.CommandStop:  cfg.Sounds.Stop,
			},
			Play: r.play,
		})
	}
	return r
}

func (r *Robot) register(name string, tc config.Task, task cotask.Task) {
	r.sched.Register(name, tc.Priority, tc.Period, task)
}

func (r *Robot) Scheduler() *cotask.Scheduler {
	return r.sched
}

// IREdge is the edge capture callback.  It only queues the timestamp; when the queue is full
// the edge is dropped and counted by the queue.
func (r *Robot) IREdge(ts uint32) {
	_ = r.Edges.Put(ts)
}

// Run starts edge capture and runs the scheduler until ctx is done, then stops both wheels.
func (r *Robot) Run(ctx context.Context) error {
	if err := r.hw.StartEdgeCapture(ctx, r.IREdge); err != nil {
		return errors.Wrap(err, "starting IR edge capture")
	}
	r.sched.Run(ctx)

	r.stopMotors()
	if r.display != nil {
		r.display.Close()
	}
	fmt.Print(r.sched)
	fmt.Println(r.decoder)
	if n := r.Edges.Dropped(); n > 0 {
		fmt.Printf("IR: %d edges dropped on a full queue\n", n)
	}
	return nil
}

func (r *Robot) stopMotors() {
	r.Left.Put(sumo.Stop)
	r.Right.Put(sumo.Stop)
	for _, m := range []*motortask.Task{r.motorL, r.motorR} {
		if err := m.Step(); err != nil {
			fmt.Println("Failed to stop motor:", err)
		}
	}
}

// Status snapshots the shares for the display.  Call it from the scheduler goroutine.
func (r *Robot) Status() screen.Status {
	v, err := r.hw.BatteryVoltage()
	if err != nil {
		v = 0
	}
	a, err := r.hw.BatteryCurrent()
	if err != nil {
		a = math.NaN()
	}
	return screen.Status{
		Command:   r.Command.Get(),
		Left:      r.Left.Get(),
		Right:     r.Right.Get(),
		RangeCM:   r.RangeCM.Get(),
		Edge:      r.Edge.Get(),
		AccelG:    r.AccelG.Get(),
		BatteryV:  v,
		BatteryA:  a,
		IRFrames:  r.decoder.Stats().Frames,
		EdgeDrops: r.Edges.Dropped(),
	}
}
