// Package motortask turns a wheel's requested direction into a motor duty cycle.
package motortask

import (
	"github.com/pkg/errors"

	"github.com/tigerbot-team/sumobot/pkg/sumo"
	"github.com/tigerbot-team/sumobot/pkg/taskshare"
)

// DefaultMagnitude is the duty cycle, in percent, used for both forward and backward.
const DefaultMagnitude = 65

type DutySetter interface {
	SetDutyCycle(level int) error
}

// Controller maps a direction to an actuation level.
//
// Gain and set point are stored for a future closed position loop; the current output is a
// fixed magnitude per direction.
type Controller struct {
	Magnitude int

	gain     float64
	setPoint int
}

func NewController(gain float64, setPoint int, magnitude int) *Controller {
	return &Controller{
		Magnitude: magnitude,
		gain:      gain,
		setPoint:  setPoint,
	}
}

func (c *Controller) Run(dir sumo.Direction) int {
	switch dir {
	case sumo.Forward:
		return c.Magnitude
	case sumo.Backward:
		return -c.Magnitude
	default:
		return 0
	}
}

func (c *Controller) SetGain(gain float64) {
	c.gain = gain
}

func (c *Controller) Gain() float64 {
	return c.gain
}

func (c *Controller) SetSetPoint(setPoint int) {
	c.setPoint = setPoint
}

func (c *Controller) SetPoint() int {
	return c.setPoint
}

// Reset returns the controller to its zero position.
func (c *Controller) Reset() {
	c.setPoint = 0
}

// Task drives one wheel.  The duty is sent every cycle, not only when it changes, so that a
// motor driver that missed a command catches up on the next one.
type Task struct {
	Name      string
	Direction *taskshare.Share[sumo.Direction]
	Motor     DutySetter
	Ctrl      *Controller
	// Mirrored wheels are mounted facing the other way; their level is negated.
	Mirrored bool

	lastLevel int
}

func (t *Task) Step() error {
	level := t.Ctrl.Run(t.Direction.Get())
	if t.Mirrored {
		level = -level
	}
	t.lastLevel = level
	if err := t.Motor.SetDutyCycle(level); err != nil {
		return errors.Wrapf(err, "setting %s duty to %d", t.Name, level)
	}
	return nil
}

// LastLevel returns the level sent on the most recent step.
func (t *Task) LastLevel() int {
	return t.lastLevel
}
