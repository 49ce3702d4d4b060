// Package sensortasks contains the periodic tasks that read one sensor each and publish the
// reading into a share for the brain.
package sensortasks

import (
	"github.com/pkg/errors"

	"github.com/tigerbot-team/sumobot/pkg/taskshare"
)

type RangeSensor interface {
	// ReadRange returns the distance in cm, or sumo.NoEcho.
	ReadRange() (float64, error)
}

type EdgeSensor interface {
	ReadEdge() (bool, error)
}

type AccelSensor interface {
	// ReadAccelAxis returns the acceleration along the robot's forward axis in g.
	ReadAccelAxis() (float64, error)
}

type Range struct {
	Sensor RangeSensor
	Out    *taskshare.Share[float64]
}

func (t *Range) Step() error {
	d, err := t.Sensor.ReadRange()
	if err != nil {
		return errors.Wrap(err, "reading ultrasonic range")
	}
	t.Out.Put(d)
	return nil
}

// Edge latches the edge flag: it only ever sets it.  The brain clears it once it has reacted.
type Edge struct {
	Sensor EdgeSensor
	Out    *taskshare.Share[bool]
}

func (t *Edge) Step() error {
	edge, err := t.Sensor.ReadEdge()
	if err != nil {
		return errors.Wrap(err, "reading optical edge sensor")
	}
	if edge {
		t.Out.Put(true)
	}
	return nil
}

type Accel struct {
	Sensor AccelSensor
	Out    *taskshare.Share[float64]
}

func (t *Accel) Step() error {
	a, err := t.Sensor.ReadAccelAxis()
	if err != nil {
		return errors.Wrap(err, "reading accelerometer")
	}
	t.Out.Put(a)
	return nil
}
