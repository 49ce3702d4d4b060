package hardware

import (
	"context"

	"github.com/tigerbot-team/sumobot/pkg/motor"
)

type Interface interface {
	// Sensor reads.  Each performs one bounded device transaction.
	ReadRange() (float64, error)
	ReadEdge() (bool, error)
	ReadAccelAxis() (float64, error)

	LeftMotor() motor.Interface
	RightMotor() motor.Interface

	// StartEdgeCapture calls onEdge from a background goroutine with the microsecond
	// timestamp of every IR receiver edge, until ctx is done.
	StartEdgeCapture(ctx context.Context, onEdge func(ts uint32)) error

	BatteryVoltage() (float64, error)
	// BatteryCurrent is the current drawn from the battery in amps.
	BatteryCurrent() (float64, error)

	// Shutdown stops the motors and releases the devices.
	Shutdown()
}
