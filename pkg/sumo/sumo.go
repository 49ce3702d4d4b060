// Package sumo holds the values that flow between the robot's tasks.
package sumo

import (
	"fmt"
	"math"
)

// Command is the decoded remote-control command.
type Command uint8

const (
	CommandStop Command = iota
	CommandStart
)

func (c Command) String() string {
	switch c {
	case CommandStop:
		return "stop"
	case CommandStart:
		return "start"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Direction is the requested motion of one wheel.
type Direction uint8

const (
	Stop Direction = iota
	Forward
	Backward
)

func (d Direction) String() string {
	switch d {
	case Stop:
		return "stop"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(d))
	}
}

// NoEcho is the range reported when the ultrasonic ping never came back.  It is larger than
// any real distance so the robot keeps searching.
const NoEcho = math.MaxFloat64

// InitialRangeCM is the range assumed before the first ultrasonic reading: outside the ring.
const InitialRangeCM = 150
