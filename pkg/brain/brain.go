// Package brain decides which way each wheel turns from the latest sensor values.
//
// It is a priority-ordered reflex, re-evaluated every cycle: stay off the edge first, then
// look for the opponent, then dodge collisions, otherwise push forward.  The only state kept
// between cycles is the backing-up counter.
package brain

import (
	"math"

	"github.com/tigerbot-team/sumobot/pkg/sumo"
	"github.com/tigerbot-team/sumobot/pkg/taskshare"
)

type Thresholds struct {
	// Anything further than this is not an opponent.
	ProximityCM float64 `yaml:"proximity_cm"`
	// Acceleration magnitude (g) that counts as being hit.
	CollisionG float64 `yaml:"collision_g"`
	// Number of cycles spent reacting to an edge.
	BackupCycles int `yaml:"backup_cycles"`
}

var DefaultThresholds = Thresholds{
	ProximityCM:  20,
	CollisionG:   0.07,
	BackupCycles: 40,
}

// Inputs are the shares the brain reads.  Edge is also written: the brain clears it once it
// has backed away.
type Inputs struct {
	Command *taskshare.Share[sumo.Command]
	Edge    *taskshare.Share[bool]
	RangeCM *taskshare.Share[float64]
	AccelG  *taskshare.Share[float64]
}

type Outputs struct {
	Left  *taskshare.Share[sumo.Direction]
	Right *taskshare.Share[sumo.Direction]
}

type Brain struct {
	in         Inputs
	out        Outputs
	thresholds Thresholds

	backupCount int
}

func New(in Inputs, out Outputs, thresholds Thresholds) *Brain {
	if thresholds.BackupCycles < 1 {
		thresholds.BackupCycles = 1
	}
	return &Brain{
		in:          in,
		out:         out,
		thresholds:  thresholds,
		backupCount: thresholds.BackupCycles,
	}
}

func (b *Brain) Step() error {
	if b.in.Command.Get() != sumo.CommandStart {
		b.set(sumo.Stop, sumo.Stop)
		return nil
	}

	switch {
	case b.in.Edge.Get():
		if b.backupCount != 1 {
			b.set(sumo.Backward, sumo.Backward)
			b.backupCount--
		} else {
			// Done backing up.  Directions are left as they are until the next cycle.
			b.backupCount = b.thresholds.BackupCycles
			b.in.Edge.Put(false)
		}
	case b.in.RangeCM.Get() > b.thresholds.ProximityCM:
		// Nothing ahead: turn right to search.
		b.set(sumo.Forward, sumo.Backward)
	case math.Abs(b.in.AccelG.Get()) > b.thresholds.CollisionG:
		// Hit from the side: turn left.
		b.set(sumo.Backward, sumo.Forward)
	default:
		b.set(sumo.Forward, sumo.Forward)
	}
	return nil
}

func (b *Brain) set(left, right sumo.Direction) {
	b.out.Left.Put(left)
	b.out.Right.Put(right)
}

// BackupCount returns the current value of the backing-up counter.
func (b *Brain) BackupCount() int {
	return b.backupCount
}
