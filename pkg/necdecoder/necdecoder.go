// Package necdecoder reconstructs NEC-style remote control commands from the timestamps of
// the IR receiver's signal edges.
//
// Edges are consumed in pairs.  Given the previous edge t0 and the next two edges t1, t2,
// diff1 = t1-t0 is a mark and diff2 = t2-t1 the following space.  A long mark followed by a
// leader-length space starts a frame; inside a frame each pair is one bit, decoded from the
// relative width of the mark and space.
//
// A pair that fits none of those shapes means the decoder is one edge out of step, after
// noise or a lost edge.  It then slides along by a single edge, abandoning any partial frame,
// until a leader lines up again.
package necdecoder

import (
	"fmt"

	"github.com/tigerbot-team/sumobot/pkg/sumo"
	"github.com/tigerbot-team/sumobot/pkg/taskshare"
)

// FrameBits is the number of bits in one NEC frame: address, inverted address, command,
// inverted command.
const FrameBits = 32

// Timing holds the classification thresholds, in microseconds.
type Timing struct {
	LongGap   int32 `yaml:"long_gap_us"`
	LeaderMin int32 `yaml:"leader_min_us"`
	LeaderMax int32 `yaml:"leader_max_us"`
	RepeatMin int32 `yaml:"repeat_min_us"`
}

var DefaultTiming = Timing{
	LongGap:   5000,
	LeaderMin: 4000,
	LeaderMax: 5000,
	RepeatMin: 2000,
}

// DefaultStartCode is the command byte of the remote's "1" button.
const DefaultStartCode = 12

type Stats struct {
	Leaders     uint64
	Repeats     uint64
	Frames      uint64
	Aborted     uint64 // Frames abandoned part way through.
	Slips       uint64 // Single-edge realignments.
	LastCommand byte
}

type Decoder struct {
	edges   *taskshare.Queue[uint32]
	command *taskshare.Share[sumo.Command]

	timing    Timing
	startCode byte

	anchor     uint32
	haveAnchor bool

	// An edge already taken from the queue, waiting to be paired.
	next     uint32
	haveNext bool

	inFrame bool
	bits    [FrameBits]uint8
	numBits int

	stats Stats
}

func New(edges *taskshare.Queue[uint32], command *taskshare.Share[sumo.Command], timing Timing, startCode byte) *Decoder {
	return &Decoder{
		edges:     edges,
		command:   command,
		timing:    timing,
		startCode: startCode,
	}
}

// Step consumes at most three edges and never waits for more.
func (d *Decoder) Step() error {
	if !d.haveAnchor {
		t0, ok := d.edges.Get()
		if !ok {
			return nil
		}
		d.anchor, d.haveAnchor = t0, true
	}
	if !d.haveNext {
		t1, ok := d.edges.Get()
		if !ok {
			return nil
		}
		d.next, d.haveNext = t1, true
	}
	t2, ok := d.edges.Get()
	if !ok {
		return nil
	}
	t1 := d.next
	diff1 := ticksDiff(t1, d.anchor)
	diff2 := ticksDiff(t2, t1)

	if d.classify(diff1, diff2) {
		d.anchor = t2
		d.haveNext = false
	} else {
		d.stats.Slips++
		d.anchor, d.next = t1, t2
	}

	if d.inFrame && d.numBits >= FrameBits {
		d.publish()
	}
	return nil
}

// classify interprets one mark/space pair.  It returns false if the pair is not a valid
// leader, repeat or bit, in which case any frame in progress is abandoned.
func (d *Decoder) classify(diff1, diff2 int32) bool {
	tm := d.timing
	if diff1 <= 0 || diff2 <= 0 {
		d.abortFrame()
		return false
	}
	if diff1 > tm.LongGap {
		switch {
		case diff2 > tm.LeaderMin && diff2 < tm.LeaderMax:
			if d.inFrame {
				d.stats.Aborted++
			}
			d.stats.Leaders++
			d.inFrame = true
			d.numBits = 0
			return true
		case diff2 > tm.RepeatMin && diff2 < tm.LeaderMin:
			// Button held down; the previous command still stands.
			d.stats.Repeats++
			d.abortFrame()
			return true
		}
		d.abortFrame()
		return false
	}
	if !d.inFrame || diff2 > tm.LongGap {
		d.abortFrame()
		return false
	}
	if 2*diff1 > diff2 {
		d.bits[d.numBits] = 0
	} else {
		d.bits[d.numBits] = 1
	}
	d.numBits++
	return true
}

func (d *Decoder) abortFrame() {
	if d.inFrame {
		d.stats.Aborted++
	}
	d.inFrame = false
	d.numBits = 0
}

func (d *Decoder) publish() {
	cmd := CommandByte(d.bits)
	d.stats.Frames++
	d.stats.LastCommand = cmd
	if cmd == d.startCode {
		d.command.Put(sumo.CommandStart)
	} else {
		d.command.Put(sumo.CommandStop)
	}
	d.numBits = 0
	d.inFrame = false
}

// CommandByte extracts the command byte from the bits of a frame in arrival order.  Reversed,
// the frame reads inverted command, command, inverted address, address; the command is the
// second byte, most significant bit first.
func CommandByte(bits [FrameBits]uint8) byte {
	var b byte
	for i := 8; i < 16; i++ {
		b = b<<1 | bits[FrameBits-1-i]&1
	}
	return b
}

func (d *Decoder) Stats() Stats {
	return d.stats
}

func (d *Decoder) String() string {
	return fmt.Sprintf("IR: leaders=%d repeats=%d frames=%d aborted=%d slips=%d last=0x%02x",
		d.stats.Leaders, d.stats.Repeats, d.stats.Frames, d.stats.Aborted, d.stats.Slips,
		d.stats.LastCommand)
}

// ticksDiff returns a-b for a free-running microsecond counter that may have wrapped.
func ticksDiff(a, b uint32) int32 {
	return int32(a - b)
}
