// Package irreceiver timestamps the edges of a demodulating IR receiver on a GPIO pin.
package irreceiver

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"
)

// How often Run wakes up to check for cancellation when the remote is quiet.
const pollTimeout = 100 * time.Millisecond

type Receiver struct {
	pin   gpio.PinIO
	epoch time.Time
	now   func() time.Time
}

// New configures pin as a pulled-up input reporting both edges.  Timestamps count from now.
func New(pin gpio.PinIO) (*Receiver, error) {
	if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, errors.Wrapf(err, "configuring IR receiver pin %s", pin)
	}
	return &Receiver{
		pin:   pin,
		epoch: time.Now(),
		now:   time.Now,
	}, nil
}

// Timestamp returns microseconds since the receiver was opened.  It wraps every ~71 minutes,
// like a free-running hardware counter.
func (r *Receiver) Timestamp() uint32 {
	return uint32(r.now().Sub(r.epoch) / time.Microsecond)
}

// Run calls onEdge with the timestamp of every edge until ctx is done.  onEdge runs on
// Run's goroutine and must not block.
func (r *Receiver) Run(ctx context.Context, onEdge func(ts uint32)) {
	fmt.Println("IR: edge capture started on", r.pin)
	defer fmt.Println("IR: edge capture stopped")
	for ctx.Err() == nil {
		if !r.pin.WaitForEdge(pollTimeout) {
			continue
		}
		onEdge(r.Timestamp())
	}
}

func (r *Receiver) String() string {
	return fmt.Sprintf("irreceiver(%s)", r.pin)
}
