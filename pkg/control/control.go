// Package control watches the operator's console for the keypress that stops the robot.
package control

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// ReadTimeout bounds each serial read so the watcher notices cancellation.
const ReadTimeout = 100 * time.Millisecond

// WatchForStop reads r until the first byte arrives, then calls stop.  It returns when ctx is
// done, on the first byte, or when r fails; EOF does not stop the robot, so it can run with
// stdin detached.
//
// Readers that block forever (a terminal) keep the goroutine alive until the process exits;
// readers that return (0, nil) on a timeout, like a serial port, let it exit on cancellation.
func WatchForStop(ctx context.Context, r io.Reader, stop func()) {
	buf := make([]byte, 1)
	for ctx.Err() == nil {
		n, err := r.Read(buf)
		if ctx.Err() != nil {
			return
		}
		if n > 0 {
			fmt.Printf("Control: received %q, stopping\n", buf[0])
			stop()
			return
		}
		if err == io.EOF {
			fmt.Println("Control: input closed; stop with a signal instead")
			return
		}
		if err != nil {
			fmt.Println("Control: read failed:", err)
			return
		}
	}
}

// OpenSerial opens a serial console with ReadTimeout set.
func OpenSerial(device string, baud int) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
	}
	p, err := serial.Open(device, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open serial port %s", device)
	}
	if err := p.SetReadTimeout(ReadTimeout); err != nil {
		_ = p.Close()
		return nil, errors.Wrap(err, "setting serial read timeout")
	}
	return p, nil
}
