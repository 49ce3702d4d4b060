// Package hcsr04 reads an HC-SR04 style ultrasonic ranger: a short pulse on the trigger pin
// starts a ping and the echo pin stays high for the round-trip time of the sound.
package hcsr04

import (
	"time"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"

	"github.com/tigerbot-team/sumobot/pkg/sumo"
)

const (
	triggerPulse = 10 * time.Microsecond

	// Longest echo we wait for, about 4m there and back.  Keeps a missing echo from holding
	// up the scheduler.
	DefaultTimeout = 25 * time.Millisecond

	// Microseconds for sound to travel 1cm.
	usPerCM = 29
)

type Interface interface {
	// ReadCM returns the distance to the nearest object in cm, or sumo.NoEcho.
	ReadCM() (float64, error)
}

type HCSR04 struct {
	trig    gpio.PinOut
	echo    gpio.PinIO
	timeout time.Duration
	now     func() time.Time
}

func New(trig gpio.PinOut, echo gpio.PinIO, timeout time.Duration) (*HCSR04, error) {
	if err := trig.Out(gpio.Low); err != nil {
		return nil, errors.Wrapf(err, "configuring trigger pin %s", trig)
	}
	if err := echo.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return nil, errors.Wrapf(err, "configuring echo pin %s", echo)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HCSR04{
		trig:    trig,
		echo:    echo,
		timeout: timeout,
		now:     time.Now,
	}, nil
}

// Measure pings once and returns the echo pulse width.  ok is false if no echo came back in
// time.
func (s *HCSR04) Measure() (width time.Duration, ok bool, err error) {
	if err = s.trig.Out(gpio.High); err != nil {
		return
	}
	time.Sleep(triggerPulse)
	if err = s.trig.Out(gpio.Low); err != nil {
		return
	}

	if !s.echo.WaitForEdge(s.timeout) {
		return 0, false, nil
	}
	start := s.now()
	if !s.echo.WaitForEdge(s.timeout) {
		return 0, false, nil
	}
	return s.now().Sub(start), true, nil
}

func (s *HCSR04) ReadCM() (float64, error) {
	width, ok, err := s.Measure()
	if err != nil {
		return 0, errors.Wrap(err, "triggering ultrasonic ping")
	}
	if !ok {
		return sumo.NoEcho, nil
	}
	return EchoToCM(width), nil
}

// EchoToCM converts a round-trip echo time to a one-way distance.
func EchoToCM(width time.Duration) float64 {
	us := float64(width) / float64(time.Microsecond)
	return us / 2 / usPerCM
}
