package hcsr04

import (
	"math"
	"testing"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpiotest"

	"github.com/tigerbot-team/sumobot/pkg/sumo"
)

func TestEchoToCM(t *testing.T) {
	expectCM(t, 1160*time.Microsecond, 20)
	expectCM(t, 580*time.Microsecond, 10)
	expectCM(t, 0, 0)
}

func expectCM(t *testing.T, width time.Duration, expected float64) {
	t.Helper()
	if cm := EchoToCM(width); math.Abs(cm-expected) > 1e-9 {
		t.Errorf("EchoToCM(%v) = %v, expected %v", width, cm, expected)
	}
}

func newTestRanger(t *testing.T, edges ...gpio.Level) *HCSR04 {
	trig := &gpiotest.Pin{N: "TRIG"}
	echo := &gpiotest.Pin{N: "ECHO", EdgesChan: make(chan gpio.Level, 4)}
	s, err := New(trig, echo, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range edges {
		echo.EdgesChan <- e
	}
	return s
}

func TestReadCM(t *testing.T) {
	s := newTestRanger(t, gpio.High, gpio.Low)
	base := time.Unix(0, 0)
	calls := 0
	s.now = func() time.Time {
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(580 * time.Microsecond)
	}

	cm, err := s.ReadCM()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(cm-10) > 1e-9 {
		t.Fatalf("expected 10cm, got %v", cm)
	}
}

func TestNoEcho(t *testing.T) {
	s := newTestRanger(t)
	cm, err := s.ReadCM()
	if err != nil {
		t.Fatal(err)
	}
	if cm != sumo.NoEcho {
		t.Fatalf("expected NoEcho, got %v", cm)
	}

	// Rising edge but the echo never ends.
	s = newTestRanger(t, gpio.High)
	cm, _ = s.ReadCM()
	if cm != sumo.NoEcho {
		t.Fatalf("expected NoEcho for unterminated pulse, got %v", cm)
	}
}
