package motor

import (
	"testing"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpiotest"
)

type pwmWrite struct {
	port  int
	value float64
}

type fakePWM struct {
	writes []pwmWrite
}

func (f *fakePWM) SetPWM(port int, value float64) error {
	f.writes = append(f.writes, pwmWrite{port, value})
	return nil
}

func (f *fakePWM) last(port int) float64 {
	for i := len(f.writes) - 1; i >= 0; i-- {
		if f.writes[i].port == port {
			return f.writes[i].value
		}
	}
	return -1
}

func TestNewStopsAndEnables(t *testing.T) {
	pwm := &fakePWM{}
	en := &gpiotest.Pin{N: "GPIO22"}
	d, err := New(pwm, 0, 1, en)
	if err != nil {
		t.Fatal(err)
	}
	if pwm.last(0) != 0 || pwm.last(1) != 0 {
		t.Fatalf("expected both channels off, got %v", pwm.writes)
	}
	if en.Read() != gpio.High {
		t.Fatal("expected enable pin to be driven high")
	}

	if err := d.Disable(); err != nil {
		t.Fatal(err)
	}
	if en.Read() != gpio.Low {
		t.Fatal("expected enable pin to be driven low after Disable")
	}
}

func TestSetDutyCycleDirections(t *testing.T) {
	pwm := &fakePWM{}
	d, err := New(pwm, 4, 5, nil)
	if err != nil {
		t.Fatal(err)
	}

	_ = d.SetDutyCycle(65)
	if pwm.last(4) != 0.65 || pwm.last(5) != 0 {
		t.Fatalf("forward: unexpected writes %v", pwm.writes)
	}
	// The idle side is released before the active side is driven.
	n := len(pwm.writes)
	if pwm.writes[n-2].port != 5 || pwm.writes[n-1].port != 4 {
		t.Fatalf("forward: wrong write order %v", pwm.writes[n-2:])
	}

	_ = d.SetDutyCycle(-65)
	if pwm.last(4) != 0 || pwm.last(5) != 0.65 {
		t.Fatalf("backward: unexpected writes %v", pwm.writes)
	}
	n = len(pwm.writes)
	if pwm.writes[n-2].port != 4 || pwm.writes[n-1].port != 5 {
		t.Fatalf("backward: wrong write order %v", pwm.writes[n-2:])
	}

	_ = d.SetDutyCycle(250)
	if pwm.last(4) != 1 {
		t.Fatalf("expected clamp to 100%%, got %v", pwm.last(4))
	}
	_ = d.SetDutyCycle(-250)
	if pwm.last(5) != 1 {
		t.Fatalf("expected clamp to -100%%, got %v", pwm.last(5))
	}
}
