// Package motor drives one DC motor through an H-bridge.  The bridge's two inputs are PWM
// channels; driving one while holding the other low sets the direction of torque.
package motor

import (
	"fmt"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"
)

type Interface interface {
	// SetDutyCycle sets the motor effort in percent, -100..100.  Positive and negative
	// levels produce torque in opposite directions.
	SetDutyCycle(level int) error
}

type PWM interface {
	SetPWM(port int, value float64) error
}

type Driver struct {
	pwm      PWM
	chA, chB int
	enable   gpio.PinOut
}

// New creates a driver on the given PWM channels and drives the enable pin high.  The motor
// starts stopped.  enable may be nil for bridges that are hard-wired on.
func New(pwm PWM, chA, chB int, enable gpio.PinOut) (*Driver, error) {
	d := &Driver{
		pwm:    pwm,
		chA:    chA,
		chB:    chB,
		enable: enable,
	}
	if err := d.SetDutyCycle(0); err != nil {
		return nil, err
	}
	if enable != nil {
		if err := enable.Out(gpio.High); err != nil {
			return nil, errors.Wrapf(err, "enabling motor bridge on %s", enable)
		}
	}
	return d, nil
}

func (d *Driver) SetDutyCycle(level int) error {
	if level > 100 {
		level = 100
	} else if level < -100 {
		level = -100
	}
	a, b := 0.0, 0.0
	if level >= 0 {
		a = float64(level) / 100
	} else {
		b = float64(-level) / 100
	}
	// Release the idle side first so both inputs are never driven together.
	if level >= 0 {
		if err := d.pwm.SetPWM(d.chB, b); err != nil {
			return err
		}
		return d.pwm.SetPWM(d.chA, a)
	}
	if err := d.pwm.SetPWM(d.chA, a); err != nil {
		return err
	}
	return d.pwm.SetPWM(d.chB, b)
}

// Disable stops the motor and pulls the enable pin low.
func (d *Driver) Disable() error {
	err := d.SetDutyCycle(0)
	if d.enable != nil {
		if err2 := d.enable.Out(gpio.Low); err == nil {
			err = err2
		}
	}
	return err
}

func (d *Driver) String() string {
	return fmt.Sprintf("motor(ch%d/ch%d)", d.chA, d.chB)
}
