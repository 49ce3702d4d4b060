package pca9685

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"
)

const (
	DefaultAddr = 0x40

	RegMode1 = 0x00
	RegMode2 = 0x01

	// Each PWM output has two 16-bit (low byte first) registers.
	// First register is the on time, second is the off time.
	RegLEDBase = 0x06

	RegPreScale = 0xfe // Pre-scaler for PWM frequency.

	NumChannels = 16

	PWMMax = 4095

	oscillatorHz = 25000000

	// Fastest the chip can go; plenty for the H-bridge inputs.
	DefaultFrequencyHz = 1500
)

type Interface interface {
	Configure(frequencyHz float64) error
	SetPWM(port int, value float64) error
	Close() error
}

type port interface {
	ReadReg(reg byte, buf []byte) error
	WriteReg(reg byte, buf []byte) (err error)
	Close() error
}

type PCA9685 struct {
	dev port
}

func New(deviceFile string, addr int) (Interface, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "opening PCA9685 at 0x%x", addr)
	}
	return &PCA9685{
		dev: dev,
	}, nil
}

// PreScale calculates the pre-scaler register value for the given output frequency.
func PreScale(frequencyHz float64) byte {
	v := math.Round(oscillatorHz/(PWMMax+1)/frequencyHz) - 1
	if v < 3 {
		v = 3
	} else if v > 255 {
		v = 255
	}
	return byte(v)
}

func (p *PCA9685) Configure(frequencyHz float64) (err error) {
	// Put device to sleep; the pre-scaler can only be written while asleep.
	err = p.dev.WriteReg(RegMode1, []byte{0x11})
	if err != nil {
		return
	}
	err = p.dev.WriteReg(RegPreScale, []byte{PreScale(frequencyHz)})
	if err != nil {
		return
	}
	// Trigger a reset
	err = p.dev.WriteReg(RegMode1, []byte{0x01})
	if err != nil {
		return
	}
	// Required delay after reset.
	time.Sleep(1 * time.Millisecond)
	// Enable, with register auto-increment.
	err = p.dev.WriteReg(RegMode1, []byte{0xa1})
	return
}

// SetPWM sets the duty cycle of one output, 0..1.
func (p *PCA9685) SetPWM(port int, value float64) error {
	if port < 0 || port >= NumChannels {
		return errors.Errorf("PWM port out of range: %d", port)
	}
	return p.dev.WriteReg(byte(RegLEDBase+port*4), ledRegisters(value))
}

func ledRegisters(value float64) []byte {
	if value <= 0 {
		// Full off bit.
		return []byte{0, 0, 0, 0x10}
	}
	if value >= 1 {
		// Full on bit.
		return []byte{0, 0x10, 0, 0}
	}
	pwmValue := uint16(PWMMax * value)
	return []byte{0, 0, byte(pwmValue & 0xff), byte(pwmValue >> 8)}
}

func (p *PCA9685) Close() error {
	return p.dev.Close()
}
