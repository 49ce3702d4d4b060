// Package ads1015 reads single-ended voltages from a TI ADS1015 12-bit ADC.
package ads1015

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"
)

const (
	DefaultAddr = 0x48

	RegConversion = 0x00
	RegConfig     = 0x01

	configOSStart    = 0x8000
	configMuxSingle0 = 0x4000 // AIN0 vs GND; channels follow in steps of 0x1000.
	configPGA4V096   = 0x0200
	configModeSingle = 0x0100
	configDR1600     = 0x0080
	configCompDis    = 0x0003

	// Volts per LSB at the +/-4.096V gain.
	LSB = 0.002

	conversionTime = 700 * time.Microsecond
	maxPolls       = 5
)

var ErrConversionTimeout = errors.New("ADS1015 conversion did not complete")

type Interface interface {
	// ReadVolts performs one single-shot conversion on a channel, 0..3.
	ReadVolts(channel int) (float64, error)
	Close() error
}

type port interface {
	ReadReg(reg byte, buf []byte) error
	WriteReg(reg byte, buf []byte) (err error)
	Close() error
}

type ADS1015 struct {
	dev   port
	sleep func(time.Duration)
}

func New(deviceFile string, addr int) (Interface, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "opening ADS1015 at 0x%x", addr)
	}
	return &ADS1015{
		dev:   dev,
		sleep: time.Sleep,
	}, nil
}

// ConfigWord returns the config register value that starts a single conversion on channel.
func ConfigWord(channel int) uint16 {
	return configOSStart |
		configMuxSingle0 | uint16(channel&0x3)<<12 |
		configPGA4V096 |
		configModeSingle |
		configDR1600 |
		configCompDis
}

func (a *ADS1015) ReadVolts(channel int) (float64, error) {
	if channel < 0 || channel > 3 {
		return 0, errors.Errorf("ADS1015 channel out of range: %d", channel)
	}
	cfg := ConfigWord(channel)
	if err := a.dev.WriteReg(RegConfig, []byte{byte(cfg >> 8), byte(cfg)}); err != nil {
		return 0, errors.Wrap(err, "starting conversion")
	}

	done := false
	for i := 0; i < maxPolls && !done; i++ {
		a.sleep(conversionTime)
		status, err := a.read16(RegConfig)
		if err != nil {
			return 0, errors.Wrap(err, "polling conversion")
		}
		done = status&configOSStart != 0
	}
	if !done {
		return 0, ErrConversionTimeout
	}

	raw, err := a.read16(RegConversion)
	if err != nil {
		return 0, errors.Wrap(err, "reading conversion")
	}
	return float64(CountsFromRaw(raw)) * LSB, nil
}

// CountsFromRaw converts the left-justified conversion register to a signed 12-bit count.
func CountsFromRaw(raw uint16) int16 {
	return int16(raw) >> 4
}

func (a *ADS1015) read16(reg byte) (uint16, error) {
	var buf [2]byte
	err := a.dev.ReadReg(reg, buf[:])
	return uint16(buf[0])<<8 | uint16(buf[1]), err
}

func (a *ADS1015) Close() error {
	return a.dev.Close()
}
