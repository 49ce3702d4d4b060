// Package ina219 reads the battery bus voltage and current from a TI INA219 power monitor.
package ina219

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"
)

const (
	DefaultAddr = 0x41

	RegConfig      = 0
	RegShuntV      = 1
	RegBusV        = 2
	RegPower       = 3
	RegCurrent     = 4
	RegCalibration = 5

	BusVoltageLSB = 0.004
)

type Interface interface {
	Configure(shuntOhms float64, maxCurrent float64) error
	ReadBusVoltage() (float64, error)
	ReadCurrent() (float64, error)
	Close() error
}

type port interface {
	ReadReg(reg byte, buf []byte) error
	WriteReg(reg byte, buf []byte) (err error)
	Close() error
}

type INA219 struct {
	currentLSB float64
	dev        port
}

func New(deviceFile string, addr int) (Interface, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "opening INA219 at 0x%x", addr)
	}
	return &INA219{
		dev: dev,
	}, nil
}

// Configure programs the calibration register so that the current register reads in units
// of maxCurrent/32768.
func (m *INA219) Configure(shuntOhms float64, maxCurrent float64) error {
	if shuntOhms <= 0 || maxCurrent <= 0 {
		return errors.Errorf("invalid INA219 calibration: shunt=%v max=%v", shuntOhms, maxCurrent)
	}
	m.currentLSB = maxCurrent / (1 << 15)
	cval := CalculateCalibrationValue(m.currentLSB, shuntOhms)
	fmt.Printf("INA219 calibration value: 0x%x\n", cval)
	return m.dev.WriteReg(RegCalibration, []byte{byte(cval >> 8), byte(cval)})
}

func (m *INA219) ReadBusVoltage() (float64, error) {
	raw, err := m.Read16(RegBusV)
	if err != nil {
		return 0, errors.Wrap(err, "reading bus voltage")
	}
	return BusVoltage(raw), nil
}

// BusVoltage converts the bus voltage register; the low three bits are status flags.
func BusVoltage(raw uint16) float64 {
	return float64(raw>>3) * BusVoltageLSB
}

// ReadCurrent returns amps; negative while charging.
func (m *INA219) ReadCurrent() (float64, error) {
	raw, err := m.Read16(RegCurrent)
	return float64(int16(raw)) * m.currentLSB, err
}

func (m *INA219) Read16(reg byte) (uint16, error) {
	var buf [2]byte
	err := m.dev.ReadReg(reg, buf[:])
	return uint16(buf[0])<<8 | uint16(buf[1]), err
}

func (m *INA219) Close() error {
	return m.dev.Close()
}

func CalculateCalibrationValue(currentLSB float64, shuntOhms float64) int16 {
	return int16(0.04096 / (currentLSB * shuntOhms))
}
