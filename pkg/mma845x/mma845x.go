// Package mma845x drives MMA8451/MMA8452 accelerometers over I2C.  Only the basics are
// supported: standby/active mode, range selection and reading the three axes.
package mma845x

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	DefaultAddr = 0x1d

	RegStatus     = 0x00
	RegOutXMSB    = 0x01
	RegOutYMSB    = 0x03
	RegOutZMSB    = 0x05
	RegWhoAmI     = 0x0d
	RegXYZDataCfg = 0x0e
	RegCtrl1      = 0x2a

	WhoAmIMMA8451 = 0x1a
	WhoAmIMMA8452 = 0x2a
)

type Range byte

const (
	Range2g Range = iota
	Range4g
	Range8g
)

func (r Range) FullScaleG() float64 {
	return float64(int(2) << r)
}

var ErrNoDevice = errors.New("no MMA845x accelerometer found")

type Interface interface {
	Active() error
	Standby() error
	SetRange(r Range) error
	ReadAccels() (r3.Vec, error)
	ReadAX() (float64, error)
	Close() error
}

type port interface {
	ReadReg(reg byte, buf []byte) error
	WriteReg(reg byte, buf []byte) (err error)
	Close() error
}

type MMA845x struct {
	dev    port
	addr   int
	id     byte
	rng    Range
	rawBuf [6]byte
}

// New opens the accelerometer and checks its WHO_AM_I code.  The device is left in standby.
func New(deviceFile string, addr int) (Interface, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "opening MMA845x at 0x%x", addr)
	}
	m, err := newWithPort(dev, addr)
	if err != nil {
		_ = dev.Close()
		return nil, err
	}
	return m, nil
}

func newWithPort(dev port, addr int) (*MMA845x, error) {
	m := &MMA845x{dev: dev, addr: addr}
	var id [1]byte
	if err := dev.ReadReg(RegWhoAmI, id[:]); err != nil {
		return nil, errors.Wrap(err, "reading WHO_AM_I")
	}
	if id[0] != WhoAmIMMA8451 && id[0] != WhoAmIMMA8452 {
		return nil, errors.Wrapf(ErrNoDevice, "WHO_AM_I=0x%02x at 0x%x", id[0], addr)
	}
	m.id = id[0]
	return m, nil
}

func (m *MMA845x) Active() error {
	return m.updateCtrl1(func(v byte) byte { return v | 0x01 })
}

func (m *MMA845x) Standby() error {
	return m.updateCtrl1(func(v byte) byte { return v &^ 0x01 })
}

func (m *MMA845x) updateCtrl1(f func(byte) byte) error {
	var reg [1]byte
	if err := m.dev.ReadReg(RegCtrl1, reg[:]); err != nil {
		return errors.Wrap(err, "reading CTRL_REG1")
	}
	return m.dev.WriteReg(RegCtrl1, []byte{f(reg[0])})
}

// SetRange changes the measurement range.  The range can only be written in standby, so an
// active device is put into standby and re-activated.
func (m *MMA845x) SetRange(r Range) error {
	if r > Range8g {
		return errors.Errorf("invalid range for MMA845x: %d", r)
	}
	var reg [1]byte
	if err := m.dev.ReadReg(RegCtrl1, reg[:]); err != nil {
		return errors.Wrap(err, "reading CTRL_REG1")
	}
	active := reg[0]&0x01 != 0
	if active {
		if err := m.Standby(); err != nil {
			return err
		}
	}
	if err := m.dev.WriteReg(RegXYZDataCfg, []byte{byte(r)}); err != nil {
		return errors.Wrap(err, "writing XYZ_DATA_CFG")
	}
	m.rng = r
	if active {
		return m.Active()
	}
	return nil
}

// ReadAccels returns the acceleration on all three axes in g.
func (m *MMA845x) ReadAccels() (r3.Vec, error) {
	if err := m.dev.ReadReg(RegOutXMSB, m.rawBuf[:]); err != nil {
		return r3.Vec{}, errors.Wrap(err, "reading acceleration")
	}
	return r3.Vec{
		X: m.BitsToG(ToBits(m.rawBuf[0], m.rawBuf[1])),
		Y: m.BitsToG(ToBits(m.rawBuf[2], m.rawBuf[3])),
		Z: m.BitsToG(ToBits(m.rawBuf[4], m.rawBuf[5])),
	}, nil
}

// ReadAX returns the X acceleration only.
func (m *MMA845x) ReadAX() (float64, error) {
	var raw [2]byte
	if err := m.dev.ReadReg(RegOutXMSB, raw[:]); err != nil {
		return 0, errors.Wrap(err, "reading X acceleration")
	}
	return m.BitsToG(ToBits(raw[0], raw[1])), nil
}

// ToBits combines the MSB and LSB registers into a signed reading.
func ToBits(msb, lsb byte) int16 {
	return int16(uint16(msb)<<8 | uint16(lsb))
}

// BitsToG scales a raw reading to g for the current range, using the factory calibration.
func (m *MMA845x) BitsToG(bits int16) float64 {
	return float64(bits) * m.rng.FullScaleG() / 32767.0
}

func (m *MMA845x) Close() error {
	return m.dev.Close()
}

func (m *MMA845x) String() string {
	return fmt.Sprintf("MMA845%d: I2C address 0x%x, Range=%vg", m.id>>4, m.addr, m.rng.FullScaleG())
}

// AlongAxis projects a reading onto a unit axis of the robot, so the sensor can be mounted
// in any orientation.
func AlongAxis(accel, axis r3.Vec) float64 {
	n := r3.Norm(axis)
	if n == 0 {
		return 0
	}
	return r3.Dot(accel, r3.Scale(1/n, axis))
}
