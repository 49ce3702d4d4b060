package mma845x

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

type fakePort struct {
	regs [256]byte
}

func (f *fakePort) ReadReg(reg byte, buf []byte) error {
	copy(buf, f.regs[int(reg):])
	return nil
}

func (f *fakePort) WriteReg(reg byte, buf []byte) error {
	copy(f.regs[int(reg):], buf)
	return nil
}

func (f *fakePort) Close() error {
	return nil
}

func newFake(t *testing.T) (*MMA845x, *fakePort) {
	f := &fakePort{}
	f.regs[RegWhoAmI] = WhoAmIMMA8452
	m, err := newWithPort(f, DefaultAddr)
	if err != nil {
		t.Fatal(err)
	}
	return m, f
}

func TestWrongWhoAmI(t *testing.T) {
	f := &fakePort{}
	f.regs[RegWhoAmI] = 0x33
	_, err := newWithPort(f, DefaultAddr)
	if errors.Cause(err) != ErrNoDevice {
		t.Fatalf("expected ErrNoDevice, got %v", err)
	}
}

func TestToBits(t *testing.T) {
	expectBits(t, 0x00, 0x00, 0)
	expectBits(t, 0x7f, 0xff, 32767)
	expectBits(t, 0xff, 0xff, -1)
	expectBits(t, 0x80, 0x00, -32768)
	expectBits(t, 0x40, 0x00, 16384)
}

func expectBits(t *testing.T, msb, lsb byte, expected int16) {
	t.Helper()
	if b := ToBits(msb, lsb); b != expected {
		t.Errorf("ToBits(0x%02x, 0x%02x) = %d, expected %d", msb, lsb, b, expected)
	}
}

func TestReadAccels(t *testing.T) {
	m, f := newFake(t)
	// X = +1g, Y = -1g, Z = 0 on the 2g range.
	copy(f.regs[RegOutXMSB:], []byte{0x40, 0x00, 0xc0, 0x00, 0x00, 0x00})

	v, err := m.ReadAccels()
	if err != nil {
		t.Fatal(err)
	}
	expectClose(t, "x", v.X, 1)
	expectClose(t, "y", v.Y, -1)
	expectClose(t, "z", v.Z, 0)

	ax, err := m.ReadAX()
	if err != nil {
		t.Fatal(err)
	}
	expectClose(t, "ax", ax, 1)
}

func TestSetRangeWhileActive(t *testing.T) {
	m, f := newFake(t)
	if err := m.Active(); err != nil {
		t.Fatal(err)
	}
	if err := m.SetRange(Range8g); err != nil {
		t.Fatal(err)
	}
	if f.regs[RegXYZDataCfg] != byte(Range8g) {
		t.Fatalf("expected range register %d, got %d", Range8g, f.regs[RegXYZDataCfg])
	}
	if f.regs[RegCtrl1]&0x01 == 0 {
		t.Fatal("expected device to be re-activated")
	}

	copy(f.regs[RegOutXMSB:], []byte{0x40, 0x00})
	ax, _ := m.ReadAX()
	expectClose(t, "ax at 8g", ax, 4)

	if err := m.SetRange(Range(7)); err == nil {
		t.Fatal("expected error for invalid range")
	}
}

func TestAlongAxis(t *testing.T) {
	a := r3.Vec{X: 0.1, Y: -0.2, Z: 1}
	expectClose(t, "x axis", AlongAxis(a, r3.Vec{X: 1}), 0.1)
	expectClose(t, "-y axis", AlongAxis(a, r3.Vec{Y: -2}), 0.2)
	expectClose(t, "zero axis", AlongAxis(a, r3.Vec{}), 0)
}

func expectClose(t *testing.T, what string, actual, expected float64) {
	t.Helper()
	if math.Abs(actual-expected) > 0.001 {
		t.Errorf("%s: expected %.4f, got %.4f", what, expected, actual)
	}
}
