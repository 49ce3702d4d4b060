package pca9685

import (
	"bytes"
	"testing"
)

type fakePort struct {
	writes map[byte][]byte
}

func (f *fakePort) ReadReg(reg byte, buf []byte) error {
	copy(buf, f.writes[reg])
	return nil
}

func (f *fakePort) WriteReg(reg byte, buf []byte) error {
	if f.writes == nil {
		f.writes = map[byte][]byte{}
	}
	f.writes[reg] = append([]byte(nil), buf...)
	return nil
}

func (f *fakePort) Close() error {
	return nil
}

func TestPreScale(t *testing.T) {
	expectPreScale(t, 50, 0x79)
	expectPreScale(t, 1000, 5)
	expectPreScale(t, 1500, 3)
	// Out of range frequencies clamp to what the chip supports.
	expectPreScale(t, 100000, 3)
	expectPreScale(t, 1, 255)
}

func expectPreScale(t *testing.T, hz float64, expected byte) {
	t.Helper()
	if p := PreScale(hz); p != expected {
		t.Errorf("PreScale(%v) = %d, expected %d", hz, p, expected)
	}
}

func TestSetPWM(t *testing.T) {
	f := &fakePort{}
	p := &PCA9685{dev: f}

	if err := p.SetPWM(2, 0.5); err != nil {
		t.Fatal(err)
	}
	got := f.writes[RegLEDBase+2*4]
	if !bytes.Equal(got, []byte{0, 0, 0xff, 0x07}) {
		t.Fatalf("unexpected registers for 50%%: %x", got)
	}

	_ = p.SetPWM(3, 0)
	if got := f.writes[RegLEDBase+3*4]; !bytes.Equal(got, []byte{0, 0, 0, 0x10}) {
		t.Fatalf("expected full-off, got %x", got)
	}
	_ = p.SetPWM(3, 1.2)
	if got := f.writes[RegLEDBase+3*4]; !bytes.Equal(got, []byte{0, 0x10, 0, 0}) {
		t.Fatalf("expected full-on, got %x", got)
	}

	if err := p.SetPWM(16, 0.5); err == nil {
		t.Fatal("expected error for port 16")
	}
}

func TestConfigureWritesPreScale(t *testing.T) {
	f := &fakePort{}
	p := &PCA9685{dev: f}
	if err := p.Configure(1000); err != nil {
		t.Fatal(err)
	}
	if got := f.writes[RegPreScale]; !bytes.Equal(got, []byte{5}) {
		t.Fatalf("expected prescale 5, got %x", got)
	}
	if got := f.writes[RegMode1]; !bytes.Equal(got, []byte{0xa1}) {
		t.Fatalf("expected device enabled, got %x", got)
	}
}
