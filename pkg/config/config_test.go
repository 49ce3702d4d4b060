package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sumobot.yaml")
	if err := os.WriteFile(path, []byte(contents), 0666); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	d := Default()
	if cfg.EdgeQueueCapacity != 136 || cfg.StartCode != 12 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Tasks != d.Tasks {
		t.Fatalf("expected default tasks, got %+v", cfg.Tasks)
	}
	if cfg.Thresholds.ProximityCM != 20 || cfg.Thresholds.BackupCycles != 40 {
		t.Fatalf("unexpected thresholds %+v", cfg.Thresholds)
	}
}

func TestOverrides(t *testing.T) {
	path := writeFile(t, `
tasks:
  brain:
    priority: 1
    period: 50ms
thresholds:
  proximity_cm: 35
start_code: 22
hardware:
  echo_pin: GPIO25
  accel_axis: {x: 0, y: 1, z: 0}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Tasks.Brain.Period != 50*time.Millisecond {
		t.Errorf("expected brain period 50ms, got %v", cfg.Tasks.Brain.Period)
	}
	if cfg.Thresholds.ProximityCM != 35 {
		t.Errorf("expected proximity 35, got %v", cfg.Thresholds.ProximityCM)
	}
	// Unset fields of an overridden section keep their defaults.
	if cfg.Thresholds.CollisionG != 0.07 {
		t.Errorf("expected default collision threshold, got %v", cfg.Thresholds.CollisionG)
	}
	if cfg.Tasks.Decoder.Period != 30*time.Millisecond {
		t.Errorf("expected default decoder period, got %v", cfg.Tasks.Decoder.Period)
	}
	if cfg.StartCode != 22 {
		t.Errorf("expected start code 22, got %d", cfg.StartCode)
	}
	if cfg.Hardware.EchoPin != "GPIO25" || cfg.Hardware.TriggerPin != "GPIO23" {
		t.Errorf("unexpected pins %q/%q", cfg.Hardware.EchoPin, cfg.Hardware.TriggerPin)
	}
	if cfg.Hardware.AccelAxis.Y != 1 || cfg.Hardware.AccelAxis.X != 0 {
		t.Errorf("unexpected accel axis %v", cfg.Hardware.AccelAxis)
	}
}

func TestUnknownKeyRejected(t *testing.T) {
	path := writeFile(t, "thresholds:\n  proximty_cm: 35\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for misspelt key")
	}
}

func TestInvalidValueRejected(t *testing.T) {
	path := writeFile(t, "motors:\n  magnitude: 150\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for magnitude over 100")
	}
}

func TestWriteInUseRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sumobot.yaml")
	cfg := Default()
	cfg.Motors.Magnitude = 80
	if err := WriteInUse(cfg, path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(InUsePath(path))
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Motors.Magnitude != 80 {
		t.Fatalf("expected magnitude 80, got %d", loaded.Motors.Magnitude)
	}
	if loaded.Hardware.EchoTimeout != cfg.Hardware.EchoTimeout {
		t.Fatalf("echo timeout did not survive: %v", loaded.Hardware.EchoTimeout)
	}
}

func TestInUsePath(t *testing.T) {
	if p := InUsePath("/cfg/sumobot.yaml"); p != "/cfg/sumobot-in-use.yaml" {
		t.Fatalf("unexpected in-use path %q", p)
	}
}
