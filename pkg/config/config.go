// Package config loads the robot's tunables from a YAML file.  Anything missing from the file
// keeps its default.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/tigerbot-team/sumobot/pkg/brain"
	"github.com/tigerbot-team/sumobot/pkg/hardware"
	"github.com/tigerbot-team/sumobot/pkg/motortask"
	"github.com/tigerbot-team/sumobot/pkg/necdecoder"
)

const DefaultPath = "/cfg/sumobot.yaml"

// Task scheduling parameters.  Lower priority values run first.
type Task struct {
	Priority int           `yaml:"priority"`
	Period   time.Duration `yaml:"period"`
}

type Tasks struct {
	Decoder    Task `yaml:"decoder"`
	Brain      Task `yaml:"brain"`
	Ultrasonic Task `yaml:"ultrasonic"`
	Edge       Task `yaml:"edge"`
	Accel      Task `yaml:"accel"`
	MotorLeft  Task `yaml:"motor_left"`
	MotorRight Task `yaml:"motor_right"`
	Display    Task `yaml:"display"`
	Sound      Task `yaml:"sound"`
}

type Motors struct {
	Magnitude int     `yaml:"magnitude"`
	Gain      float64 `yaml:"gain"`
	SetPoint  int     `yaml:"set_point"`
}

type Sounds struct {
	Start string `yaml:"start"`
	Stop  string `yaml:"stop"`
}

type Config struct {
	Tasks     Tasks         `yaml:"tasks"`
	IdleSleep time.Duration `yaml:"idle_sleep"`

	EdgeQueueCapacity int               `yaml:"edge_queue_capacity"`
	StartCode         byte              `yaml:"start_code"`
	IRTiming          necdecoder.Timing `yaml:"ir_timing"`

	Thresholds brain.Thresholds `yaml:"thresholds"`
	Motors     Motors           `yaml:"motors"`

	Screen string `yaml:"screen"`
	Sounds Sounds `yaml:"sounds"`

	Hardware hardware.Config `yaml:"hardware"`
}

func Default() Config {
	return Config{
		Tasks: Tasks{
			Decoder:    Task{Priority: 0, Period: 30 * time.Millisecond},
			Brain:      Task{Priority: 1, Period: 100 * time.Millisecond},
			MotorLeft:  Task{Priority: 1, Period: 3 * time.Millisecond},
			MotorRight: Task{Priority: 1, Period: 3 * time.Millisecond},
			Edge:       Task{Priority: 1, Period: 50 * time.Millisecond},
			Ultrasonic: Task{Priority: 2, Period: 70 * time.Millisecond},
			Accel:      Task{Priority: 2, Period: 50 * time.Millisecond},
			Display:    Task{Priority: 3, Period: 500 * time.Millisecond},
			Sound:      Task{Priority: 3, Period: 100 * time.Millisecond},
		},
		IdleSleep: 200 * time.Microsecond,

		// Two full frames.
		EdgeQueueCapacity: 136,
		StartCode:         necdecoder.DefaultStartCode,
		IRTiming:          necdecoder.DefaultTiming,

		Thresholds: brain.DefaultThresholds,
		Motors: Motors{
			Magnitude: motortask.DefaultMagnitude,
			Gain:      0.1,
			SetPoint:  10000,
		},

		Screen: "/dev/fb1",
		Sounds: Sounds{
			Start: "/sounds/start.wav",
			Stop:  "/sounds/stop.wav",
		},

		Hardware: hardware.DefaultConfig,
	}
}

// Load reads path over the defaults.  A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		fmt.Println("No config file at", path, "using defaults")
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(err, "reading config")
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing %s", path)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.EdgeQueueCapacity < 4 {
		return errors.Errorf("edge_queue_capacity too small: %d", c.EdgeQueueCapacity)
	}
	if c.Motors.Magnitude < 0 || c.Motors.Magnitude > 100 {
		return errors.Errorf("motor magnitude out of range: %d", c.Motors.Magnitude)
	}
	if c.Thresholds.BackupCycles < 1 {
		return errors.Errorf("backup_cycles must be positive: %d", c.Thresholds.BackupCycles)
	}
	return nil
}

// InUsePath returns where the effective config for path is recorded.
func InUsePath(path string) string {
	return strings.TrimSuffix(path, ".yaml") + "-in-use.yaml"
}

// WriteInUse records the effective config next to the file it was loaded from.
func WriteInUse(cfg Config, path string) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return errors.Wrap(err, "marshalling config")
	}
	return os.WriteFile(InUsePath(path), data, 0666)
}
