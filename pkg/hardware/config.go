package hardware

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tigerbot-team/sumobot/pkg/ads1015"
	"github.com/tigerbot-team/sumobot/pkg/hcsr04"
	"github.com/tigerbot-team/sumobot/pkg/ina219"
	"github.com/tigerbot-team/sumobot/pkg/mma845x"
	"github.com/tigerbot-team/sumobot/pkg/pca9685"
)

type MotorConfig struct {
	ChannelA int    `yaml:"channel_a"`
	ChannelB int    `yaml:"channel_b"`
	Enable   string `yaml:"enable_pin"`
}

type Config struct {
	I2CDevice string `yaml:"i2c_device"`

	AccelAddr int    `yaml:"accel_addr"`
	AccelAxis r3.Vec `yaml:"accel_axis"`

	ADCAddr        int     `yaml:"adc_addr"`
	OpticalChannel int     `yaml:"optical_channel"`
	ADCRefVolts    float64 `yaml:"adc_ref_volts"`
	// Readings below this many 12-bit counts of ADCRefVolts are the white border.
	EdgeThreshold int `yaml:"edge_threshold"`

	PWMAddr        int         `yaml:"pwm_addr"`
	PWMFrequencyHz float64     `yaml:"pwm_frequency_hz"`
	LeftMotor      MotorConfig `yaml:"left_motor"`
	RightMotor     MotorConfig `yaml:"right_motor"`

	PowerAddr   int     `yaml:"power_addr"`
	ShuntOhms   float64 `yaml:"shunt_ohms"`
	MaxCurrentA float64 `yaml:"max_current_a"`

	TriggerPin  string        `yaml:"trigger_pin"`
	EchoPin     string        `yaml:"echo_pin"`
	EchoTimeout time.Duration `yaml:"echo_timeout"`

	IRPin string `yaml:"ir_pin"`
}

var DefaultConfig = Config{
	I2CDevice: "/dev/i2c-1",

	AccelAddr: mma845x.DefaultAddr,
	AccelAxis: r3.Vec{X: 1},

	ADCAddr:        ads1015.DefaultAddr,
	OpticalChannel: 0,
	ADCRefVolts:    3.3,
	EdgeThreshold:  3000,

	PWMAddr:        pca9685.DefaultAddr,
	PWMFrequencyHz: pca9685.DefaultFrequencyHz,
	LeftMotor:      MotorConfig{ChannelA: 0, ChannelB: 1, Enable: "GPIO5"},
	RightMotor:     MotorConfig{ChannelA: 2, ChannelB: 3, Enable: "GPIO6"},

	PowerAddr:   ina219.DefaultAddr,
	ShuntOhms:   0.1,
	MaxCurrentA: 3.2,

	TriggerPin:  "GPIO23",
	EchoPin:     "GPIO24",
	EchoTimeout: hcsr04.DefaultTimeout,

	IRPin: "GPIO17",
}
