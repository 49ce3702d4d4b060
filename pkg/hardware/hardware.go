package hardware

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"

	"github.com/tigerbot-team/sumobot/pkg/ads1015"
	"github.com/tigerbot-team/sumobot/pkg/hcsr04"
	"github.com/tigerbot-team/sumobot/pkg/ina219"
	"github.com/tigerbot-team/sumobot/pkg/irreceiver"
	"github.com/tigerbot-team/sumobot/pkg/mma845x"
	"github.com/tigerbot-team/sumobot/pkg/motor"
	"github.com/tigerbot-team/sumobot/pkg/pca9685"
)

var ErrNoPowerMonitor = errors.New("no power monitor")

// Hardware is the robot on a Raspberry Pi: I2C devices on one bus plus GPIO pins.
type Hardware struct {
	cfg Config

	accel  mma845x.Interface
	adc    ads1015.Interface
	pwm    pca9685.Interface
	power  ina219.Interface
	ranger *hcsr04.HCSR04
	ir     *irreceiver.Receiver

	left, right *motor.Driver
}

var _ Interface = (*Hardware)(nil)

// devices opens the robot's peripherals.  Tests substitute fakes.
type devices struct {
	accel func(deviceFile string, addr int) (mma845x.Interface, error)
	adc   func(deviceFile string, addr int) (ads1015.Interface, error)
	pwm   func(deviceFile string, addr int) (pca9685.Interface, error)
	power func(deviceFile string, addr int) (ina219.Interface, error)
	pin   func(name string) (gpio.PinIO, error)
}

var piDevices = devices{
	accel: mma845x.New,
	adc:   ads1015.New,
	pwm:   pca9685.New,
	power: ina219.New,
	pin:   pinByName,
}

func New(cfg Config) (*Hardware, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "initialising periph host")
	}
	return open(cfg, piDevices)
}

// open brings up every device.  On failure, whatever was already opened is closed again.
func open(cfg Config, dev devices) (*Hardware, error) {
	h := &Hardware{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			h.closeDevices()
		}
	}()

	var err error
	fmt.Println("HW: Opening accelerometer")
	if h.accel, err = dev.accel(cfg.I2CDevice, cfg.AccelAddr); err != nil {
		return nil, err
	}
	if err := h.accel.Active(); err != nil {
		return nil, errors.Wrap(err, "activating accelerometer")
	}

	fmt.Println("HW: Opening ADC")
	if h.adc, err = dev.adc(cfg.I2CDevice, cfg.ADCAddr); err != nil {
		return nil, err
	}

	fmt.Println("HW: Opening PWM controller")
	if h.pwm, err = dev.pwm(cfg.I2CDevice, cfg.PWMAddr); err != nil {
		return nil, err
	}
	if err := h.pwm.Configure(cfg.PWMFrequencyHz); err != nil {
		return nil, errors.Wrap(err, "configuring PWM controller")
	}
	if h.left, err = newMotor(h.pwm, dev.pin, cfg.LeftMotor); err != nil {
		return nil, errors.Wrap(err, "left motor")
	}
	if h.right, err = newMotor(h.pwm, dev.pin, cfg.RightMotor); err != nil {
		return nil, errors.Wrap(err, "right motor")
	}

	trig, err := dev.pin(cfg.TriggerPin)
	if err != nil {
		return nil, err
	}
	echo, err := dev.pin(cfg.EchoPin)
	if err != nil {
		return nil, err
	}
	if h.ranger, err = hcsr04.New(trig, echo, cfg.EchoTimeout); err != nil {
		return nil, err
	}

	irPin, err := dev.pin(cfg.IRPin)
	if err != nil {
		return nil, err
	}
	if h.ir, err = irreceiver.New(irPin); err != nil {
		return nil, err
	}

	// The power monitor only feeds the status screen.
	power, perr := dev.power(cfg.I2CDevice, cfg.PowerAddr)
	if perr == nil {
		if perr = power.Configure(cfg.ShuntOhms, cfg.MaxCurrentA); perr != nil {
			_ = power.Close()
		}
	}
	if perr != nil {
		fmt.Println("HW: Failed to open power sensor; ignoring!", perr)
	} else {
		h.power = power
	}

	fmt.Println("HW: Hardware initialised")
	ok = true
	return h, nil
}

func pinByName(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.Errorf("no such GPIO pin: %q", name)
	}
	return p, nil
}

func newMotor(pwm pca9685.Interface, pin func(string) (gpio.PinIO, error), cfg MotorConfig) (*motor.Driver, error) {
	var enable gpio.PinOut
	if cfg.Enable != "" {
		p, err := pin(cfg.Enable)
		if err != nil {
			return nil, err
		}
		enable = p
	}
	return motor.New(pwm, cfg.ChannelA, cfg.ChannelB, enable)
}

func (h *Hardware) ReadRange() (float64, error) {
	return h.ranger.ReadCM()
}

func (h *Hardware) ReadEdge() (bool, error) {
	v, err := h.adc.ReadVolts(h.cfg.OpticalChannel)
	if err != nil {
		return false, err
	}
	return EdgeFromVolts(v, h.cfg.ADCRefVolts, h.cfg.EdgeThreshold), nil
}

// EdgeFromVolts reports whether the optical sensor sees the white border.  The sensor output
// is scaled to 12-bit counts of refVolts; the border reflects more and reads lower.
func EdgeFromVolts(volts, refVolts float64, threshold int) bool {
	if refVolts <= 0 {
		return false
	}
	counts := int(volts / refVolts * 4095)
	return counts < threshold
}

func (h *Hardware) ReadAccelAxis() (float64, error) {
	a, err := h.accel.ReadAccels()
	if err != nil {
		return 0, err
	}
	return mma845x.AlongAxis(a, h.cfg.AccelAxis), nil
}

func (h *Hardware) LeftMotor() motor.Interface {
	return h.left
}

func (h *Hardware) RightMotor() motor.Interface {
	return h.right
}

func (h *Hardware) StartEdgeCapture(ctx context.Context, onEdge func(ts uint32)) error {
	if h.ir == nil {
		return errors.New("IR receiver not open")
	}
	go h.ir.Run(ctx, onEdge)
	return nil
}

func (h *Hardware) BatteryVoltage() (float64, error) {
	if h.power == nil {
		return 0, ErrNoPowerMonitor
	}
	return h.power.ReadBusVoltage()
}

func (h *Hardware) BatteryCurrent() (float64, error) {
	if h.power == nil {
		return 0, ErrNoPowerMonitor
	}
	return h.power.ReadCurrent()
}

func (h *Hardware) Shutdown() {
	fmt.Println("HW: Stopping motors")
	for _, m := range []*motor.Driver{h.left, h.right} {
		if m == nil {
			continue
		}
		if err := m.Disable(); err != nil {
			fmt.Println("HW: Failed to stop", m, err)
		}
	}
	h.closeDevices()
	fmt.Println("HW: Shut down")
}

func (h *Hardware) closeDevices() {
	if h.accel != nil {
		_ = h.accel.Standby()
		_ = h.accel.Close()
	}
	if h.adc != nil {
		_ = h.adc.Close()
	}
	if h.pwm != nil {
		_ = h.pwm.Close()
	}
	if h.power != nil {
		_ = h.power.Close()
	}
}
