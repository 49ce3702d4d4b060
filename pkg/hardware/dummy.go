package hardware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tigerbot-team/sumobot/pkg/motor"
	"github.com/tigerbot-team/sumobot/pkg/necdecoder"
	"github.com/tigerbot-team/sumobot/pkg/sumo"
)

// Dummy stands in for the robot on a bench machine.  Sensor values are fixed fields; after
// StartDelay the IR receiver "sees" one press of the start button.
type Dummy struct {
	RangeCM    float64
	Edge       bool
	AccelG     float64
	Voltage    float64
	CurrentA   float64
	StartCode  byte
	StartDelay time.Duration

	left, right *dummyMotor
}

func NewDummy() *Dummy {
	d := &Dummy{
		RangeCM:    sumo.InitialRangeCM,
		Voltage:    8.2,
		CurrentA:   0.4,
		StartCode:  necdecoder.DefaultStartCode,
		StartDelay: time.Second,
	}
	d.left = &dummyMotor{name: "left"}
	d.right = &dummyMotor{name: "right"}
	return d
}

func (d *Dummy) ReadRange() (float64, error) {
	return d.RangeCM, nil
}

func (d *Dummy) ReadEdge() (bool, error) {
	return d.Edge, nil
}

func (d *Dummy) ReadAccelAxis() (float64, error) {
	return d.AccelG, nil
}

func (d *Dummy) LeftMotor() motor.Interface {
	return d.left
}

func (d *Dummy) RightMotor() motor.Interface {
	return d.right
}

func (d *Dummy) StartEdgeCapture(ctx context.Context, onEdge func(ts uint32)) error {
	fmt.Println("DHW: StartEdgeCapture")
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.StartDelay):
		}
		fmt.Printf("DHW: Sending IR command %d\n", d.StartCode)
		for _, ts := range necdecoder.FrameEdges(10000, 0x00, d.StartCode) {
			onEdge(ts)
		}
	}()
	return nil
}

func (d *Dummy) BatteryVoltage() (float64, error) {
	return d.Voltage, nil
}

func (d *Dummy) BatteryCurrent() (float64, error) {
	return d.CurrentA, nil
}

func (d *Dummy) Shutdown() {
	fmt.Println("DHW: Shutdown")
	_ = d.left.SetDutyCycle(0)
	_ = d.right.SetDutyCycle(0)
}

var _ Interface = (*Dummy)(nil)

// dummyMotor prints only when the duty changes; the motor tasks set it every few ms.
type dummyMotor struct {
	name string

	lock  sync.Mutex
	level int
}

func (m *dummyMotor) SetDutyCycle(level int) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if level != m.level {
		fmt.Printf("DHW: SetDutyCycle motor=%v level=%v\n", m.name, level)
		m.level = level
	}
	return nil
}

func (m *dummyMotor) Level() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.level
}
