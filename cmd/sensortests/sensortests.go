package main

import (
	"fmt"
	"time"

	"github.com/alecthomas/kong"

	"github.com/tigerbot-team/sumobot/pkg/config"
	"github.com/tigerbot-team/sumobot/pkg/hardware"
	"github.com/tigerbot-team/sumobot/pkg/sumo"
)

var CLI struct {
	Config   string        `help:"Config file." default:"/cfg/sumobot.yaml"`
	Interval time.Duration `help:"Time between readings." default:"500ms"`
}

func main() {
	kong.Parse(&CLI, kong.Description("Prints the robot's sensor readings."))

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Println("Failed to load config", err)
		return
	}
	hw, err := hardware.New(cfg.Hardware)
	if err != nil {
		fmt.Println("Failed to open hardware", err)
		return
	}
	defer hw.Shutdown()

	for range time.NewTicker(CLI.Interval).C {
		d, err := hw.ReadRange()
		if d == sumo.NoEcho {
			fmt.Printf("Range: no echo %v ", err)
		} else {
			fmt.Printf("Range: %.1fcm %v ", d, err)
		}
		edge, err := hw.ReadEdge()
		fmt.Printf("Edge: %v %v ", edge, err)
		a, err := hw.ReadAccelAxis()
		fmt.Printf("Accel: %.3fg %v ", a, err)
		v, err := hw.BatteryVoltage()
		fmt.Printf("Battery: %.2fV %v ", v, err)
		i, err := hw.BatteryCurrent()
		fmt.Printf("Current: %.2fA %v\n", i, err)
	}
}
