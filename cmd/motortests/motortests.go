package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/tigerbot-team/sumobot/pkg/config"
	"github.com/tigerbot-team/sumobot/pkg/hardware"
	"github.com/tigerbot-team/sumobot/pkg/motortask"
	"github.com/tigerbot-team/sumobot/pkg/sumo"
	"github.com/tigerbot-team/sumobot/pkg/taskshare"
)

var CLI struct {
	Config string        `help:"Config file." default:"/cfg/sumobot.yaml"`
	Hold   time.Duration `help:"How long to hold each pattern." default:"1s"`
	Dummy  bool          `help:"Use dummy hardware."`
}

var patterns = []struct {
	name        string
	left, right sumo.Direction
}{
	{"forward", sumo.Forward, sumo.Forward},
	{"backward", sumo.Backward, sumo.Backward},
	{"search", sumo.Forward, sumo.Backward},
	{"evade", sumo.Backward, sumo.Forward},
	{"stop", sumo.Stop, sumo.Stop},
}

func main() {
	kong.Parse(&CLI, kong.Description("Steps the wheels through each drive pattern."))

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Println("Failed to load config", err)
		return
	}
	var hw hardware.Interface
	if CLI.Dummy {
		hw = hardware.NewDummy()
	} else {
		h, err := hardware.New(cfg.Hardware)
		if err != nil {
			fmt.Println("Failed to open hardware", err)
			return
		}
		hw = h
	}
	defer hw.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		log.Println("Signal: ", <-signals)
		cancel()
	}()

	left := taskshare.NewShare("direction_l", false, sumo.Stop)
	right := taskshare.NewShare("direction_r", false, sumo.Stop)
	m := cfg.Motors
	tasks := []*motortask.Task{
		{
			Name:      "left motor",
			Direction: left,
			Motor:     hw.LeftMotor(),
			Ctrl:      motortask.NewController(m.Gain, m.SetPoint, m.Magnitude),
		},
		{
			Name:      "right motor",
			Direction: right,
			Motor:     hw.RightMotor(),
			Ctrl:      motortask.NewController(m.Gain, m.SetPoint, m.Magnitude),
			Mirrored:  true,
		},
	}

	for _, p := range patterns {
		if ctx.Err() != nil {
			break
		}
		fmt.Printf("Pattern %s: left=%v right=%v\n", p.name, p.left, p.right)
		left.Put(p.left)
		right.Put(p.right)
		for _, t := range tasks {
			if err := t.Step(); err != nil {
				fmt.Println("Failed to drive motor", err)
			}
			fmt.Printf("  %s level %d\n", t.Name, t.LastLevel())
		}
		select {
		case <-ctx.Done():
		case <-time.After(CLI.Hold):
		}
	}
}
