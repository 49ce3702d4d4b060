package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"

	"github.com/tigerbot-team/sumobot/pkg/config"
	"github.com/tigerbot-team/sumobot/pkg/control"
	"github.com/tigerbot-team/sumobot/pkg/cotask"
	"github.com/tigerbot-team/sumobot/pkg/hardware"
	"github.com/tigerbot-team/sumobot/pkg/robot"
	"github.com/tigerbot-team/sumobot/pkg/sound"
)

var CLI struct {
	Config      string `help:"Config file." default:"/cfg/sumobot.yaml" env:"SUMOBOT_CONFIG"`
	Dummy       bool   `help:"Use dummy hardware instead of the robot's devices." env:"SUMOBOT_DUMMY"`
	ControlPort string `help:"Serial port to watch for the stop key; stdin if empty." env:"SUMOBOT_CONTROL_PORT"`
	Baud        int    `help:"Control port baud rate." default:"115200"`
	NoSound     bool   `help:"Disable sound cues."`
}

func main() {
	fmt.Print("---- Sumobot ----\n\n")
	fmt.Println("GOMAXPROCS", runtime.GOMAXPROCS(0))

	kong.Parse(&CLI, kong.Description("Autonomous sumo robot controller."))

	if err := run(); err != nil {
		fmt.Println("ERROR:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	fmt.Printf("Using config: %#v\n", cfg)
	if err := config.WriteInUse(cfg, CLI.Config); err != nil {
		fmt.Println("Failed to record config in use:", err)
	}

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		cancel()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()

	var hw hardware.Interface
	if CLI.Dummy {
		fmt.Println("Using dummy hardware")
		hw = hardware.NewDummy()
	} else {
		h, err := hardware.New(cfg.Hardware)
		if err != nil {
			return errors.Wrap(err, "initialising hardware (use --dummy to run without it)")
		}
		hw = h
	}
	defer hw.Shutdown()

	var console io.Reader = os.Stdin
	if CLI.ControlPort != "" {
		p, err := control.OpenSerial(CLI.ControlPort, CLI.Baud)
		if err != nil {
			return err
		}
		defer p.Close()
		console = p
	}
	go control.WatchForStop(ctx, console, cancel)

	opts := []robot.Option{
		robot.WithSchedulerOptions(cotask.WithIdleSleep(cfg.IdleSleep)),
	}
	if !CLI.NoSound {
		player := sound.NewPlayer(cfg.Sounds.Start, cfg.Sounds.Stop)
		defer player.Close()
		opts = append(opts, robot.WithSoundCues(player.Play))
	}

	r := robot.New(cfg, hw, opts...)
	fmt.Println("Tasks:", r.Scheduler().Order())
	fmt.Println("Waiting for the remote; press any key to stop.")
	return r.Run(ctx)
}
