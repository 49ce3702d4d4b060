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
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"

	"github.com/tigerbot-team/sumobot/pkg/cotask"
	"github.com/tigerbot-team/sumobot/pkg/irreceiver"
	"github.com/tigerbot-team/sumobot/pkg/necdecoder"
	"github.com/tigerbot-team/sumobot/pkg/sumo"
	"github.com/tigerbot-team/sumobot/pkg/taskshare"
)

var CLI struct {
	Pin       string `help:"IR receiver GPIO." default:"GPIO17"`
	StartCode uint8  `help:"Command byte that means start." default:"12"`
	Raw       bool   `help:"Print every edge timestamp as well."`
}

func main() {
	kong.Parse(&CLI, kong.Description("Decodes IR remote presses and prints them."))

	if _, err := host.Init(); err != nil {
		fmt.Println("Failed to initialise periph", err)
		return
	}
	pin := gpioreg.ByName(CLI.Pin)
	if pin == nil {
		fmt.Println("No such pin", CLI.Pin)
		return
	}
	rx, err := irreceiver.New(pin)
	if err != nil {
		fmt.Println("Failed to open IR receiver", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		log.Println("Signal: ", <-signals)
		cancel()
	}()

	edges := taskshare.NewQueue[uint32]("ir_edges", 136, true, false)
	command := taskshare.NewShare("command", false, sumo.CommandStop)
	dec := necdecoder.New(edges, command, necdecoder.DefaultTiming, CLI.StartCode)

	go rx.Run(ctx, func(ts uint32) {
		if CLI.Raw {
			fmt.Println("edge", ts)
		}
		_ = edges.Put(ts)
	})

	var lastFrames uint64
	sched := cotask.New()
	sched.Register("decoder", 0, 0, dec)
	sched.Register("print", 1, 100*time.Millisecond, cotask.TaskFunc(func() error {
		if s := dec.Stats(); s.Frames != lastFrames {
			lastFrames = s.Frames
			fmt.Printf("Command 0x%02x -> %v (%v)\n", s.LastCommand, command.Get(), dec)
		}
		return nil
	}))
	fmt.Println("Press buttons on the remote; Ctrl-C to exit.")
	sched.Run(ctx)
	fmt.Println("Dropped edges:", edges.Dropped())
}
