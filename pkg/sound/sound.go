// Package sound plays wav cues through the speaker without holding up the caller.
package sound

import (
	"fmt"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"

	"github.com/tigerbot-team/sumobot/pkg/sumo"
	"github.com/tigerbot-team/sumobot/pkg/taskshare"
)

// Player plays short wav cues through the speaker.  The cues are decoded into memory once,
// when the player starts, so playing one never touches the disk.
type Player struct {
	requests chan string
}

// NewPlayer loads cues in the background and starts the player.  A cue that fails to load is
// reported and skipped; the first one that loads sets the speaker's sample rate.
func NewPlayer(cues ...string) *Player {
	p := &Player{requests: make(chan string, 1)}
	go p.run(cues)
	return p
}

func (p *Player) run(cues []string) {
	defer func() {
		recover() // The speaker panics if there's no audio device.
		for path := range p.requests {
			fmt.Println("Unable to play", path)
		}
	}()

	buffers := map[string]*beep.Buffer{}
	var format beep.Format
	for _, path := range cues {
		if path == "" {
			continue
		}
		buf, f, err := LoadCue(path)
		if err != nil {
			fmt.Println("Failed to load sound:", err)
			continue
		}
		if len(buffers) == 0 {
			format = f
		} else if f.SampleRate != format.SampleRate {
			fmt.Println("Skipping sound with mismatched sample rate:", path)
			continue
		}
		buffers[path] = buf
	}
	if len(buffers) == 0 {
		fmt.Println("No sounds loaded")
		return
	}
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/5)); err != nil {
		fmt.Println("Failed to open speaker", err)
		return
	}

	var ctrl *beep.Ctrl
	for path := range p.requests {
		buf, ok := buffers[path]
		if !ok {
			fmt.Println("Unknown sound", path)
			continue
		}
		if ctrl != nil {
			speaker.Lock()
			ctrl.Paused = true
			ctrl.Streamer = nil
			speaker.Unlock()
		}
		ctrl = &beep.Ctrl{Streamer: buf.Streamer(0, buf.Len())}
		speaker.Play(ctrl)
	}
}

// LoadCue decodes a whole wav file into memory.
func LoadCue(path string) (*beep.Buffer, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, errors.Wrap(err, "opening sound")
	}
	s, format, err := wav.Decode(f)
	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, errors.Wrapf(err, "decoding %s", path)
	}
	defer s.Close()
	buf := beep.NewBuffer(format)
	buf.Append(s)
	return buf, format, nil
}

// Play queues path and returns immediately.  It reports false if the player is still busy
// with the previous request.
func (p *Player) Play(path string) (queued bool) {
	defer func() {
		if recover() != nil {
			queued = false // Player already closed.
		}
	}()
	select {
	case p.requests <- path:
		return true
	default:
		fmt.Println("Sound player busy, dropping", path)
		return false
	}
}

func (p *Player) Close() {
	close(p.requests)
}

// CueTask plays a sound whenever the remote command changes.
type CueTask struct {
	Command *taskshare.Share[sumo.Command]
	Sounds  map[sumo.Command]string
	Play    func(path string) bool

	last   sumo.Command
	primed bool
}

func (t *CueTask) Step() error {
	cmd := t.Command.Get()
	if !t.primed {
		t.last, t.primed = cmd, true
		return nil
	}
	if cmd == t.last {
		return nil
	}
	t.last = cmd
	if path := t.Sounds[cmd]; path != "" {
		t.Play(path)
	}
	return nil
}
