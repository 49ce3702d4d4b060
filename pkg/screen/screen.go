// Package screen shows the robot's state on the 128x128 RGB565 status display.
package screen

import (
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"time"

	"github.com/fogleman/gg"

	"github.com/tigerbot-team/sumobot/pkg/sumo"
)

const (
	Size      = 128
	FrameSize = Size * Size * 2

	minCellVoltage = 3
	maxCellVoltage = 4.2
)

type Status struct {
	Command     sumo.Command
	Left, Right sumo.Direction
	RangeCM     float64
	Edge        bool
	AccelG      float64
	BatteryV    float64
	BatteryA    float64 // NaN if unknown
	IRFrames    uint64
	EdgeDrops   uint64
}

func Render(s Status) image.Image {
	dc := gg.NewContext(Size, Size)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	if s.Command == sumo.CommandStart {
		dc.SetRGB(0, 1, 0.3)
	} else {
		dc.SetRGB(1, 0.2, 0)
	}
	dc.DrawString("SUMO "+s.Command.String(), 4, 14)

	dc.SetRGBA(1, 0.9, 0, 1)
	dc.DrawString(fmt.Sprintf("L %s", s.Left), 4, 30)
	dc.DrawString(fmt.Sprintf("R %s", s.Right), 4, 44)
	if s.RangeCM == sumo.NoEcho {
		dc.DrawString("RNG --", 4, 58)
	} else {
		dc.DrawString(fmt.Sprintf("RNG %.0fcm", s.RangeCM), 4, 58)
	}
	dc.DrawString(fmt.Sprintf("ACC %.2fg", s.AccelG), 4, 72)
	dc.DrawString(fmt.Sprintf("IR %d/%d", s.IRFrames, s.EdgeDrops), 4, 86)

	if s.Edge {
		dc.Push()
		dc.Translate(20, 106)
		DrawWarning(dc)
		dc.Pop()
		dc.SetRGBA(1, 0.9, 0, 1)
		dc.DrawString("EDGE", 38, 110)
	}

	dc.Push()
	dc.Translate(94, 5)
	drawPowerBar(dc, s.BatteryV)
	dc.DrawString(CurrentLabel(s.BatteryA), -2, 107)
	dc.Pop()

	return dc.Image()
}

// ToRGB565 packs img for the framebuffer, which is mounted rotated a quarter turn.
func ToRGB565(img image.Image) []byte {
	buf := make([]byte, FrameSize)
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			r, g, b, _ := img.At(x, y).RGBA() // 16-bit pre-multiplied

			rb := byte(r >> (16 - 5))
			gb := byte(g >> (16 - 6)) // Green has 6 bits
			bb := byte(b >> (16 - 5))

			buf[(Size-1-y)*2+x*Size*2+1] = (rb << 3) | (gb >> 3)
			buf[(Size-1-y)*2+x*Size*2] = bb | (gb << 5)
		}
	}
	return buf
}

// WriteFrame writes one frame a row at a time; the display driver drops data if the whole
// frame arrives in one write.
func WriteFrame(fb io.WriteSeeker, frame []byte) error {
	if _, err := fb.Seek(0, io.SeekStart); err != nil {
		return err
	}
	const rowBytes = Size * 2
	for i := 0; i+rowBytes <= len(frame); i += rowBytes {
		if _, err := fb.Write(frame[i : i+rowBytes]); err != nil {
			return err
		}
		time.Sleep(10 * time.Microsecond)
	}
	return nil
}

func drawPowerBar(dc *gg.Context, voltage float64) {
	var cellVoltage float64
	if voltage > 9 {
		// assume the 4-cell pack
		cellVoltage = voltage / 4
	} else {
		// assume the 2-cell pack
		cellVoltage = voltage / 2
	}
	charge := (cellVoltage - minCellVoltage) / (maxCellVoltage - minCellVoltage)

	dc.SetRGBA(1, 0.9, 0, 1)
	if charge < 0.1 {
		dc.SetRGBA(1, 0.2, 0, 1)
	}
	dc.DrawRectangle(0, 70, 30, 10)
	for n := 2; n < 13; n++ {
		if charge >= (float64(n) / 13) {
			dc.DrawRectangle(2, 75-float64(n)*5, 26, 3)
		}
	}
	dc.Fill()
	dc.DrawString(fmt.Sprintf("%.1fv", voltage), -2, 93)
}

func CurrentLabel(amps float64) string {
	if math.IsNaN(amps) {
		return "--A"
	}
	return fmt.Sprintf("%.2fA", amps)
}

func DrawWarning(dc *gg.Context) {
	dc.SetRGB(1, 0.2, 0)
	dc.DrawRegularPolygon(3, 0, 0, 14, 0)
	dc.Fill()
	dc.SetRGBA(0, 0, 0, 0.9)
	dc.DrawString("!", -3, 3)
}

// Task redraws the display from Status every time it runs.  A missing display is reported
// once and then ignored.
type Task struct {
	Device string
	Status func() Status

	fb       io.WriteSeeker
	closer   io.Closer
	disabled bool
}

func (t *Task) Step() error {
	if t.disabled {
		return nil
	}
	if t.fb == nil {
		f, err := os.OpenFile(t.Device, os.O_RDWR, 0666)
		if err != nil {
			fmt.Println("Failed to open screen, ignoring:", err)
			t.disabled = true
			return nil
		}
		t.fb, t.closer = f, f
	}
	if err := WriteFrame(t.fb, ToRGB565(Render(t.Status()))); err != nil {
		fmt.Println("Screen failure: ", err)
		t.disabled = true
	}
	return nil
}

// Close blanks the display and releases it.
func (t *Task) Close() {
	if t.fb == nil {
		return
	}
	_ = WriteFrame(t.fb, make([]byte, FrameSize))
	if t.closer != nil {
		_ = t.closer.Close()
	}
	t.fb = nil
}
