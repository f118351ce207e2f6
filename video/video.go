//go:build screen

package video

import (
	"encoding/binary"
	"fmt"
	"image"
	"log"
	"os"

	"github.com/d21d3q/framebuffer"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

const (
	defaultDevice = "/dev/fb0"
	defaultFont   = "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"
)

// ScreenSupported returns whether screen support is compiled in.
func ScreenSupported() bool {
	return true
}

// Display renders card status screens on an RGB565 framebuffer.
type Display struct {
	dc              *gg.Context
	canvas          *image.RGBA // logical, unrotated drawing surface
	frame           *image.RGBA // canvas after rotation, framebuffer sized
	pixBuffer       []byte
	backBuffer      []byte
	width           int
	height          int
	lineLengthBytes int
	rotation        int
	font            string
	initialized     bool
}

// New opens the framebuffer described by cfg.
func New(cfg Config) (*Display, error) {
	d := &Display{rotation: cfg.Rotation, font: cfg.Font}
	if d.font == "" {
		d.font = defaultFont
	}
	device := cfg.Device
	if device == "" {
		device = defaultDevice
	}
	if err := d.init(device); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Display) init(device string) error {
	fb, err := framebuffer.OpenFrameBuffer(device, os.O_RDWR)
	if err != nil {
		return fmt.Errorf("open framebuffer: %w", err)
	}

	varInfo, err := fb.VarScreenInfo()
	if err != nil {
		return fmt.Errorf("get variable screen info: %w", err)
	}
	fixedInfo, err := fb.FixScreenInfo()
	if err != nil {
		return fmt.Errorf("get fixed screen info: %w", err)
	}

	d.pixBuffer, err = fb.Pixels()
	if err != nil {
		return fmt.Errorf("get pixel data: %w", err)
	}

	d.width = int(varInfo.XRes)
	d.height = int(varInfo.YRes)
	d.lineLengthBytes = int(fixedInfo.LineLength)
	d.backBuffer = make([]byte, d.height*d.lineLengthBytes)

	log.Printf("Video: framebuffer %dx%d, %d bpp, stride %d bytes, rotation %d",
		d.width, d.height, varInfo.BitsPerPixel, d.lineLengthBytes, d.rotation)

	cw, ch := d.width, d.height
	if d.rotation == 90 || d.rotation == 270 {
		cw, ch = ch, cw
	}
	d.canvas = image.NewRGBA(image.Rect(0, 0, cw, ch))
	d.frame = image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	d.dc = gg.NewContextForRGBA(d.canvas)
	d.initialized = true

	d.clear()
	return nil
}

func (d *Display) clear() {
	for i := range d.pixBuffer {
		d.pixBuffer[i] = 0
	}
}

// Idle shows the ready screen.
func (d *Display) Idle() {
	d.Show(StatusIdle, "")
}

// ConnectionLost shows the connection lost screen.
func (d *Display) ConnectionLost() {
	d.Show(StatusConnectionLost, "")
}

// Show renders the screen for s with text (usually the card token) below the title.
func (d *Display) Show(s Status, text string) {
	if !d.initialized {
		return
	}
	l := lookFor(s)
	w, h := float64(d.canvas.Bounds().Dx()), float64(d.canvas.Bounds().Dy())

	d.dc.SetRGB(l.r, l.g, l.b)
	d.dc.DrawRectangle(0, 0, w, h)
	d.dc.Fill()

	y := h / 2
	if text != "" {
		y -= 40
	}
	d.setFontSize(64)
	d.dc.SetRGB(1, 1, 1)
	d.dc.DrawStringAnchored(l.title, w/2, y, 0.5, 0.5)

	if text != "" {
		d.setFontSize(40)
		d.dc.DrawStringAnchored(text, w/2, y+80, 0.5, 0.5)
	}

	d.update()
}

// Shutdown blanks the display.
func (d *Display) Shutdown() {
	if !d.initialized {
		return
	}
	d.clear()
}

// Release blanks the display and stops drawing.
func (d *Display) Release() error {
	d.clear()
	d.initialized = false
	return nil
}

func (d *Display) setFontSize(size int) {
	if err := d.dc.LoadFontFace(d.font, float64(size)); err != nil {
		log.Printf("Video: failed to load font: %v", err)
	}
}

// update rotates the canvas into the frame and converts it to RGB565.
func (d *Display) update() {
	src := d.canvas
	if d.rotation != 0 {
		draw.NearestNeighbor.Transform(d.frame, rotation(d.rotation, d.canvas.Bounds()), d.canvas, d.canvas.Bounds(), draw.Src, nil)
		src = d.frame
	}

	for y := 0; y < d.height; y++ {
		for x := 0; x < d.width; x++ {
			r, g, b, _ := src.At(x, y).RGBA()
			r5 := uint16(r >> (16 - 5))
			g6 := uint16(g >> (16 - 6))
			b5 := uint16(b >> (16 - 5))
			pixel16 := (r5 << 11) | (g6 << 5) | b5
			fbIdx := (y * d.lineLengthBytes) + (x * 2)
			if fbIdx+1 < len(d.backBuffer) {
				binary.LittleEndian.PutUint16(d.backBuffer[fbIdx:], pixel16)
			}
		}
	}
	copy(d.pixBuffer, d.backBuffer)
}

// rotation returns the canvas-to-frame transform for a clockwise rotation.
func rotation(deg int, r image.Rectangle) f64.Aff3 {
	w, h := float64(r.Dx()), float64(r.Dy())
	switch deg {
	case 90:
		return f64.Aff3{0, -1, h, 1, 0, 0}
	case 180:
		return f64.Aff3{-1, 0, w, 0, -1, h}
	case 270:
		return f64.Aff3{0, 1, 0, -1, 0, w}
	default:
		return f64.Aff3{1, 0, 0, 0, 1, 0}
	}
}
