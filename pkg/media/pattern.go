package media

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"
	"time"
)

// Default pattern dimensions
const (
	DefaultPatternWidth  = 640
	DefaultPatternHeight = 480
)

var colorBars = []color.RGBA{
	{R: 192, G: 192, B: 192, A: 255}, // gray
	{R: 192, G: 192, B: 0, A: 255},   // yellow
	{R: 0, G: 192, B: 192, A: 255},   // cyan
	{R: 0, G: 192, B: 0, A: 255},     // green
	{R: 192, G: 0, B: 192, A: 255},   // magenta
	{R: 192, G: 0, B: 0, A: 255},     // red
	{R: 0, G: 0, B: 192, A: 255},     // blue
}

// PatternConfig configures a synthetic color-bar source
type PatternConfig struct {
	Width  int // Frame width (default: 640)
	Height int // Frame height (default: 480)
	FPS    int // Frames per second, 0 = as fast as requested
	Limit  int // Frames before io.EOF, 0 = unlimited
}

// PatternSource generates color bars scrolling one column per frame with a
// white box bouncing across them. It never fails to open.
type PatternSource struct {
	config PatternConfig
}

// NewPatternSource creates a pattern source, filling in default dimensions
func NewPatternSource(config PatternConfig) *PatternSource {
	if config.Width <= 0 {
		config.Width = DefaultPatternWidth
	}
	if config.Height <= 0 {
		config.Height = DefaultPatternHeight
	}
	return &PatternSource{config: config}
}

// Name returns the source identifier
func (s *PatternSource) Name() string {
	return fmt.Sprintf("pattern(%dx%d@%dfps)", s.config.Width, s.config.Height, s.config.FPS)
}

// Open starts a new frame sequence
func (s *PatternSource) Open() (FrameReader, error) {
	r := &patternReader{
		config: s.config,
		done:   make(chan struct{}),
	}
	if interval := frameInterval(s.config.FPS); interval > 0 {
		r.ticker = time.NewTicker(interval)
	}
	return r, nil
}

type patternReader struct {
	config    PatternConfig
	ticker    *time.Ticker
	frame     int
	done      chan struct{}
	closeOnce sync.Once
}

func (r *patternReader) Next() (image.Image, error) {
	if r.config.Limit > 0 && r.frame >= r.config.Limit {
		return nil, io.EOF
	}

	if r.ticker != nil {
		select {
		case <-r.ticker.C:
		case <-r.done:
			return nil, io.EOF
		}
	} else {
		select {
		case <-r.done:
			return nil, io.EOF
		default:
		}
	}

	img := r.render(r.frame)
	r.frame++
	return img, nil
}

func (r *patternReader) render(frame int) *image.RGBA {
	w, h := r.config.Width, r.config.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	barWidth := w / len(colorBars)
	if barWidth == 0 {
		barWidth = 1
	}
	for x := 0; x < w; x++ {
		c := colorBars[((x+frame)/barWidth)%len(colorBars)]
		for y := 0; y < h; y++ {
			img.SetRGBA(x, y, c)
		}
	}

	box := h / 8
	if box < 1 {
		box = 1
	}
	span := w - box
	if span < 1 {
		span = 1
	}
	pos := (frame * 4) % (2 * span)
	if pos > span {
		pos = 2*span - pos
	}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	top := (h - box) / 2
	for y := top; y < top+box && y < h; y++ {
		for x := pos; x < pos+box && x < w; x++ {
			img.SetRGBA(x, y, white)
		}
	}

	return img
}

func (r *patternReader) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		if r.ticker != nil {
			r.ticker.Stop()
		}
	})
	return nil
}
