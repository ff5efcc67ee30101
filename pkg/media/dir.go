package media

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DirConfig configures an image-directory source
type DirConfig struct {
	Path string
	FPS  int
	Loop bool // Restart from the first image instead of reporting io.EOF
}

// DirSource replays the JPEG and PNG images of a directory in name order.
type DirSource struct {
	config DirConfig
}

// NewDirSource creates a directory source
func NewDirSource(config DirConfig) *DirSource {
	return &DirSource{config: config}
}

// Name returns the source identifier
func (s *DirSource) Name() string {
	return fmt.Sprintf("dir(%s)", s.config.Path)
}

// Open lists the directory. A missing or imageless directory is unavailable.
func (s *DirSource) Open() (FrameReader, error) {
	entries, err := os.ReadDir(s.config.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(s.config.Path, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", ErrSourceUnavailable, s.config.Path)
	}
	sort.Strings(files)

	r := &dirReader{files: files, loop: s.config.Loop}
	if interval := frameInterval(s.config.FPS); interval > 0 {
		r.ticker = time.NewTicker(interval)
	}
	return r, nil
}

type dirReader struct {
	files  []string
	next   int
	loop   bool
	ticker *time.Ticker
}

func (r *dirReader) Next() (image.Image, error) {
	if r.next >= len(r.files) {
		if !r.loop {
			return nil, io.EOF
		}
		r.next = 0
	}

	if r.ticker != nil {
		<-r.ticker.C
	}

	path := r.files[r.next]
	r.next++

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", path, err)
	}
	return img, nil
}

func (r *dirReader) Close() error {
	if r.ticker != nil {
		r.ticker.Stop()
	}
	return nil
}
