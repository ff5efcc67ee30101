package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestPatternSourceLimit(t *testing.T) {
	src := NewPatternSource(PatternConfig{Width: 32, Height: 16, Limit: 3})
	reader, err := src.Open()
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	defer reader.Close()

	for i := 0; i < 3; i++ {
		img, err := reader.Next()
		if err != nil {
			t.Fatalf("Frame %d: unexpected error %v", i, err)
		}
		if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 16 {
			t.Errorf("Frame %d: unexpected bounds %v", i, b)
		}
	}

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF after limit, got %v", err)
	}
}

func TestPatternSourceFramesDiffer(t *testing.T) {
	reader, err := NewPatternSource(PatternConfig{Width: 64, Height: 32}).Open()
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	defer reader.Close()

	first, _ := reader.Next()
	second, _ := reader.Next()
	if bytes.Equal(first.(*image.RGBA).Pix, second.(*image.RGBA).Pix) {
		t.Errorf("Expected consecutive frames to differ")
	}
}

func TestPatternSourceClose(t *testing.T) {
	reader, err := NewPatternSource(PatternConfig{Width: 8, Height: 8, FPS: 1}).Open()
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	reader.Close()

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF after close, got %v", err)
	}
}

func writeImage(t *testing.T, path string, encode func(io.Writer, image.Image) error) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(1, 1, color.RGBA{R: 255, A: 255})

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := encode(f, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "b.png"), png.Encode)
	writeImage(t, filepath.Join(dir, "a.jpg"), func(w io.Writer, img image.Image) error {
		return jpeg.Encode(w, img, nil)
	})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	reader, err := NewDirSource(DirConfig{Path: dir}).Open()
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	defer reader.Close()

	for i := 0; i < 2; i++ {
		if _, err := reader.Next(); err != nil {
			t.Fatalf("Frame %d: unexpected error %v", i, err)
		}
	}
	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestDirSourceLoop(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "only.png"), png.Encode)

	reader, err := NewDirSource(DirConfig{Path: dir, Loop: true}).Open()
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	defer reader.Close()

	for i := 0; i < 5; i++ {
		if _, err := reader.Next(); err != nil {
			t.Fatalf("Frame %d: unexpected error %v", i, err)
		}
	}
}

func TestDirSourceUnavailable(t *testing.T) {
	_, err := NewDirSource(DirConfig{Path: filepath.Join(t.TempDir(), "missing")}).Open()
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable for missing dir, got %v", err)
	}

	_, err = NewDirSource(DirConfig{Path: t.TempDir()}).Open()
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable for empty dir, got %v", err)
	}
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(SourceConfig{Type: SourcePattern})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := src.(*PatternSource); !ok {
		t.Errorf("Expected *PatternSource, got %T", src)
	}

	if _, err := NewSource(SourceConfig{Type: "webcam"}); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("Expected ErrUnknownSource, got %v", err)
	}
}

func TestPayloadsEncodesJPEG(t *testing.T) {
	reader, err := NewPatternSource(PatternConfig{Width: 64, Height: 48, Limit: 2}).Open()
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	payloads := NewPayloads(reader, NewJPEGEncoder(0))
	defer payloads.Close()

	for i := 0; i < 2; i++ {
		data, err := payloads.Next()
		if err != nil {
			t.Fatalf("Frame %d: unexpected error %v", i, err)
		}
		if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
			t.Fatalf("Frame %d: missing JPEG SOI marker", i)
		}
		if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
			t.Errorf("Frame %d: not decodable: %v", i, err)
		}
	}
	if _, err := payloads.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
	if payloads.Frames() != 2 {
		t.Errorf("Expected 2 frames, got %d", payloads.Frames())
	}
}

func TestJPEGEncoderQualityClamp(t *testing.T) {
	if q := NewJPEGEncoder(0).Quality; q != DefaultJPEGQuality {
		t.Errorf("Expected default quality, got %d", q)
	}
	if q := NewJPEGEncoder(500).Quality; q != 100 {
		t.Errorf("Expected quality 100, got %d", q)
	}
}
