package ffmpeg

import (
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"sync"
)

// Mock is an in-memory Extractor for testing. Frames are deterministic
// synthetic images derived from (videoPath, timestamp), so identical
// inputs always produce identical frames across runs.
type Mock struct {
	// Frames overrides the generated frame for specific video paths
	Frames map[string]image.Image
	// Fail lists video paths whose extraction always fails
	Fail map[string]bool

	mu    sync.Mutex
	calls int
}

// Verify that *Mock implements Extractor at compile time
var _ Extractor = (*Mock)(nil)

// NewMock creates a Mock with no overrides
func NewMock() *Mock {
	return &Mock{
		Frames: make(map[string]image.Image),
		Fail:   make(map[string]bool),
	}
}

// Calls returns how many extractions were attempted
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ExtractFrame writes a PNG frame for (videoPath, timestamp) to outPath
func (m *Mock) ExtractFrame(ctx context.Context, videoPath string, timestamp float64, outPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.calls++
	fail := m.Fail[videoPath]
	img := m.Frames[videoPath]
	m.mu.Unlock()

	if fail {
		return fmt.Errorf("%w: %s @ %gs: exit status 1", ErrExtract, videoPath, timestamp)
	}
	if img == nil {
		img = syntheticFrame(videoPath, timestamp)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("%w: %s @ %gs: %v", ErrExtract, videoPath, timestamp, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("%w: %s @ %gs: %v", ErrExtract, videoPath, timestamp, err)
	}
	return nil
}

// syntheticFrame renders deterministic per-pixel noise seeded by the
// video path and timestamp. Different seeds produce frames that are far
// apart under dHash; the same seed always reproduces the same frame.
func syntheticFrame(videoPath string, timestamp float64) image.Image {
	h := fnv.New32a()
	io.WriteString(h, videoPath)
	fmt.Fprintf(h, "@%g", timestamp)
	seed := h.Sum32()

	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := seed ^ uint32(x)*73856093 ^ uint32(y)*19349663
			v = v*1664525 + 1013904223
			img.SetGray(x, y, color.Gray{Y: uint8(v >> 24)})
		}
	}
	return img
}
