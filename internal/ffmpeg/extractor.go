// Package ffmpeg extracts single frames from video files. The
// extractor is defined as an interface so the scanning core can be
// tested with a deterministic in-memory implementation instead of a
// real ffmpeg install.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

// ErrNotFound means the ffmpeg binary is not installed or not in PATH
var ErrNotFound = errors.New("ffmpeg not found in PATH")

// ErrExtract marks a failed frame extraction for a single video
var ErrExtract = errors.New("extract frame")

// Extractor produces a single decoded frame from a video at a given
// timestamp, written to outPath as an image file.
type Extractor interface {
	ExtractFrame(ctx context.Context, videoPath string, timestamp float64, outPath string) error
}

// CLI invokes the ffmpeg binary for each frame
type CLI struct{}

// Verify that CLI implements Extractor at compile time
var _ Extractor = CLI{}

// Available reports whether the ffmpeg binary can be invoked. Checked
// once before any scan work is scheduled; a missing binary aborts the
// whole run.
func Available() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return ErrNotFound
	}
	return nil
}

// ExtractFrame seeks to timestamp (seconds, may be fractional) and
// writes one frame to outPath. The external invocation itself is not
// interruptible; ctx is only consulted before launching it.
func (CLI) ExtractFrame(ctx context.Context, videoPath string, timestamp float64, outPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := ffmpeggo.Input(videoPath, ffmpeggo.KwArgs{"ss": fmt.Sprintf("%g", timestamp)}).
		Output(outPath, ffmpeggo.KwArgs{"vframes": 1, "q:v": 2}).
		OverWriteOutput().
		Silent(true).
		Run()
	if err != nil {
		return fmt.Errorf("%w: %s @ %gs: %v", ErrExtract, videoPath, timestamp, err)
	}

	// ffmpeg exits zero but writes nothing when the seek point is past
	// the end of the video
	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("%w: %s @ %gs: no frame produced", ErrExtract, videoPath, timestamp)
	}
	return nil
}
