// Package core implements vdup's scanning pipeline: signature
// construction, the concurrent scanner, duplicate matching, and the
// deletion engine.
package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/corona10/goimagehash"

	"github.com/kilupskalvis/vdup/internal/ffmpeg"
	"github.com/kilupskalvis/vdup/internal/models"
	"github.com/kilupskalvis/vdup/internal/phash"
)

// SignatureOptions configure a single signature build
type SignatureOptions struct {
	// Timestamps are the sample points in seconds, hashed in order
	Timestamps []float64
	HashSize   int
	// ScratchDir receives the temporary frame files. The caller owns
	// its lifecycle; the builder only creates and removes files in it.
	ScratchDir string
	// Prefix uniquifies temp frame names when candidates share a basename
	Prefix string
}

// BuildSignature samples one frame per timestamp and hashes each.
// It returns either a complete signature covering every timestamp or
// an error; there are no partial signatures. A video whose build fails
// is excluded from duplicate consideration entirely.
func BuildSignature(ctx context.Context, ext ffmpeg.Extractor, videoPath string, opts SignatureOptions) (models.Signature, error) {
	sig := make(models.Signature, 0, len(opts.Timestamps))
	for i, ts := range opts.Timestamps {
		frame := filepath.Join(opts.ScratchDir,
			fmt.Sprintf("%s%s_%d.jpg", opts.Prefix, filepath.Base(videoPath), i))

		h, err := hashFrameAt(ctx, ext, videoPath, ts, frame, opts.HashSize)
		if err != nil {
			return nil, err
		}
		sig = append(sig, h)
	}
	return sig, nil
}

// hashFrameAt extracts one frame to a temporary file and hashes it.
// The temporary file is removed before returning, error paths included.
func hashFrameAt(ctx context.Context, ext ffmpeg.Extractor, videoPath string, timestamp float64, framePath string, hashSize int) (*goimagehash.ExtImageHash, error) {
	if err := ext.ExtractFrame(ctx, videoPath, timestamp, framePath); err != nil {
		return nil, err
	}
	defer os.Remove(framePath)

	return phash.HashFile(framePath, hashSize)
}
