// Package phash computes perceptual difference hashes (dHash) of
// video frames. A dHash downscales a frame to a small grayscale grid
// and emits one bit per adjacent-pixel brightness comparison, so
// visually similar frames produce hashes with a small Hamming distance.
package phash

import (
	"errors"
	"fmt"
	"image"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
)

// ErrDecode marks a frame image that could not be read or decoded
var ErrDecode = errors.New("decode frame")

// HashImage computes the hashSize×hashSize-bit difference hash of a
// decoded frame. Deterministic: identical images always yield an
// identical hash.
func HashImage(img image.Image, hashSize int) (*goimagehash.ExtImageHash, error) {
	if hashSize < 2 {
		return nil, fmt.Errorf("hash size must be at least 2, got %d", hashSize)
	}
	return goimagehash.ExtDifferenceHash(img, hashSize, hashSize)
}

// HashFile decodes the image at path and hashes it
func HashFile(path string, hashSize int) (*goimagehash.ExtImageHash, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return HashImage(img, hashSize)
}
