// Package models defines the data types shared across vdup: frame
// signatures, the duplicate graph, and video candidates.
package models

import (
	"fmt"
	"strings"

	"github.com/corona10/goimagehash"
)

// Signature is the ordered list of perceptual hashes for one video,
// one hash per sampled timestamp. Signatures are only comparable
// position-by-position against a signature built with the same
// timestamp list and hash size.
type Signature []*goimagehash.ExtImageHash

// AverageDistance returns the mean per-position Hamming distance
// between two signatures of equal length
func (s Signature) AverageDistance(other Signature) (float64, error) {
	if len(s) == 0 || len(s) != len(other) {
		return 0, fmt.Errorf("signature length mismatch: %d vs %d", len(s), len(other))
	}

	total := 0
	for i := range s {
		d, err := s[i].Distance(other[i])
		if err != nil {
			return 0, fmt.Errorf("hash %d: %w", i, err)
		}
		total += d
	}
	return float64(total) / float64(len(s)), nil
}

// MatchPercentage converts an average Hamming distance into the share
// of agreeing hash bits: 100 at distance 0, 0 at distance hashSize²
func MatchPercentage(avgDistance float64, hashSize int) float64 {
	totalBits := float64(hashSize * hashSize)
	return (1 - avgDistance/totalBits) * 100
}

// Encode serializes the signature to a single string for the cache
func (s Signature) Encode() string {
	parts := make([]string, len(s))
	for i, h := range s {
		parts[i] = h.ToString()
	}
	return strings.Join(parts, ",")
}

// DecodeSignature parses the form produced by Encode
func DecodeSignature(enc string) (Signature, error) {
	if enc == "" {
		return nil, fmt.Errorf("empty signature")
	}

	parts := strings.Split(enc, ",")
	sig := make(Signature, 0, len(parts))
	for _, p := range parts {
		h, err := goimagehash.ExtImageHashFromString(p)
		if err != nil {
			return nil, fmt.Errorf("parse hash %q: %w", p, err)
		}
		sig = append(sig, h)
	}
	return sig, nil
}
