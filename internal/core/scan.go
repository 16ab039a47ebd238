package core

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kilupskalvis/vdup/internal/ffmpeg"
	"github.com/kilupskalvis/vdup/internal/models"
	"github.com/kilupskalvis/vdup/internal/store"
)

// Default scan parameters, matching the documented CLI defaults
const (
	DefaultHashSize  = 8
	DefaultThreshold = 5
	DefaultWorkers   = 4
)

// ScanOptions configure a directory scan
type ScanOptions struct {
	Dir       string
	Recursive bool
	HashSize  int
	// Threshold is the maximum average Hamming distance for a match.
	// Zero clusters exact signature matches only.
	Threshold float64
	Workers   int
	// Timestamps are the per-video sample points in seconds
	Timestamps []float64

	// OnProgress is called after each file completes (built, cached or
	// skipped). OnSkip is called once per file whose signature build
	// failed. Both may be nil.
	OnProgress func(done, total int)
	OnSkip     func(path string, err error)
}

func (o *ScanOptions) setDefaults() {
	if o.HashSize <= 0 {
		o.HashSize = DefaultHashSize
	}
	// zero is a valid threshold meaning exact signature matches only;
	// only negative values fall back to the default
	if o.Threshold < 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if len(o.Timestamps) == 0 {
		o.Timestamps = []float64{5}
	}
}

// ScanResult summarizes one scan run
type ScanResult struct {
	Found      int
	Built      int
	CacheHits  int
	Skipped    int
	Originals  int
	Duplicates int
}

// outcome is one worker result delivered to the matching stage
type outcome struct {
	path   string
	sig    models.Signature
	cached bool
	err    error
}

// Scan finds near-duplicate videos under opts.Dir. Signature builds
// run on a bounded worker pool; results are consumed sequentially in
// arrival order by the matcher, which is the only goroutine touching
// the original set and the graph. Files whose signature build fails
// are dropped from matching and reported through OnSkip.
//
// The candidate list is sorted by path before submission so the
// submission order is stable across runs. Completion order still
// depends on scheduling, so match assignment (which file becomes the
// cluster head) can differ between runs; match detection does not.
func Scan(ctx context.Context, ext ffmpeg.Extractor, cache *store.Store, opts ScanOptions) (models.DuplicateGraph, *ScanResult, error) {
	opts.setDefaults()

	files, err := listVideos(opts.Dir, opts.Recursive)
	if err != nil {
		return nil, nil, err
	}

	res := &ScanResult{Found: len(files)}
	matcher := NewMatcher(opts.Threshold, opts.HashSize)
	if len(files) == 0 {
		return matcher.Graph(), res, nil
	}

	scratch, err := os.MkdirTemp("", "vdup-frames-")
	if err != nil {
		return nil, nil, fmt.Errorf("create scratch dir: %w", err)
	}
	// Workers remove their frames as they hash them. os.Remove only
	// deletes the directory when it is actually empty; leftovers keep
	// it in place.
	defer os.Remove(scratch)

	results := make(chan outcome)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	go func() {
		for i, f := range files {
			i, f := i, f
			g.Go(func() error {
				sig, cached, err := signatureFor(gctx, ext, cache, f, i, scratch, opts)
				select {
				case results <- outcome{path: f.Path, sig: sig, cached: cached, err: err}:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		g.Wait()
		close(results)
	}()

	done := 0
	for r := range results {
		done++
		if r.err != nil {
			res.Skipped++
			if opts.OnSkip != nil {
				opts.OnSkip(r.path, r.err)
			}
		} else {
			if r.cached {
				res.CacheHits++
			} else {
				res.Built++
			}
			if m := matcher.Add(r.path, r.sig); m.Duplicate {
				res.Duplicates++
			}
		}
		if opts.OnProgress != nil {
			opts.OnProgress(done, len(files))
		}
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	res.Originals = matcher.OriginalCount()
	return matcher.Graph(), res, nil
}

// signatureFor returns the signature for one candidate, consulting the
// cache first when one is configured. Cache write failures are ignored:
// a broken cache must never fail a scan.
func signatureFor(ctx context.Context, ext ffmpeg.Extractor, cache *store.Store, f models.VideoFile, idx int, scratch string, opts ScanOptions) (models.Signature, bool, error) {
	key := store.CacheKey{
		Path:       f.Path,
		Size:       f.Size,
		ModUnix:    f.ModUnix,
		HashSize:   opts.HashSize,
		Timestamps: store.EncodeTimestamps(opts.Timestamps),
	}

	if cache != nil {
		if sig, ok, err := cache.Get(key); err == nil && ok {
			return sig, true, nil
		}
	}

	sig, err := BuildSignature(ctx, ext, f.Path, SignatureOptions{
		Timestamps: opts.Timestamps,
		HashSize:   opts.HashSize,
		ScratchDir: scratch,
		Prefix:     fmt.Sprintf("%04d_", idx),
	})
	if err != nil {
		return nil, false, err
	}

	if cache != nil {
		_ = cache.Put(key, sig)
	}
	return sig, false, nil
}

// listVideos enumerates candidate files under dir, sorted by path
func listVideos(dir string, recursive bool) ([]models.VideoFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	var files []models.VideoFile
	if recursive {
		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || !models.IsVideo(d.Name()) {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			files = append(files, models.VideoFile{
				Path:    path,
				Size:    fi.Size(),
				ModUnix: fi.ModTime().Unix(),
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || !models.IsVideo(e.Name()) {
				continue
			}
			fi, err := e.Info()
			if err != nil {
				return nil, err
			}
			files = append(files, models.VideoFile{
				Path:    filepath.Join(dir, e.Name()),
				Size:    fi.Size(),
				ModUnix: fi.ModTime().Unix(),
			})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
