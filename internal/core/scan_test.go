package core

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilupskalvis/vdup/internal/ffmpeg"
	"github.com/kilupskalvis/vdup/internal/models"
	"github.com/kilupskalvis/vdup/internal/store"
)

// stripeFrame and flatFrame are two 9x8 images far apart under dHash;
// files sharing a frame hash identically, files with different frames
// never fall within the default threshold.
func stripeFrame() image.Image {
	img := image.NewGray(image.Rect(0, 0, 9, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 9; x += 2 {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return img
}

func flatFrame() image.Image {
	img := image.NewGray(image.Rect(0, 0, 9, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 9; x++ {
			img.SetGray(x, y, color.Gray{Y: 128})
		}
	}
	return img
}

// nearFlatFrame is flatFrame with one brightened pixel, flipping
// exactly one adjacent-pixel comparison: dHash distance 1 from flat
func nearFlatFrame() image.Image {
	img := flatFrame().(*image.Gray)
	img.SetGray(1, 0, color.Gray{Y: 255})
	return img
}

// writeVideo creates a placeholder file; frame content comes from the
// mock extractor, keyed by path
func writeVideo(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("video bytes"), 0644))
	return path
}

func TestScan_FindsDuplicates(t *testing.T) {
	dir := t.TempDir()
	a := writeVideo(t, dir, "a.mp4")
	b := writeVideo(t, dir, "b.mp4")
	c := writeVideo(t, dir, "c.mp4")

	mock := ffmpeg.NewMock()
	mock.Frames[a] = stripeFrame()
	mock.Frames[b] = stripeFrame()
	mock.Frames[c] = flatFrame()

	// single worker: completion order equals the sorted submission
	// order, so 'a' is guaranteed to become the cluster head
	graph, res, err := Scan(context.Background(), mock, nil, ScanOptions{
		Dir:     dir,
		Workers: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Found)
	assert.Equal(t, 3, res.Built)
	assert.Equal(t, 2, res.Originals)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 0, res.Skipped)

	require.Len(t, graph, 1)
	require.Len(t, graph[a], 1)
	assert.Equal(t, b, graph[a][0].Path)
	assert.InDelta(t, 100.0, graph[a][0].MatchPercentage, 1e-9)
}

func TestScan_ParallelInvariants(t *testing.T) {
	// two groups of three identical videos each; whichever file wins
	// the race to register first, the cluster shape is fixed
	dir := t.TempDir()
	mock := ffmpeg.NewMock()
	group1 := []string{"a.mp4", "b.mp4", "c.mp4"}
	group2 := []string{"x.mp4", "y.mp4", "z.mp4"}
	for _, n := range group1 {
		mock.Frames[writeVideo(t, dir, n)] = stripeFrame()
	}
	for _, n := range group2 {
		mock.Frames[writeVideo(t, dir, n)] = flatFrame()
	}

	graph, res, err := Scan(context.Background(), mock, nil, ScanOptions{
		Dir:     dir,
		Workers: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, 6, res.Found)
	assert.Equal(t, 2, res.Originals)
	assert.Equal(t, 4, res.Duplicates)
	assert.Len(t, graph, 2)
	for _, orig := range graph.Originals() {
		assert.Len(t, graph[orig], 2)
		for _, dup := range graph[orig] {
			assert.InDelta(t, 100.0, dup.MatchPercentage, 1e-9)
		}
	}
}

func TestScan_ThresholdZero(t *testing.T) {
	// zero is exact-match-only: one bit of distance already separates
	// two files, while identical files still cluster
	dir := t.TempDir()
	a := writeVideo(t, dir, "a.mp4")
	b := writeVideo(t, dir, "b.mp4")
	c := writeVideo(t, dir, "c.mp4")

	mock := ffmpeg.NewMock()
	mock.Frames[a] = flatFrame()
	mock.Frames[b] = nearFlatFrame()
	mock.Frames[c] = flatFrame()

	graph, res, err := Scan(context.Background(), mock, nil, ScanOptions{
		Dir:       dir,
		Workers:   1,
		Threshold: 0,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Originals)
	assert.Equal(t, 1, res.Duplicates)
	require.Len(t, graph, 1)
	require.Len(t, graph[a], 1)
	assert.Equal(t, c, graph[a][0].Path)
	assert.InDelta(t, 100.0, graph[a][0].MatchPercentage, 1e-9)
}

func TestScan_FailedFileIsDropped(t *testing.T) {
	dir := t.TempDir()
	a := writeVideo(t, dir, "a.mp4")
	b := writeVideo(t, dir, "b.mp4")

	mock := ffmpeg.NewMock()
	mock.Frames[a] = stripeFrame()
	mock.Frames[b] = stripeFrame()
	mock.Fail[b] = true

	var skipped []string
	graph, res, err := Scan(context.Background(), mock, nil, ScanOptions{
		Dir:     dir,
		Workers: 1,
		OnSkip: func(path string, err error) {
			skipped = append(skipped, path)
			assert.ErrorIs(t, err, ffmpeg.ErrExtract)
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{b}, skipped)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Originals)
	assert.Equal(t, 0, res.Duplicates)

	// the failed file appears nowhere, neither as original nor duplicate
	assert.Empty(t, graph)
}

func TestScan_IgnoresNonVideoFiles(t *testing.T) {
	dir := t.TempDir()
	writeVideo(t, dir, "a.mp4")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.jpg"), []byte("img"), 0644))

	_, res, err := Scan(context.Background(), ffmpeg.NewMock(), nil, ScanOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Found)
}

func TestScan_Recursive(t *testing.T) {
	dir := t.TempDir()
	writeVideo(t, dir, "top.mp4")
	writeVideo(t, dir, filepath.Join("sub", "nested.mp4"))

	_, res, err := Scan(context.Background(), ffmpeg.NewMock(), nil, ScanOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Found, "flat scan must not descend")

	_, res, err = Scan(context.Background(), ffmpeg.NewMock(), nil, ScanOptions{Dir: dir, Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Found)
}

func TestScan_EmptyDir(t *testing.T) {
	graph, res, err := Scan(context.Background(), ffmpeg.NewMock(), nil, ScanOptions{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Found)
	assert.Empty(t, graph)
}

func TestScan_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := writeVideo(t, dir, "a.mp4")

	_, _, err := Scan(context.Background(), ffmpeg.NewMock(), nil, ScanOptions{Dir: file})
	assert.Error(t, err)

	_, _, err = Scan(context.Background(), ffmpeg.NewMock(), nil, ScanOptions{Dir: filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestScan_Progress(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a.mp4", "b.mp4", "c.mp4"} {
		writeVideo(t, dir, n)
	}

	var calls int
	var lastDone, lastTotal int
	_, _, err := Scan(context.Background(), ffmpeg.NewMock(), nil, ScanOptions{
		Dir:     dir,
		Workers: 2,
		OnProgress: func(done, total int) {
			calls++
			lastDone, lastTotal = done, total
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, lastDone)
	assert.Equal(t, 3, lastTotal)
}

func TestScan_UsesSignatureCache(t *testing.T) {
	dir := t.TempDir()
	a := writeVideo(t, dir, "a.mp4")
	b := writeVideo(t, dir, "b.mp4")

	mock := ffmpeg.NewMock()
	mock.Frames[a] = stripeFrame()
	mock.Frames[b] = stripeFrame()

	cache, err := store.New(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	require.NoError(t, cache.Initialize())
	defer cache.Close()

	opts := ScanOptions{Dir: dir, Workers: 1}

	graph1, res, err := Scan(context.Background(), mock, cache, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Built)
	assert.Equal(t, 0, res.CacheHits)
	callsAfterFirst := mock.Calls()

	graph2, res, err := Scan(context.Background(), mock, cache, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Built)
	assert.Equal(t, 2, res.CacheHits)
	assert.Equal(t, callsAfterFirst, mock.Calls(), "cached files must not be re-extracted")
	assert.Equal(t, graph1, graph2)
}

func TestScan_CacheMissOnDifferentParameters(t *testing.T) {
	dir := t.TempDir()
	writeVideo(t, dir, "a.mp4")

	cache, err := store.New(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	require.NoError(t, cache.Initialize())
	defer cache.Close()

	mock := ffmpeg.NewMock()

	_, res, err := Scan(context.Background(), mock, cache, ScanOptions{Dir: dir, Timestamps: []float64{5}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Built)

	_, res, err = Scan(context.Background(), mock, cache, ScanOptions{Dir: dir, Timestamps: []float64{5, 30}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Built, "different timestamps must bypass the cached signature")
	assert.Equal(t, 0, res.CacheHits)
}

func TestScan_GraphSurvivesSaveLoad(t *testing.T) {
	dir := t.TempDir()
	a := writeVideo(t, dir, "a.mp4")
	b := writeVideo(t, dir, "b.mp4")

	mock := ffmpeg.NewMock()
	mock.Frames[a] = stripeFrame()
	mock.Frames[b] = stripeFrame()

	graph, _, err := Scan(context.Background(), mock, nil, ScanOptions{Dir: dir, Workers: 1})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, graph.Save(path))

	loaded, err := models.LoadGraph(path)
	require.NoError(t, err)
	assert.Equal(t, graph, loaded)
}
