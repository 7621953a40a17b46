package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDecoder serves fixed-length mono PCM for any path not listed in
// missing, so tests can exercise both the happy and the disabled-region path
// without touching the filesystem.
type fakeDecoder struct {
	frames  int
	missing map[string]bool
}

func (d fakeDecoder) Decode(path string) ([]float32, int, int, *LoopInfo, error) {
	if d.missing[path] {
		return nil, 0, 0, nil, fmt.Errorf("no such file: %s", path)
	}

	pcm := make([]float32, d.frames)
	for i := range pcm {
		pcm[i] = float32(i) / float32(d.frames)
	}

	return pcm, 48000, 1, nil, nil
}

func TestFilePoolPreloadSyncSplitsHeadAndFullBuffer(t *testing.T) {
	p := NewFilePool(fakeDecoder{frames: 1000}, nil, 1, 100, 1)
	defer p.Shutdown()

	fd, err := p.PreloadSync(FileID{Path: "a.wav"}, "a.wav")
	require.NoError(t, err)

	assert.Equal(t, 1000, fd.TotalFrames)
	assert.Equal(t, 100, len(fd.PreloadHead))
	assert.Equal(t, FileStreaming, fd.Status())
	assert.Equal(t, int64(100), fd.AvailableFrames.Load())
}

func TestFilePoolPreloadSyncFullyLoadsSmallFiles(t *testing.T) {
	p := NewFilePool(fakeDecoder{frames: 50}, nil, 1, 100, 1)
	defer p.Shutdown()

	fd, err := p.PreloadSync(FileID{Path: "small.wav"}, "small.wav")
	require.NoError(t, err)

	assert.Equal(t, FileFullLoaded, fd.Status())
	assert.Equal(t, int64(50), fd.AvailableFrames.Load())
}

func TestFilePoolPreloadSyncReturnsSameEntryOnRepeatedCalls(t *testing.T) {
	p := NewFilePool(fakeDecoder{frames: 100}, nil, 1, 10, 1)
	defer p.Shutdown()

	id := FileID{Path: "a.wav"}
	first, err := p.PreloadSync(id, "a.wav")
	require.NoError(t, err)

	second, err := p.PreloadSync(id, "a.wav")
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestFilePoolPreloadSyncPropagatesDecodeError(t *testing.T) {
	p := NewFilePool(fakeDecoder{frames: 100, missing: map[string]bool{"gone.wav": true}}, nil, 1, 10, 1)
	defer p.Shutdown()

	_, err := p.PreloadSync(FileID{Path: "gone.wav"}, "gone.wav")
	assert.Error(t, err)
}

func TestFilePoolGetOrCreateRunsBackgroundLoad(t *testing.T) {
	p := NewFilePool(fakeDecoder{frames: 200}, nil, 2, 50, 1)
	defer p.Shutdown()

	fd := p.GetOrCreate(FileID{Path: "bg.wav"}, "bg.wav")

	require.Eventually(t, func() bool {
		return fd.Status() == FileDone
	}, time.Second, time.Millisecond, "background worker should finish loading")

	assert.Equal(t, 200, fd.TotalFrames)
}

func TestFilePoolGetOrCreateReusesExistingEntry(t *testing.T) {
	p := NewFilePool(fakeDecoder{frames: 200}, nil, 1, 50, 1)
	defer p.Shutdown()

	id := FileID{Path: "bg.wav"}
	first := p.GetOrCreate(id, "bg.wav")
	second := p.GetOrCreate(id, "bg.wav")

	assert.Same(t, first, second)
}

func TestFilePoolEntriesListsKnownFilesSorted(t *testing.T) {
	p := NewFilePool(fakeDecoder{frames: 10}, nil, 1, 5, 1)
	defer p.Shutdown()

	_, _ = p.PreloadSync(FileID{Path: "b.wav"}, "b.wav")
	_, _ = p.PreloadSync(FileID{Path: "a.wav"}, "a.wav")

	ids := p.Entries()
	require.Len(t, ids, 2)
	assert.Equal(t, "a.wav", ids[0].Path)
	assert.Equal(t, "b.wav", ids[1].Path)
}

func TestFilePoolWaitForPendingLoadsIsNoOpOutsideFreewheeling(t *testing.T) {
	p := NewFilePool(fakeDecoder{frames: 10}, nil, 1, 5, 1)
	defer p.Shutdown()

	assert.NotPanics(t, p.WaitForPendingLoads)
}

func TestFilePoolQueueFullCountStartsAtZero(t *testing.T) {
	p := NewFilePool(fakeDecoder{frames: 10}, nil, 1, 5, 1)
	defer p.Shutdown()

	assert.Equal(t, 0, p.QueueFullCount())
}
