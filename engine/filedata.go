package engine

/*------------------------------------------------------------------
 *
 * Purpose: Shared per-sample storage: preloaded head plus optional
 * full-file streamed body, with a lock-free handle protocol for the
 * audio thread.
 *
 *------------------------------------------------------------------*/

import (
	"sync/atomic"
	"time"
)

// FileStatus is the lifecycle state of one FileData entry.
type FileStatus int32

const (
	FileInvalid FileStatus = iota
	FilePreloaded
	FileStreaming
	FileDone
	FileFullLoaded
)

// LoopInfo captures loop metadata extracted from a sample's container
// format (RIFF smpl / AIFF INST+MARK / FLAC application block).
type LoopInfo struct {
	Start uint32
	End   uint32
	Count uint32 // 0 means infinite
	Mode  int32  // 0:forward, 1:alternating, 2:backward, matching the smpl chunk encoding
}

// FileID identifies one distinct (path, reverse) sample identity.
type FileID struct {
	Path    string
	Reverse bool
}

// FileData is the shared record for one distinct sample identity: a
// preloaded head resident for the engine's lifetime, and an optional full
// buffer filled in by background workers. Buffers are written only by
// workers and read only by voices; resizes happen only when the reader
// count is zero (enforced by FilePool's garbage collector).
type FileData struct {
	ID FileID

	SampleRate   int
	Channels     int
	Loop         *LoopInfo
	TotalFrames  int

	PreloadHead []float32 // interleaved by Channels; length = preloaded frame count * Channels

	// Full holds the complete sample once streaming/full-load completes (or
	// is being filled in progressively by a worker). AvailableFrames is the
	// monotonically non-decreasing count of frames validly populated in
	// Full, published with release-store semantics so the audio thread's
	// load reads a consistent prefix.
	Full            []float32
	AvailableFrames atomic.Int64

	status     atomic.Int32
	readers    atomic.Int32
	releasedAt atomic.Int64 // unix nanos of last reader release, for LRU GC
}

// Status returns the current lifecycle state.
func (f *FileData) Status() FileStatus {
	return FileStatus(f.status.Load())
}

func (f *FileData) setStatus(s FileStatus) {
	f.status.Store(int32(s))
}

// ReaderCount reports the number of outstanding handles, for diagnostics and
// for the GC thread's eligibility check.
func (f *FileData) ReaderCount() int32 {
	return f.readers.Load()
}

// FileHandle is a RAII-style guard held by the audio thread for the
// duration of one voice's playback of this sample. Acquire never blocks or
// allocates beyond the handle struct itself (stack-allocatable by escape
// analysis in the common case); Release must always be called exactly once.
type FileHandle struct {
	data *FileData
}

// AcquireFileHandle increments the reader count and returns a handle. Never
// blocks.
func AcquireFileHandle(f *FileData) FileHandle {
	f.readers.Add(1)

	return FileHandle{data: f}
}

// Release decrements the reader count and records the release timestamp for
// LRU eviction eligibility.
func (h FileHandle) Release() {
	if h.data == nil {
		return
	}

	h.data.readers.Add(-1)
	h.data.releasedAt.Store(time.Now().UnixNano())
}

// Data exposes the underlying FileData for reads.
func (h FileHandle) Data() *FileData { return h.data }

// FrameAt returns the interleaved sample frame starting at index idx,
// splicing the preloaded head in for indices below its length and the
// streamed/full body beyond it, never reading past AvailableFrames. Returns
// false if idx is beyond everything currently available (an audible
// underrun, not an out-of-bounds access).
func (f *FileData) FrameAt(idx int, out []float32) bool {
	headFrames := len(f.PreloadHead) / maxInt(f.Channels, 1)

	if idx < headFrames {
		off := idx * f.Channels
		copy(out, f.PreloadHead[off:off+f.Channels])

		return true
	}

	avail := int(f.AvailableFrames.Load())
	if idx >= avail {
		return false
	}

	off := idx * f.Channels
	if off+f.Channels > len(f.Full) {
		return false
	}

	copy(out, f.Full[off:off+f.Channels])

	return true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}
