package engine

/*------------------------------------------------------------------
 *
 * Purpose: Two-tier sample store: preload cache + streaming queue +
 * background worker threads + GC thread, all coordinating with the
 * audio thread through the FileData handle protocol without ever
 * blocking it.
 *
 * Description: The worker-pool/GC-thread split follows
 * the producer/consumer queue shape of a bounded work queue feeding
 * a fixed goroutine pool, with a ticker-driven background sweep for
 * LRU eviction, rather than an async/await scheduler — the handle
 * protocol needs explicit, inspectable publication ordering, which a
 * plain channel + atomic counter gives directly.
 *
 *------------------------------------------------------------------*/

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// SampleDecoder is the external collaborator that turns a file on disk into
// PCM frames plus metadata. A minimal WAV-only implementation lives in
// wavdecode.go; FLAC/OGG are out of scope here and left to a real decoder.
type SampleDecoder interface {
	Decode(path string) (pcm []float32, sampleRate int, channels int, loop *LoopInfo, err error)
}

// loadJob is one unit of background work: fully load (or stream) path into
// data.
type loadJob struct {
	data *FileData
	path string
}

// FilePool owns every distinct (path, reverse) FileData, the bounded load
// queue, the worker pool, and the GC sweep.
type FilePool struct {
	mu      sync.RWMutex
	entries map[FileID]*FileData

	decoder SampleDecoder
	logger  *Logger

	preloadFrames int
	oversampling  int

	jobs      chan loadJob
	workers   int
	wg        sync.WaitGroup
	closeOnce sync.Once
	stop      chan struct{}

	gcInterval  time.Duration
	gcGrace     time.Duration
	gcStop      chan struct{}
	gcWG        sync.WaitGroup

	freewheeling bool

	queueFullCount atomic.Int32 // diagnostic counter, read concurrently by Diagnostics
}

// NewFilePool builds a pool with the given number of worker goroutines and
// preload size (frames; the actual per-file preload length also accounts
// for each region's max offset, applied by the caller before calling
// Preload).
func NewFilePool(decoder SampleDecoder, logger *Logger, workers, preloadFrames, oversampling int) *FilePool {
	if workers < 1 {
		workers = 1
	}

	p := &FilePool{
		entries:       make(map[FileID]*FileData),
		decoder:       decoder,
		logger:        logger,
		preloadFrames: preloadFrames,
		oversampling:  oversampling,
		jobs:          make(chan loadJob, 256),
		workers:       workers,
		stop:          make(chan struct{}),
		gcInterval:    time.Second,
		gcGrace:       10 * time.Second,
		gcStop:        make(chan struct{}),
	}

	p.startWorkers()
	p.startGC()

	return p
}

func (p *FilePool) startWorkers() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)

		go func() {
			defer p.wg.Done()
			p.workerLoop()
		}()
	}
}

func (p *FilePool) workerLoop() {
	for {
		select {
		case <-p.stop:
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}

			p.runLoadJob(job)
		}
	}
}

func (p *FilePool) runLoadJob(job loadJob) {
	pcm, sampleRate, channels, loop, err := p.decoder.Decode(job.path)
	if err != nil {
		job.data.setStatus(FileInvalid)

		if p.logger != nil {
			p.logger.Warn("sample decode failed", "path", job.path, "err", err)
		}

		return
	}

	if p.oversampling > 1 {
		pcm = Oversample(pcm, p.oversampling)
		sampleRate = OversampledRate(sampleRate, p.oversampling)
	}

	job.data.SampleRate = sampleRate
	job.data.Channels = channels
	job.data.Loop = loop
	job.data.TotalFrames = len(pcm) / maxInt(channels, 1)
	job.data.Full = pcm
	job.data.setStatus(FileStreaming)

	// Publish progressively so a long file doesn't appear atomically; here
	// the decode already ran to completion so we publish once, but the
	// field exists precisely so a chunked decoder could publish as it goes.
	job.data.AvailableFrames.Store(int64(job.data.TotalFrames))
	job.data.setStatus(FileDone)
}

// GetOrCreate returns the existing FileData for id, or registers a new one
// and enqueues a background load job for it. Safe to call from the audio
// thread's region-activation path (the common case is a cache hit taking
// only an RLock); when a new FileData is created, the path resolution and
// actual decode happen entirely on a worker goroutine.
func (p *FilePool) GetOrCreate(id FileID, resolvedPath string) *FileData {
	p.mu.RLock()
	if fd, ok := p.entries[id]; ok {
		p.mu.RUnlock()
		return fd
	}
	p.mu.RUnlock()

	p.mu.Lock()
	if fd, ok := p.entries[id]; ok {
		p.mu.Unlock()
		return fd
	}

	fd := &FileData{ID: id}
	fd.setStatus(FilePreloaded)
	p.entries[id] = fd
	p.mu.Unlock()

	select {
	case p.jobs <- loadJob{data: fd, path: resolvedPath}:
	default:
		p.queueFullCount.Add(1)

		if p.logger != nil {
			p.logger.Warn("file load queue full, playing from preload head only", "path", resolvedPath)
		}
	}

	return fd
}

// PreloadSync performs a synchronous decode used to populate the preload
// head at region-load time (off the audio thread, per the Synth.Load
// contract). It also seeds the full buffer so small samples are available
// immediately without waiting on the worker pool.
func (p *FilePool) PreloadSync(id FileID, resolvedPath string) (*FileData, error) {
	p.mu.Lock()
	if fd, ok := p.entries[id]; ok {
		p.mu.Unlock()
		return fd, nil
	}
	p.mu.Unlock()

	pcm, sampleRate, channels, loop, err := p.decoder.Decode(resolvedPath)
	if err != nil {
		return nil, err
	}

	if p.oversampling > 1 {
		pcm = Oversample(pcm, p.oversampling)
		sampleRate = OversampledRate(sampleRate, p.oversampling)
	}

	fd := &FileData{
		ID:          id,
		SampleRate:  sampleRate,
		Channels:    channels,
		Loop:        loop,
		TotalFrames: len(pcm) / maxInt(channels, 1),
	}

	headFrames := p.preloadFrames
	if headFrames <= 0 || headFrames >= fd.TotalFrames {
		fd.PreloadHead = pcm
		fd.Full = pcm
		fd.setStatus(FileFullLoaded)
		fd.AvailableFrames.Store(int64(fd.TotalFrames))
	} else {
		headLen := headFrames * channels
		fd.PreloadHead = append([]float32(nil), pcm[:headLen]...)
		fd.Full = pcm
		fd.setStatus(FileStreaming)
		fd.AvailableFrames.Store(int64(headFrames))
	}

	p.mu.Lock()
	p.entries[id] = fd
	p.mu.Unlock()

	return fd, nil
}

// SetFreewheeling toggles the offline wait-for-loads-to-complete mode
// (spec §4.6 "Freewheeling mode").
func (p *FilePool) SetFreewheeling(on bool) { p.freewheeling = on }

// WaitForPendingLoads blocks (only legal in freewheeling/offline mode) until
// the job queue has drained.
func (p *FilePool) WaitForPendingLoads() {
	if !p.freewheeling {
		return
	}

	for len(p.jobs) > 0 {
		time.Sleep(time.Millisecond)
	}
}

func (p *FilePool) startGC() {
	p.gcWG.Add(1)

	go func() {
		defer p.gcWG.Done()

		ticker := time.NewTicker(p.gcInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.gcStop:
				return
			case <-ticker.C:
				p.sweep()
			}
		}
	}()
}

// sweep evicts streamed bodies (not preload heads) for entries whose reader
// count is zero and whose release timestamp is older than the grace window.
func (p *FilePool) sweep() {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, fd := range p.entries {
		if fd.ReaderCount() > 0 {
			continue
		}

		releasedAt := fd.releasedAt.Load()
		if releasedAt == 0 {
			continue
		}

		if now.Sub(time.Unix(0, releasedAt)) < p.gcGrace {
			continue
		}

		if fd.Status() == FileFullLoaded {
			continue // no separate streamed body to drop, head == full
		}

		fd.Full = nil
		fd.AvailableFrames.Store(int64(len(fd.PreloadHead) / maxInt(fd.Channels, 1)))
		fd.setStatus(FilePreloaded)
	}
}

// Shutdown signals the workers to drain and stops the GC thread,
// matching the cancellation contract: pending jobs are discarded, workers
// join after their current job.
func (p *FilePool) Shutdown() {
	p.closeOnce.Do(func() {
		close(p.stop)
		close(p.gcStop)
	})
	p.wg.Wait()
	p.gcWG.Wait()
}

// QueueFullCount reports how many times a background load request found the
// dispatch queue saturated and fell back to preload-head-only playback.
func (p *FilePool) QueueFullCount() int {
	return int(p.queueFullCount.Load())
}

// Entries returns a stable-ordered snapshot of all known file identities,
// for diagnostics.
func (p *FilePool) Entries() []FileID {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]FileID, 0, len(p.entries))
	for id := range p.entries {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i].Path < ids[j].Path })

	return ids
}
