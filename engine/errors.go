package engine

/*------------------------------------------------------------------
 *
 * Purpose: Error taxonomy for the sampling engine.
 *
 * Nothing on the audio thread ever returns one of these through
 * RenderBlock or the event-ingest calls: recoverable conditions are
 * folded into Diagnostics instead, and only off-audio-thread calls
 * (Load, SetSampleRate, ...) return an error to the caller.
 *
 *------------------------------------------------------------------*/

import (
	"errors"
	"strconv"
)

// ErrConfigurationInvalid is returned at the API boundary for out-of-range
// configuration, e.g. a block size outside [1, 8192]. Fatal: the caller must
// fix the call, nothing downstream attempts to recover from it.
var ErrConfigurationInvalid = errors.New("sfzcore: configuration invalid")

// ErrVoicePoolExhausted is recorded in Diagnostics, never returned, when an
// activation cannot be admitted even after stealing was attempted.
var ErrVoicePoolExhausted = errors.New("sfzcore: voice pool exhausted")

// ErrFileMissing is recorded against a region when its sample path cannot be
// resolved on disk. The region is disabled, not the whole load.
var ErrFileMissing = errors.New("sfzcore: sample file missing")

// ErrFileDecodeFailure is recorded against a region when the sample decoder
// collaborator fails to parse a located file.
var ErrFileDecodeFailure = errors.New("sfzcore: sample file decode failed")

// ErrPromiseQueueFull is recorded when the background load dispatch queue is
// saturated; the affected region keeps playing from its preload head only.
var ErrPromiseQueueFull = errors.New("sfzcore: file load queue full")

// RegionError pairs a region-scoped failure with the region that hit it, for
// the queryable diagnostic list of unknown opcodes and parse warnings.
type RegionError struct {
	RegionID int
	Sample   string
	Err      error
}

func (e *RegionError) Error() string {
	return "region " + strconv.Itoa(e.RegionID) + " (" + e.Sample + "): " + e.Err.Error()
}

func (e *RegionError) Unwrap() error {
	return e.Err
}

// OpcodeWarning records an unknown or malformed opcode encountered while
// aggregating parser records into regions. Non-fatal by construction.
type OpcodeWarning struct {
	Header string
	Name   string
	Value  string
	Reason string
}
