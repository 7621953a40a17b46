package engine

/*------------------------------------------------------------------
 *
 * Purpose: Read-only queryable engine state for host UIs and test
 * assertions: which regions failed to load, how many voices are
 * live, how many distinct files are known to the pool.
 *
 *------------------------------------------------------------------*/

// Diagnostics is a point-in-time snapshot of engine health, returned by
// Synth.Diagnostics.
type Diagnostics struct {
	DisabledRegions    []int
	UnknownOpcodes     []OpcodeWarning
	VoiceStealFailures int
	NumActiveVoices    int
	KnownFiles         int
	FileLoadQueueFull  int
}
