package main

/*------------------------------------------------------------------
 *
 * Purpose:   	Real-time demo host for the SFZ sampling engine:
 *
 *			Loads an instrument file through the in-tree SFZ
 *			parser.
 *			Opens a portaudio output stream at the configured
 *			sample rate and block size.
 *			Drives engine.Synth from a scripted event file or
 *			from stdin, one event per line.
 *			Reports unrecognised opcodes after parsing and the
 *			disabled-region count after loading.
 *
 *------------------------------------------------------------------*/

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/spf13/pflag"

	"github.com/samoyed-audio/sfzcore/engine"
)

func main() {
	var (
		sampleRate   = pflag.IntP("sample-rate", "r", 48000, "Output sample rate in Hz.")
		blockSize    = pflag.IntP("block-size", "b", 512, "Frames per render block.")
		numVoices    = pflag.IntP("voices", "n", 64, "Maximum simultaneous voices.")
		fileWorkers  = pflag.IntP("file-workers", "w", 2, "Background sample-load worker count.")
		preloadSize  = pflag.IntP("preload", "p", 8192, "Frames of each sample preloaded synchronously at load time.")
		configPath   = pflag.StringP("config", "c", "", "Optional YAML file overlaying engine defaults.")
		scriptPath   = pflag.StringP("script", "s", "", "Event script file (default: read from stdin).")
		logDir       = pflag.StringP("log-dir", "l", "", "Directory for daily-rotating session log files.")
		device       = pflag.StringP("device", "D", "", "Output device name substring to match (default: system default).")
		help         = pflag.Bool("help", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s plays an SFZ-style instrument through the default sound card.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTION]... <INSTRUMENT FILE>\n", os.Args[0])
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Event script lines (one per line, fed from --script or stdin):\n")
		fmt.Fprintf(os.Stderr, "  on <key> <velocity 0..1>\n")
		fmt.Fprintf(os.Stderr, "  off <key>\n")
		fmt.Fprintf(os.Stderr, "  cc <number> <value 0..1>\n")
		fmt.Fprintf(os.Stderr, "  bend <value -1..1>\n")
		fmt.Fprintf(os.Stderr, "  wait <milliseconds>\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "$ sfzplay instruments/piano.sfz <events.txt\n")
		fmt.Fprintf(os.Stderr, "$ printf \"on 60 0.9\\nwait 1000\\noff 60\\n\" | sfzplay instruments/piano.sfz\n")
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	if len(pflag.Args()) == 0 {
		fmt.Fprintln(os.Stderr, "Missing instrument file.")
		pflag.Usage()
		os.Exit(1)
	}

	instrumentPath := pflag.Args()[0]

	logger := engine.NewLogger("sfzplay")
	if *logDir != "" {
		if err := logger.EnableDailyFile(*logDir, ""); err != nil {
			logger.Error("failed to enable daily log file", "err", err)
		}
	}

	cfg := engine.DefaultConfig()
	cfg.SampleRate = *sampleRate
	cfg.SamplesPerBlock = *blockSize
	cfg.NumVoices = *numVoices
	cfg.FileWorkers = *fileWorkers
	cfg.PreloadSize = *preloadSize

	if *configPath != "" {
		var err error

		cfg, err = engine.LoadConfigFile(*configPath, cfg)
		if err != nil {
			logger.Error("failed to load config overlay", "path", *configPath, "err", err)
			os.Exit(1)
		}
	}

	text, err := os.ReadFile(instrumentPath)
	if err != nil {
		logger.Error("failed to read instrument file", "path", instrumentPath, "err", err)
		os.Exit(1)
	}

	records := engine.ParseSFZ(string(text))
	regions, warnings := engine.BuildRegions(records)

	for _, w := range warnings {
		logger.Warn("unrecognised opcode", "name", w.Name, "value", w.Value, "reason", w.Reason)
	}

	synth, err := engine.NewSynth(cfg, logger)
	if err != nil {
		logger.Error("failed to construct synth", "err", err)
		os.Exit(1)
	}
	defer synth.Close()

	synth.Load(regions, engine.WAVDecoder{})

	diag := synth.Diagnostics()
	logger.Info("instrument loaded", "regions", len(regions), "disabled", len(diag.DisabledRegions))

	if err := portaudio.Initialize(); err != nil {
		logger.Error("portaudio init failed", "err", err)
		os.Exit(1)
	}
	defer portaudio.Terminate()

	stream, err := openStream(*device, cfg, synth)
	if err != nil {
		logger.Error("failed to open output stream", "err", err)
		os.Exit(1)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		logger.Error("failed to start output stream", "err", err)
		os.Exit(1)
	}
	defer stream.Stop()

	var script io.Reader = os.Stdin

	if *scriptPath != "" {
		f, err := os.Open(*scriptPath)
		if err != nil {
			logger.Error("failed to open event script", "path", *scriptPath, "err", err)
			os.Exit(1)
		}
		defer f.Close()

		script = f
	}

	runScript(synth, script, logger)

	// Let release tails ring out before tearing the stream down.
	time.Sleep(500 * time.Millisecond)
}

// openStream picks the default output device, or the first device whose name
// contains deviceSubstring if one was requested, and opens a stream whose
// callback renders one engine block per portaudio buffer.
func openStream(deviceSubstring string, cfg engine.Config, synth *engine.Synth) (*portaudio.Stream, error) {
	outBuf := engine.NewAudioBuffer(engine.MaxBusChannels, cfg.SamplesPerBlock)

	callback := func(out [][]float32) {
		n := len(out[0])
		if n > cfg.SamplesPerBlock {
			n = cfg.SamplesPerBlock
		}

		synth.RenderBlock(outBuf, n)

		left := outBuf.ChannelN(0, n).Raw()
		right := outBuf.ChannelN(1, n).Raw()

		for i := 0; i < n; i++ {
			out[0][i] = left[i]
			if len(out) > 1 {
				out[1][i] = right[i]
			}
		}
	}

	if deviceSubstring == "" {
		return portaudio.OpenDefaultStream(0, 2, float64(cfg.SampleRate), cfg.SamplesPerBlock, callback)
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	for _, d := range devices {
		if d.MaxOutputChannels > 0 && strings.Contains(strings.ToLower(d.Name), strings.ToLower(deviceSubstring)) {
			params := portaudio.HighLatencyParameters(nil, d)
			params.SampleRate = float64(cfg.SampleRate)
			params.FramesPerBuffer = cfg.SamplesPerBlock

			return portaudio.OpenStream(params, callback)
		}
	}

	return portaudio.OpenDefaultStream(0, 2, float64(cfg.SampleRate), cfg.SamplesPerBlock, callback)
}

// runScript reads one event per line from r and applies it to synth,
// blocking in real time between events so "wait" lines pace playback the way
// a human player would.
func runScript(synth *engine.Synth, r io.Reader, logger *engine.Logger) {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)

		switch fields[0] {
		case "on":
			if len(fields) < 3 {
				continue
			}

			key := atoiOrZero(fields[1])
			vel := atofOrZero(fields[2])
			synth.NoteOn(0, key, vel)
		case "off":
			if len(fields) < 2 {
				continue
			}

			synth.NoteOff(0, atoiOrZero(fields[1]))
		case "cc":
			if len(fields) < 3 {
				continue
			}

			synth.CC(0, atoiOrZero(fields[1]), atofOrZero(fields[2]))
		case "bend":
			if len(fields) < 2 {
				continue
			}

			synth.PitchWheel(0, atofOrZero(fields[1]))
		case "wait":
			if len(fields) < 2 {
				continue
			}

			ms := atoiOrZero(fields[1])
			time.Sleep(time.Duration(ms) * time.Millisecond)
		default:
			logger.Warn("unrecognised script command", "line", line)
		}
	}
}

func atoiOrZero(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func atofOrZero(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
