package engine

/*------------------------------------------------------------------
 *
 * Purpose: Minimal RIFF/WAV decoder implementing the SampleDecoder
 * interface, including RIFF "smpl" loop-chunk extraction.
 *
 * Description: Audio file decoding is an external collaborator; this
 * is a narrow in-tree implementation covering PCM8/PCM16/PCM32F WAV only,
 * sufficient to exercise FilePool end-to-end without a real decoding
 * library. FLAC/OGG stay interface-only.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// WAVDecoder implements SampleDecoder for uncompressed PCM WAV files.
type WAVDecoder struct{}

func (WAVDecoder) Decode(path string) ([]float32, int, int, *LoopInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, 0, nil, err
	}

	return decodeWAVBytes(raw)
}

func decodeWAVBytes(raw []byte) ([]float32, int, int, *LoopInfo, error) {
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, 0, 0, nil, fmt.Errorf("sfzcore: not a RIFF/WAVE file")
	}

	var (
		channels      int
		sampleRate    int
		bitsPerSample int
		audioFormat   int
		dataBytes     []byte
		loop          *LoopInfo
	)

	pos := 12
	for pos+8 <= len(raw) {
		id := string(raw[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(raw[pos+4 : pos+8]))
		body := pos + 8

		if body+size > len(raw) {
			break
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, 0, nil, fmt.Errorf("sfzcore: fmt chunk too small")
			}

			audioFormat = int(binary.LittleEndian.Uint16(raw[body : body+2]))
			channels = int(binary.LittleEndian.Uint16(raw[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(raw[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(raw[body+14 : body+16]))
		case "data":
			dataBytes = raw[body : body+size]
		case "smpl":
			loop = parseSmplChunk(raw[body : body+size])
		}

		pos = body + size
		if pos%2 == 1 {
			pos++ // RIFF chunks are word-aligned
		}
	}

	if channels == 0 || sampleRate == 0 || dataBytes == nil {
		return nil, 0, 0, nil, fmt.Errorf("sfzcore: missing fmt or data chunk")
	}

	pcm, err := pcmToFloat32(dataBytes, bitsPerSample, audioFormat)
	if err != nil {
		return nil, 0, 0, nil, err
	}

	return pcm, sampleRate, channels, loop, nil
}

func pcmToFloat32(data []byte, bitsPerSample, audioFormat int) ([]float32, error) {
	const wavFormatPCM = 1
	const wavFormatIEEEFloat = 3

	switch {
	case audioFormat == wavFormatIEEEFloat && bitsPerSample == 32:
		out := make([]float32, len(data)/4)
		for i := range out {
			bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
			out[i] = math.Float32frombits(bits)
		}

		return out, nil
	case audioFormat == wavFormatPCM && bitsPerSample == 16:
		out := make([]float32, len(data)/2)
		for i := range out {
			v := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
			out[i] = float32(v) / 32768.0
		}

		return out, nil
	case audioFormat == wavFormatPCM && bitsPerSample == 8:
		out := make([]float32, len(data))
		for i, b := range data {
			out[i] = (float32(b) - 128) / 128.0
		}

		return out, nil
	default:
		return nil, fmt.Errorf("sfzcore: unsupported WAV format %d/%d bits", audioFormat, bitsPerSample)
	}
}

// parseSmplChunk extracts the first loop record of a RIFF "smpl" chunk: a
// 36-byte header followed by numLoops * 24-byte loop records.
func parseSmplChunk(body []byte) *LoopInfo {
	const headerLen = 36
	const loopRecordLen = 24

	if len(body) < headerLen+loopRecordLen {
		return nil
	}

	numLoops := binary.LittleEndian.Uint32(body[28:32])
	if numLoops == 0 {
		return nil
	}

	rec := body[headerLen : headerLen+loopRecordLen]

	return &LoopInfo{
		Mode:  int32(binary.LittleEndian.Uint32(rec[4:8])),
		Start: binary.LittleEndian.Uint32(rec[8:12]),
		End:   binary.LittleEndian.Uint32(rec[12:16]),
		Count: binary.LittleEndian.Uint32(rec[20:24]),
	}
}
