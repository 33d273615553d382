// Package tts synthesizes prompt audio from text. The shipped synthesizer
// is a placeholder that emits a silent PCM WAV sized to the input text; a
// hosted voice API slots in behind the same interface.
package tts

import (
	"context"
	"encoding/binary"
)

// MaxTextLen is the longest accepted synthesis input, in characters.
const MaxTextLen = 5000

// Result is one synthesized clip.
type Result struct {
	WAV       []byte
	CharsUsed int
}

// Synthesizer turns text into playable audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (Result, error)
}

// Placeholder emits silence: 8 kHz mono 16-bit PCM, roughly 100 bytes of
// audio per input character, capped at one second.
type Placeholder struct{}

const (
	sampleRate    = 8000
	bytesPerChar  = 100
	maxDataBytes  = 16000 // one second of 16-bit mono at 8 kHz
	bitsPerSample = 16
)

func (Placeholder) Synthesize(_ context.Context, text, _ string) (Result, error) {
	dataSize := len(text) * bytesPerChar
	if dataSize > maxDataBytes {
		dataSize = maxDataBytes
	}
	if dataSize%2 != 0 {
		dataSize++
	}
	return Result{
		WAV:       wavFile(make([]byte, dataSize)),
		CharsUsed: len([]rune(text)),
	}, nil
}

// wavFile wraps raw PCM samples in a RIFF/WAVE container.
func wavFile(pcm []byte) []byte {
	const headerSize = 44
	buf := make([]byte, headerSize+len(pcm))

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(buf[22:24], 1)  // mono
	binary.LittleEndian.PutUint32(buf[24:28], sampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], sampleRate*bitsPerSample/8)
	binary.LittleEndian.PutUint16(buf[32:34], bitsPerSample/8)
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[headerSize:], pcm)
	return buf
}
