package tts

import (
	"context"
	"encoding/binary"
	"testing"
)

func TestPlaceholderSynthesize(t *testing.T) {
	res, err := Placeholder{}.Synthesize(context.Background(), "bom dia", "default")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.CharsUsed != 7 {
		t.Errorf("CharsUsed = %d, want 7", res.CharsUsed)
	}

	wav := res.WAV
	if len(wav) < 44 {
		t.Fatalf("WAV too short: %d bytes", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 8000 {
		t.Errorf("sample rate = %d, want 8000", rate)
	}
	if ch := binary.LittleEndian.Uint16(wav[22:24]); ch != 1 {
		t.Errorf("channels = %d, want 1", ch)
	}
	dataLen := binary.LittleEndian.Uint32(wav[40:44])
	if int(dataLen) != len(wav)-44 {
		t.Errorf("data chunk size %d does not match payload %d", dataLen, len(wav)-44)
	}
}

func TestPlaceholderCapsAudioSize(t *testing.T) {
	long := make([]byte, 4000)
	for i := range long {
		long[i] = 'a'
	}
	res, err := Placeholder{}.Synthesize(context.Background(), string(long), "")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(res.WAV) > 44+16000 {
		t.Errorf("WAV %d bytes, want at most %d", len(res.WAV), 44+16000)
	}
	if res.CharsUsed != 4000 {
		t.Errorf("CharsUsed = %d, want 4000", res.CharsUsed)
	}
}
