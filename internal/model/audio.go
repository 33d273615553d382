package model

import "time"

// AudioType distinguishes uploaded recordings from synthesized prompts.
type AudioType string

const (
	AudioUploaded AudioType = "uploaded"
	AudioTTS      AudioType = "tts"
)

// IsValid checks whether the audio type is a known value.
func (t AudioType) IsValid() bool {
	switch t {
	case AudioUploaded, AudioTTS:
		return true
	}
	return false
}

// Audio is a prompt file available to an organization's flows. The engine
// path is the copy the telephony engine plays; the storage path is the
// durable object-store mirror when one is configured.
type Audio struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	Name           string    `json:"name"`
	Type           AudioType `json:"type"`
	Filename       string    `json:"filename"`
	MimeType       string    `json:"mimeType"`
	SizeBytes      int64     `json:"sizeBytes"`
	StoragePath    string    `json:"storagePath,omitempty"`
	EnginePath     string    `json:"enginePath"`
	TTSText        string    `json:"ttsText,omitempty"`
	TTSVoice       string    `json:"ttsVoice,omitempty"`
	TTSCharsUsed   int       `json:"ttsCharsUsed,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// TTSRequest asks for a prompt to be synthesized from text.
type TTSRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}
