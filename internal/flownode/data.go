package flownode

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mysbc/sbcadmin/internal/model"
)

// Typed data variants, one per node type that carries configuration. The
// wire format is an open JSON bag; decoding is strict, so unknown keys are
// rejected up front instead of surfacing as placeholder typos at render time.

// PlayAudioData plays a prompt file from the tenant audio directory.
type PlayAudioData struct {
	File string `json:"file"`
}

// TTSData speaks synthesized text.
type TTSData struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// IVRCaptureData prompts and captures digits, branching to the declared
// fail/timeout targets.
type IVRCaptureData struct {
	Prompt    string `json:"prompt"`
	MinDigits int    `json:"minDigits"`
	MaxDigits int    `json:"maxDigits"`
	TimeoutMs int    `json:"timeoutMs"`
	Tries     int    `json:"tries"`
	Regex     string `json:"regex,omitempty"`
	OnFail    string `json:"onFail"`
	OnTimeout string `json:"onTimeout"`
}

// ForwardData forwards the call to a dialplan destination.
type ForwardData struct {
	Destination string `json:"destination"`
}

// AnswerData answers the call when enabled.
type AnswerData struct {
	Enabled bool `json:"enabled"`
}

// SetDefaultsData seeds channel variables for the rest of the flow.
type SetDefaultsData struct {
	OrganizationID string   `json:"organizationID,omitempty"`
	ExtraVars      []string `json:"extraVars,omitempty"` // "NAME=value" pairs
}

// CollectDigitsData runs play_and_get_digits into a named variable.
type CollectDigitsData struct {
	VarName       string `json:"varName"`
	Min           int    `json:"min"`
	Max           int    `json:"max"`
	Tries         int    `json:"tries"`
	TimeoutMs     int    `json:"timeoutMs"`
	Terminator    string `json:"terminator"`
	Prompt        string `json:"prompt"`
	InvalidPrompt string `json:"invalidPrompt"`
}

// SanitizeDigitsData strips non-digits from a source variable into a target.
type SanitizeDigitsData struct {
	SourceVar string `json:"sourceVar"`
	TargetVar string `json:"targetVar"`
}

// ValidateWithScriptData invokes an engine-side script (lua or python).
type ValidateWithScriptData struct {
	Language string `json:"language"`
	Script   string `json:"script"`
	Args     string `json:"args"`
}

// FeedbackWhileValidatingData plays a hold prompt during validation.
type FeedbackWhileValidatingData struct {
	File string `json:"file"`
}

// BranchByStatusData branches on a status variable (OK/NOT_FOUND/ERROR).
type BranchByStatusData struct {
	StatusVar    string `json:"statusVar"`
	OKPath       string `json:"okPath"`
	NotFoundPath string `json:"notFoundPath"`
	ErrorPath    string `json:"errorPath"`
}

// RouteResultData routes on a result variable (callcenter:/transfer:/bridge:).
type RouteResultData struct {
	ResultVar   string `json:"resultVar"`
	SuccessPath string `json:"successPath"`
	FailurePath string `json:"failurePath"`
}

// OfferFallbackData offers an operator fallback after a failed lookup.
type OfferFallbackData struct {
	Prompt        string `json:"prompt"`
	YesPath       string `json:"yesPath"`
	NoPath        string `json:"noPath"`
	FallbackQueue string `json:"fallbackQueue,omitempty"`
}

// TransferData transfers to an extension.
type TransferData struct {
	Destination string `json:"destination"`
}

// BridgeData bridges to an endpoint (e.g. sofia/gateway/...).
type BridgeData struct {
	Destination string `json:"destination"`
}

// CallcenterData enqueues into a callcenter queue.
type CallcenterData struct {
	Queue string `json:"queue"`
}

// HangupData hangs up with a cause code.
type HangupData struct {
	Cause string `json:"cause"`
}

// SurveyCsatData hands the call to a CSAT survey script.
type SurveyCsatData struct {
	SurveyID string `json:"surveyId"`
}

// HTTPRequestData calls an external webhook during the flow.
type HTTPRequestData struct {
	URL    string `json:"url"`
	Method string `json:"method,omitempty"`
}

// decodeStrict unmarshals a node's data bag into dst, rejecting unknown keys.
// A nil/empty bag decodes to the zero value.
func decodeStrict(node *model.Node, dst any) error {
	if len(node.Data) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(node.Data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%s data (node: %s): %w", node.Type, node.ID, err)
	}
	return nil
}

// Decode unmarshals a node's data bag into a typed variant. Shared with the
// config generator, which renders from the same variants the validators
// checked.
func Decode[T any](node *model.Node) (T, error) {
	var v T
	err := decodeStrict(node, &v)
	return v, err
}

// decoderFor returns a Decode function for a given variant type.
func decoderFor[T any]() func(node *model.Node) error {
	return func(node *model.Node) error {
		var v T
		return decodeStrict(node, &v)
	}
}
