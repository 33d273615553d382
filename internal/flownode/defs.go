package flownode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mysbc/sbcadmin/internal/model"
)

// Builtin node type names.
const (
	TypeStart                   = "start"
	TypeEnd                     = "end"
	TypePlayAudio               = "play_audio"
	TypeTTS                     = "tts"
	TypeIVRCapture              = "ivr_capture"
	TypeBusinessHours           = "business_hours"
	TypeRecordCall              = "record_call"
	TypeASRSTT                  = "asr_stt"
	TypeCRMCondition            = "crm_condition"
	TypeHTTPRequest             = "http_request"
	TypeForward                 = "forward"
	TypeQueue                   = "queue"
	TypeVoicemail               = "voicemail"
	TypeSurveyCsat              = "survey_csat"
	TypeAnswer                  = "answer"
	TypeSetDefaults             = "set_defaults"
	TypeCollectDigits           = "collect_digits"
	TypeSanitizeDigits          = "sanitize_digits"
	TypeValidateWithScript      = "validate_with_script"
	TypeFeedbackWhileValidating = "feedback_while_validating"
	TypeBranchByStatus          = "branch_by_status"
	TypeRouteResult             = "route_result"
	TypeOfferFallback           = "offer_fallback"
	TypeTransfer                = "transfer"
	TypeBridge                  = "bridge"
	TypeCallcenter              = "callcenter"
	TypeHangup                  = "hangup"
)

// DefaultRegistry builds the registry with every builtin node type. Called
// once at startup; the result must not be mutated afterwards.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	for _, def := range []*Definition{
		{Type: TypeStart, Label: "Start"},
		{Type: TypeEnd, Label: "End"},
		{
			Type:   TypePlayAudio,
			Label:  "Play Audio",
			Decode: decoderFor[PlayAudioData](),
			Validate: func(node *model.Node, _ *model.Graph) error {
				var d PlayAudioData
				if err := decodeStrict(node, &d); err != nil {
					return err
				}
				if d.File == "" {
					return errors.New("play_audio requires existing file")
				}
				return nil
			},
		},
		{
			Type:   TypeTTS,
			Label:  "TTS",
			Decode: decoderFor[TTSData](),
			Validate: func(node *model.Node, _ *model.Graph) error {
				var d TTSData
				if err := decodeStrict(node, &d); err != nil {
					return err
				}
				if strings.TrimSpace(d.Text) == "" {
					return errors.New("tts requires text")
				}
				return nil
			},
		},
		{
			Type:     TypeIVRCapture,
			Label:    "IVR Capture",
			Decode:   decoderFor[IVRCaptureData](),
			Validate: validateIVRCapture,
		},
		{Type: TypeBusinessHours, Label: "Business Hours"},
		{Type: TypeRecordCall, Label: "Record Call"},
		{Type: TypeASRSTT, Label: "ASR/STT"},
		{Type: TypeCRMCondition, Label: "CRM Condition"},
		{Type: TypeHTTPRequest, Label: "HTTP Request", Decode: decoderFor[HTTPRequestData]()},
		{
			Type:   TypeForward,
			Label:  "Forward",
			Decode: decoderFor[ForwardData](),
			Validate: func(node *model.Node, _ *model.Graph) error {
				var d ForwardData
				if err := decodeStrict(node, &d); err != nil {
					return err
				}
				if d.Destination == "" {
					return errors.New("forward requires a destination")
				}
				return nil
			},
		},
		{Type: TypeQueue, Label: "Queue"},
		{Type: TypeVoicemail, Label: "Voicemail"},
		{Type: TypeSurveyCsat, Label: "Survey CSAT", Decode: decoderFor[SurveyCsatData]()},
		{Type: TypeAnswer, Label: "Answer", Decode: decoderFor[AnswerData]()},
		{Type: TypeSetDefaults, Label: "Set Defaults", Decode: decoderFor[SetDefaultsData]()},
		{
			Type:   TypeCollectDigits,
			Label:  "Collect Digits",
			Decode: decoderFor[CollectDigitsData](),
			Validate: func(node *model.Node, _ *model.Graph) error {
				var d CollectDigitsData
				if err := decodeStrict(node, &d); err != nil {
					return err
				}
				if d.VarName == "" {
					return errors.New("collect_digits requires variable name")
				}
				if d.Prompt == "" {
					return errors.New("collect_digits requires prompt file")
				}
				return nil
			},
		},
		{
			Type:   TypeSanitizeDigits,
			Label:  "Sanitize Digits",
			Decode: decoderFor[SanitizeDigitsData](),
			Validate: func(node *model.Node, _ *model.Graph) error {
				var d SanitizeDigitsData
				if err := decodeStrict(node, &d); err != nil {
					return err
				}
				if d.SourceVar == "" || d.TargetVar == "" {
					return errors.New("sanitize_digits requires source and target variables")
				}
				return nil
			},
		},
		{
			Type:   TypeValidateWithScript,
			Label:  "Validate With Script",
			Decode: decoderFor[ValidateWithScriptData](),
			Validate: func(node *model.Node, _ *model.Graph) error {
				var d ValidateWithScriptData
				if err := decodeStrict(node, &d); err != nil {
					return err
				}
				if d.Script == "" {
					return errors.New("validate_with_script requires script file")
				}
				return nil
			},
		},
		{
			Type:   TypeFeedbackWhileValidating,
			Label:  "Feedback While Validating",
			Decode: decoderFor[FeedbackWhileValidatingData](),
			Validate: func(node *model.Node, _ *model.Graph) error {
				var d FeedbackWhileValidatingData
				if err := decodeStrict(node, &d); err != nil {
					return err
				}
				if d.File == "" {
					return errors.New("feedback_while_validating requires file path")
				}
				return nil
			},
		},
		{
			Type:   TypeBranchByStatus,
			Label:  "Branch By Status",
			Decode: decoderFor[BranchByStatusData](),
			Validate: func(node *model.Node, _ *model.Graph) error {
				var d BranchByStatusData
				if err := decodeStrict(node, &d); err != nil {
					return err
				}
				if d.StatusVar == "" {
					return errors.New("branch_by_status requires status variable")
				}
				return nil
			},
		},
		{
			Type:   TypeRouteResult,
			Label:  "Route Result",
			Decode: decoderFor[RouteResultData](),
			Validate: func(node *model.Node, _ *model.Graph) error {
				var d RouteResultData
				if err := decodeStrict(node, &d); err != nil {
					return err
				}
				if d.ResultVar == "" {
					return errors.New("route_result requires result variable")
				}
				return nil
			},
		},
		{
			Type:   TypeOfferFallback,
			Label:  "Offer Fallback",
			Decode: decoderFor[OfferFallbackData](),
			Validate: func(node *model.Node, _ *model.Graph) error {
				var d OfferFallbackData
				if err := decodeStrict(node, &d); err != nil {
					return err
				}
				if d.Prompt == "" {
					return errors.New("offer_fallback requires prompt file")
				}
				return nil
			},
		},
		{
			Type:   TypeTransfer,
			Label:  "Transfer",
			Decode: decoderFor[TransferData](),
			Validate: func(node *model.Node, _ *model.Graph) error {
				var d TransferData
				if err := decodeStrict(node, &d); err != nil {
					return err
				}
				if d.Destination == "" {
					return errors.New("transfer requires destination")
				}
				return nil
			},
		},
		{
			Type:   TypeBridge,
			Label:  "Bridge",
			Decode: decoderFor[BridgeData](),
			Validate: func(node *model.Node, _ *model.Graph) error {
				var d BridgeData
				if err := decodeStrict(node, &d); err != nil {
					return err
				}
				if d.Destination == "" {
					return errors.New("bridge requires destination")
				}
				return nil
			},
		},
		{
			Type:   TypeCallcenter,
			Label:  "Call Center",
			Decode: decoderFor[CallcenterData](),
			Validate: func(node *model.Node, _ *model.Graph) error {
				var d CallcenterData
				if err := decodeStrict(node, &d); err != nil {
					return err
				}
				if d.Queue == "" {
					return errors.New("callcenter requires queue name")
				}
				return nil
			},
		},
		{
			Type:   TypeHangup,
			Label:  "Hangup",
			Decode: decoderFor[HangupData](),
			Validate: func(node *model.Node, _ *model.Graph) error {
				var d HangupData
				if err := decodeStrict(node, &d); err != nil {
					return err
				}
				if d.Cause == "" {
					return errors.New("hangup requires cause")
				}
				return nil
			},
		},
	} {
		reg.Register(def)
	}
	return reg
}

// validateIVRCapture needs graph context: the declared onFail and onTimeout
// targets must exist as outgoing edges of the node.
func validateIVRCapture(node *model.Node, graph *model.Graph) error {
	var d IVRCaptureData
	if err := decodeStrict(node, &d); err != nil {
		return err
	}
	if d.Prompt == "" {
		return errors.New("ivr_capture requires audio/tts prompt")
	}
	if d.MinDigits == 0 || d.MaxDigits == 0 {
		return errors.New("ivr_capture requires min/max digits")
	}
	targets := graph.OutgoingTargets(node.ID)
	var missing []string
	if !targets[d.OnFail] {
		missing = append(missing, fmt.Sprintf("fail target %q", d.OnFail))
	}
	if !targets[d.OnTimeout] {
		missing = append(missing, fmt.Sprintf("timeout target %q", d.OnTimeout))
	}
	if len(missing) > 0 {
		return fmt.Errorf("ivr_capture must define fail/timeout targets: no outgoing edge to %s (node: %s)",
			strings.Join(missing, ", "), node.ID)
	}
	return nil
}
