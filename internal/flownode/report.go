package flownode

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mysbc/sbcadmin/internal/model"
)

// ttsWarnRunes is the synthesized-text length past which a node gets flagged
// as a quota risk.
const ttsWarnRunes = 600

// Report is the outcome of a full flow validation pass. Errors block
// publishing; warnings do not.
type Report struct {
	OK       bool     `json:"ok"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidateFlow runs the connectivity pass and the per-node validators over a
// graph and collects everything into one report instead of stopping at the
// first problem.
func ValidateFlow(reg *Registry, graph *model.Graph) *Report {
	rep := &Report{Errors: []string{}, Warnings: []string{}}

	for _, err := range ValidateConnectivity(graph) {
		rep.Errors = append(rep.Errors, err.Error())
	}
	if stuck := StuckNodes(graph); len(stuck) > 0 {
		rep.Warnings = append(rep.Warnings,
			fmt.Sprintf("nodes have no path to an end node: %s", strings.Join(stuck, ", ")))
	}

	for _, node := range graph.Nodes {
		def, ok := reg.Get(node.Type)
		if !ok {
			rep.Errors = append(rep.Errors, fmt.Sprintf("unknown node type: %s (node: %s)", node.Type, node.ID))
			continue
		}
		if def.Decode != nil {
			if err := def.Decode(node); err != nil {
				rep.Errors = append(rep.Errors, err.Error())
				continue
			}
		}
		if def.Validate != nil {
			if err := def.Validate(node, graph); err != nil {
				rep.Errors = append(rep.Errors, err.Error())
			}
		}
		rep.Warnings = append(rep.Warnings, warningsFor(node)...)
	}

	rep.OK = len(rep.Errors) == 0
	return rep
}

// warningsFor flags conditions worth surfacing in the editor that should not
// block a save or publish.
func warningsFor(node *model.Node) []string {
	var out []string
	switch node.Type {
	case TypeTTS:
		var d TTSData
		if decodeStrict(node, &d) == nil && utf8.RuneCountInString(d.Text) > ttsWarnRunes {
			out = append(out, fmt.Sprintf("tts text is %d characters, may consume quota quickly (node: %s)",
				utf8.RuneCountInString(d.Text), node.ID))
		}
	case TypePlayAudio:
		var d PlayAudioData
		if decodeStrict(node, &d) == nil && d.File != "" && !strings.HasPrefix(d.File, "/") {
			out = append(out, fmt.Sprintf("audio file %q is not an absolute engine path and cannot be verified (node: %s)",
				d.File, node.ID))
		}
	case TypeHTTPRequest:
		var d HTTPRequestData
		if decodeStrict(node, &d) == nil && d.URL != "" && !strings.HasPrefix(d.URL, "https://") {
			out = append(out, fmt.Sprintf("http_request target %q is not https (node: %s)", d.URL, node.ID))
		}
	}
	return out
}
