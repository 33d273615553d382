package generator

import (
	"fmt"
	"strings"

	"github.com/mysbc/sbcadmin/internal/flownode"
	"github.com/mysbc/sbcadmin/internal/model"
)

// DialplanXML renders a validated flow as a dialplan extension. Nodes are
// emitted in traversal order from the start node, following edge declaration
// order, so regeneration of an unchanged graph is byte-stable.
func DialplanXML(flow *model.Flow, audioBase string) (string, error) {
	order := traversalOrder(&flow.Graph)

	var b strings.Builder
	fmt.Fprintf(&b, "<context name=\"tenant_%s\">\n", xmlEscape(flow.OrganizationID))
	fmt.Fprintf(&b, "  <extension name=\"%s\">\n", xmlEscape(SanitizeName(flow.Name)+"-flow"))
	b.WriteString("    <condition field=\"destination_number\" expression=\"^.*$\">\n")

	for _, node := range order {
		if node.Type == flownode.TypeStart || node.Type == flownode.TypeEnd {
			continue
		}
		actions, err := renderNode(node, flow, audioBase)
		if err != nil {
			return "", err
		}
		if actions == "" {
			continue
		}
		label := node.Name
		if label == "" {
			label = node.Type
		}
		fmt.Fprintf(&b, "      <!-- %s -->\n", xmlEscape(label))
		b.WriteString(actions)
	}

	b.WriteString("    </condition>\n")
	b.WriteString("  </extension>\n")
	b.WriteString("</context>\n")
	return b.String(), nil
}

// traversalOrder walks the graph depth-first from the start node in edge
// declaration order, then appends any remaining nodes in declaration order.
func traversalOrder(graph *model.Graph) []*model.Node {
	next := make(map[string][]string)
	for _, e := range graph.Edges {
		next[e.Source] = append(next[e.Source], e.Target)
	}

	var start *model.Node
	for _, n := range graph.Nodes {
		if n.Type == flownode.TypeStart {
			start = n
			break
		}
	}

	seen := make(map[string]bool, len(graph.Nodes))
	var out []*model.Node
	var visit func(id string)
	visit = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		if n := graph.NodeByID(id); n != nil {
			out = append(out, n)
		}
		for _, t := range next[id] {
			visit(t)
		}
	}
	if start != nil {
		visit(start.ID)
	}
	for _, n := range graph.Nodes {
		if !seen[n.ID] {
			seen[n.ID] = true
			out = append(out, n)
		}
	}
	return out
}

func renderNode(node *model.Node, flow *model.Flow, audioBase string) (string, error) {
	var b strings.Builder
	action := func(app, data string) {
		if data == "" {
			fmt.Fprintf(&b, "      <action application=\"%s\"/>\n", app)
			return
		}
		fmt.Fprintf(&b, "      <action application=\"%s\" data=\"%s\"/>\n", app, xmlEscape(data))
	}

	switch node.Type {
	case flownode.TypeAnswer:
		d, err := flownode.Decode[flownode.AnswerData](node)
		if err != nil {
			return "", err
		}
		if d.Enabled {
			action("answer", "")
		}

	case flownode.TypeSetDefaults:
		d, err := flownode.Decode[flownode.SetDefaultsData](node)
		if err != nil {
			return "", err
		}
		orgID := d.OrganizationID
		if orgID == "" {
			orgID = flow.OrganizationID
		}
		action("set", "organizationID="+orgID)
		action("set", fmt.Sprintf("AUDIO_BASE=%s/%s", audioBase, orgID))
		for _, extra := range d.ExtraVars {
			if strings.Contains(extra, "=") {
				action("set", extra)
			}
		}

	case flownode.TypePlayAudio:
		d, err := flownode.Decode[flownode.PlayAudioData](node)
		if err != nil {
			return "", err
		}
		action("playback", audioRef(d.File))

	case flownode.TypeTTS:
		d, err := flownode.Decode[flownode.TTSData](node)
		if err != nil {
			return "", err
		}
		voice := d.Voice
		if voice == "" {
			voice = "default"
		}
		action("speak", fmt.Sprintf("flite|%s|%s", voice, d.Text))

	case flownode.TypeCollectDigits:
		d, err := flownode.Decode[flownode.CollectDigitsData](node)
		if err != nil {
			return "", err
		}
		min, max := intOr(d.Min, 1), intOr(d.Max, 11)
		tries, timeout := intOr(d.Tries, 3), intOr(d.TimeoutMs, 7000)
		terminator := d.Terminator
		if terminator == "" {
			terminator = "#"
		}
		invalid := d.InvalidPrompt
		if invalid == "" {
			invalid = "invalid.wav"
		}
		action("play_and_get_digits", fmt.Sprintf("%d %d %d %d %s %s %s %s",
			min, max, tries, timeout, terminator,
			audioRef(d.Prompt), audioRef(invalid), d.VarName))

	case flownode.TypeSanitizeDigits:
		d, err := flownode.Decode[flownode.SanitizeDigitsData](node)
		if err != nil {
			return "", err
		}
		action("regex", fmt.Sprintf("${%s} (\\D) \"\" %s", d.SourceVar, d.TargetVar))

	case flownode.TypeValidateWithScript:
		d, err := flownode.Decode[flownode.ValidateWithScriptData](node)
		if err != nil {
			return "", err
		}
		args := d.Args
		if d.Language == "python" {
			action("pyrun", strings.TrimSpace("/usr/local/freeswitch/scripts/"+d.Script+" "+args))
		} else {
			action("lua", strings.TrimSpace(d.Script+" "+args))
		}

	case flownode.TypeFeedbackWhileValidating:
		d, err := flownode.Decode[flownode.FeedbackWhileValidatingData](node)
		if err != nil {
			return "", err
		}
		action("playback", audioRef(d.File))

	case flownode.TypeBranchByStatus:
		d, err := flownode.Decode[flownode.BranchByStatusData](node)
		if err != nil {
			return "", err
		}
		for _, branch := range []struct{ expr, target string }{
			{"^OK$", d.OKPath},
			{"^NOT_FOUND$", d.NotFoundPath},
			{"^ERROR$", d.ErrorPath},
		} {
			fmt.Fprintf(&b, "      <condition field=\"%s\" expression=\"%s\">\n",
				xmlEscape("${"+d.StatusVar+"}"), xmlEscape(branch.expr))
			if branch.target != "" {
				fmt.Fprintf(&b, "        <action application=\"transfer\" data=\"%s\"/>\n", xmlEscape(branch.target))
			}
			b.WriteString("      </condition>\n")
		}

	case flownode.TypeRouteResult:
		d, err := flownode.Decode[flownode.RouteResultData](node)
		if err != nil {
			return "", err
		}
		for _, route := range []struct{ prefix, app string }{
			{"callcenter", "callcenter"},
			{"transfer", "transfer"},
			{"bridge", "bridge"},
		} {
			fmt.Fprintf(&b, "      <condition field=\"%s\" expression=\"%s\">\n",
				xmlEscape("${"+d.ResultVar+"}"), xmlEscape("^"+route.prefix+":(.+)$"))
			fmt.Fprintf(&b, "        <action application=\"%s\" data=\"$1\"/>\n", route.app)
			b.WriteString("      </condition>\n")
		}

	case flownode.TypeOfferFallback:
		d, err := flownode.Decode[flownode.OfferFallbackData](node)
		if err != nil {
			return "", err
		}
		action("playback", audioRef(d.Prompt))
		action("play_and_get_digits", fmt.Sprintf("1 1 1 5000 # %s %s OP",
			audioRef(d.Prompt), audioRef("entrada_invalida.wav")))
		b.WriteString("      <condition field=\"${OP}\" expression=\"^9$\">\n")
		if d.FallbackQueue != "" {
			fmt.Fprintf(&b, "        <action application=\"callcenter\" data=\"%s\"/>\n", xmlEscape(d.FallbackQueue))
		}
		b.WriteString("      </condition>\n")
		action("hangup", "NORMAL_CLEARING")

	case flownode.TypeIVRCapture:
		// Captures render as standalone IVR menus; the dialplan hands off to
		// the menu by node id.
		action("ivr", SanitizeName(flow.Name)+"_"+SanitizeName(node.ID))

	case flownode.TypeTransfer:
		d, err := flownode.Decode[flownode.TransferData](node)
		if err != nil {
			return "", err
		}
		action("transfer", d.Destination)

	case flownode.TypeBridge:
		d, err := flownode.Decode[flownode.BridgeData](node)
		if err != nil {
			return "", err
		}
		action("bridge", d.Destination)

	case flownode.TypeCallcenter:
		d, err := flownode.Decode[flownode.CallcenterData](node)
		if err != nil {
			return "", err
		}
		action("callcenter", d.Queue)

	case flownode.TypeForward:
		d, err := flownode.Decode[flownode.ForwardData](node)
		if err != nil {
			return "", err
		}
		action("transfer", d.Destination)

	case flownode.TypeSurveyCsat:
		d, err := flownode.Decode[flownode.SurveyCsatData](node)
		if err != nil {
			return "", err
		}
		action("lua", fmt.Sprintf("survey_%s.lua", d.SurveyID))

	case flownode.TypeHangup:
		d, err := flownode.Decode[flownode.HangupData](node)
		if err != nil {
			return "", err
		}
		action("hangup", d.Cause)
	}
	return b.String(), nil
}

// audioRef resolves a prompt reference: absolute engine paths pass through,
// bare names resolve against the tenant audio base variable.
func audioRef(file string) string {
	if strings.HasPrefix(file, "/") {
		return file
	}
	return "${AUDIO_BASE}/" + file
}

func intOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
