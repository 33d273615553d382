// Package generator renders persisted records into the artifacts the
// telephony engine consumes: dialplan and gateway XML, IVR menus, and
// survey Lua scripts. Rendering is pure; writing and reloading belong to
// the engine adapter.
package generator

import (
	"fmt"
	"strings"
)

// SanitizeName reduces a resource name to a filesystem-safe lowercase token:
// letters, digits, '-' and '_' pass through, whitespace collapses to '_',
// everything else is dropped.
func SanitizeName(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_', r == ' ', r == '\t':
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// FlowFileName names a published flow's dialplan artifact.
func FlowFileName(orgID, name string) string {
	return fmt.Sprintf("%s_%s.xml", orgID, SanitizeName(name))
}

// TrunkFileName names a trunk's gateway artifact.
func TrunkFileName(orgID, name string) string {
	return fmt.Sprintf("%s_%s.xml", orgID, SanitizeName(name))
}

// InboundFileName names an inbound route's dialplan entry. The priority is
// zero-padded so lexicographic directory order matches evaluation order:
// lower priority sorts first and the engine loads it first.
func InboundFileName(orgID string, priority int, name string) string {
	return fmt.Sprintf("%s_%03d_%s.xml", orgID, priority, SanitizeName(name))
}

// IVRMenuFileName names the IVR menu artifact of one capture node.
func IVRMenuFileName(orgID, flowName, nodeID string) string {
	return fmt.Sprintf("%s_%s_%s.xml", orgID, SanitizeName(flowName), SanitizeName(nodeID))
}

// SurveyFileName names a survey's Lua script.
func SurveyFileName(orgID, name string) string {
	return fmt.Sprintf("%s_%s.lua", orgID, SanitizeName(name))
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}
