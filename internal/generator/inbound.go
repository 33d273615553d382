package generator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mysbc/sbcadmin/internal/model"
)

// InboundXML renders an inbound route as a dialplan entry: match the dialed
// number (plus optional caller-id and network guards), stamp the tenant, and
// hand off to the target flow's extension.
func InboundXML(inbound *model.Inbound) string {
	var b strings.Builder
	b.WriteString("<include>\n")
	fmt.Fprintf(&b, "  <extension name=\"%s\">\n", xmlEscape(SanitizeName(inbound.Name)))

	if inbound.CallerIDNumber != "" {
		fmt.Fprintf(&b, "    <condition field=\"caller_id_number\" expression=\"%s\"/>\n",
			xmlEscape("^"+regexp.QuoteMeta(inbound.CallerIDNumber)+"$"))
	}
	if inbound.NetworkAddr != "" {
		fmt.Fprintf(&b, "    <condition field=\"network_addr\" expression=\"%s\"/>\n",
			xmlEscape(regexp.QuoteMeta(inbound.NetworkAddr)))
	}

	fmt.Fprintf(&b, "    <condition field=\"destination_number\" expression=\"%s\">\n",
		xmlEscape("^"+regexp.QuoteMeta(inbound.DidOrURI)+"$"))
	fmt.Fprintf(&b, "      <action application=\"set\" data=\"%s\"/>\n",
		xmlEscape("organizationID="+inbound.OrganizationID))
	if inbound.TargetFlowID != "" {
		fmt.Fprintf(&b, "      <action application=\"transfer\" data=\"%s\"/>\n",
			xmlEscape(fmt.Sprintf("flow_%s XML tenant_%s", inbound.TargetFlowID, inbound.OrganizationID)))
	} else {
		b.WriteString("      <action application=\"hangup\" data=\"NO_ROUTE_DESTINATION\"/>\n")
	}
	b.WriteString("    </condition>\n")
	b.WriteString("  </extension>\n")
	b.WriteString("</include>\n")
	return b.String()
}
