package generator

import (
	"fmt"
	"strings"

	"github.com/mysbc/sbcadmin/internal/flownode"
	"github.com/mysbc/sbcadmin/internal/model"
)

// IVRMenu is one rendered IVR menu artifact plus its file name.
type IVRMenu struct {
	FileName string
	XML      string
}

// IVRMenuXML renders each ivr_capture node of a flow as a standalone engine
// menu. The dialplan's ivr action references the menu by the same derived
// name.
func IVRMenuXML(flow *model.Flow) ([]IVRMenu, error) {
	var menus []IVRMenu
	for _, node := range flow.Graph.Nodes {
		if node.Type != flownode.TypeIVRCapture {
			continue
		}
		d, err := flownode.Decode[flownode.IVRCaptureData](node)
		if err != nil {
			return nil, err
		}
		menuName := SanitizeName(flow.Name) + "_" + SanitizeName(node.ID)
		var b strings.Builder
		b.WriteString("<include>\n")
		fmt.Fprintf(&b, "  <menu name=\"%s\"\n", xmlEscape(menuName))
		fmt.Fprintf(&b, "        greet-long=\"%s\"\n", xmlEscape(audioRef(d.Prompt)))
		fmt.Fprintf(&b, "        timeout=\"%d\"\n", intOr(d.TimeoutMs, 5000))
		fmt.Fprintf(&b, "        max-failures=\"%d\"\n", intOr(d.Tries, 3))
		fmt.Fprintf(&b, "        max-timeouts=\"%d\"\n", intOr(d.Tries, 3))
		fmt.Fprintf(&b, "        digit-len=\"%d\">\n", d.MaxDigits)
		regex := d.Regex
		if regex == "" {
			regex = fmt.Sprintf("^\\d{%d,%d}$", d.MinDigits, d.MaxDigits)
		}
		fmt.Fprintf(&b, "    <entry action=\"menu-exec-app\" digits=\"%s\" param=\"%s\"/>\n",
			xmlEscape("/"+regex+"/"), xmlEscape("set capture_result=$1"))
		fmt.Fprintf(&b, "    <entry action=\"menu-exec-app\" digits=\"*\" param=\"%s\"/>\n",
			xmlEscape("transfer "+d.OnFail))
		fmt.Fprintf(&b, "    <entry action=\"menu-top\" digits=\"9\"/>\n")
		b.WriteString("  </menu>\n")
		b.WriteString("</include>\n")

		menus = append(menus, IVRMenu{
			FileName: IVRMenuFileName(flow.OrganizationID, flow.Name, node.ID),
			XML:      b.String(),
		})
	}
	return menus, nil
}
