package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mysbc/sbcadmin/internal/model"
)

const defaultExpires = 300

// GatewayXML renders a trunk as a SIP gateway include for the engine's
// sip_profiles tree.
func GatewayXML(trunk *model.Trunk) string {
	var b strings.Builder
	b.WriteString("<include>\n")
	fmt.Fprintf(&b, "  <gateway name=\"%s\">\n", xmlEscape(SanitizeName(trunk.Name)))

	param := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "    <param name=\"%s\" value=\"%s\"/>\n", name, xmlEscape(value))
		}
	}

	param("proxy", firstNonEmpty(trunk.Proxy, trunk.Host))
	param("username", trunk.Username)
	param("password", trunk.Secret)
	param("realm", firstNonEmpty(trunk.Realm, trunk.Host))
	param("from-user", trunk.FromUser)
	param("from-domain", trunk.FromDomain)
	param("extension", trunk.Extension)
	param("register-proxy", trunk.RegisterProxy)
	param("register", strconv.FormatBool(trunk.Register))
	if trunk.Registrar != "" {
		param("register-transport", string(trunk.Transport))
	}
	expires := trunk.Expires
	if expires <= 0 {
		expires = defaultExpires
	}
	param("expire-seconds", strconv.Itoa(expires))
	if trunk.RetrySeconds > 0 {
		param("retry-seconds", strconv.Itoa(trunk.RetrySeconds))
	}
	if trunk.CallerIDInFrom {
		param("caller-id-in-from", "true")
	}
	if trunk.Ping > 0 {
		param("ping", strconv.Itoa(trunk.Ping))
	}

	b.WriteString("    <variables>\n")
	codecs := trunk.Codecs
	if len(codecs) == 0 {
		codecs = model.DefaultCodecs
	}
	fmt.Fprintf(&b, "      <variable name=\"absolute_codec_string\" value=\"%s\"/>\n",
		xmlEscape(strings.Join(codecs, ",")))
	if trunk.Srtp != "" && trunk.Srtp != model.SrtpOff {
		mandatory := trunk.Srtp == model.SrtpRequired
		fmt.Fprintf(&b, "      <variable name=\"rtp_secure_media\" value=\"%s\"/>\n",
			map[bool]string{true: "mandatory", false: "optional"}[mandatory])
	}
	if trunk.DtmfMode != "" {
		fmt.Fprintf(&b, "      <variable name=\"dtmf_type\" value=\"%s\"/>\n", xmlEscape(string(trunk.DtmfMode)))
	}
	b.WriteString("    </variables>\n")

	b.WriteString("  </gateway>\n")
	b.WriteString("</include>\n")
	return b.String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
