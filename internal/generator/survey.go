package generator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mysbc/sbcadmin/internal/model"
)

// SurveyLua renders an IVR survey as a Lua script executed by the engine
// after a call. Each question prompts for a single digit (stars) or up to
// two digits (NPS) and posts the collected answers back to the API with the
// call's trace id. The responses route is bearer-protected, so the script
// carries the API token when one is configured.
func SurveyLua(survey *model.CsatSurvey, apiBase, apiToken string) string {
	questions := make([]*model.CsatQuestion, len(survey.Questions))
	copy(questions, survey.Questions)
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })

	scoreType := model.ScoreNPS
	if len(survey.ScoreTypes) > 0 {
		scoreType = survey.ScoreTypes[0]
	}
	maxDigits, pattern := 1, "[1-5]"
	if scoreType == model.ScoreNPS {
		maxDigits, pattern = 2, "%d+"
	}

	authHeader := ""
	if apiToken != "" {
		authHeader = "-H 'Authorization: Bearer " + luaEscape(apiToken) + "' "
	}

	var b strings.Builder
	fmt.Fprintf(&b, "-- survey %s (%s)\n", luaEscape(survey.Name), survey.ID)
	b.WriteString("local session = session\n")
	fmt.Fprintf(&b, "local api_base = \"%s\"\n", luaEscape(apiBase))
	fmt.Fprintf(&b, "local survey_id = \"%s\"\n", luaEscape(survey.ID))
	fmt.Fprintf(&b, "local org_id = \"%s\"\n", luaEscape(survey.OrganizationID))
	b.WriteString("local trace_id = session:getVariable(\"uuid\")\n\n")
	b.WriteString("session:answer()\n")
	b.WriteString("session:sleep(500)\n\n")

	for i, q := range questions {
		fmt.Fprintf(&b, "-- question %d\n", i+1)
		fmt.Fprintf(&b, "session:speak(\"%s\")\n", luaEscape(q.Text))
		fmt.Fprintf(&b, "local digits_%d = session:getDigits(%d, \"#\", 7000)\n", i+1, maxDigits)
		fmt.Fprintf(&b, "if digits_%d ~= \"\" and string.match(digits_%d, \"%s\") then\n", i+1, i+1, "^"+pattern+"$")
		fmt.Fprintf(&b, "  local cmd = string.format(\"curl -s -X POST %%s/v1/orgs/%%s/csat/surveys/%%s/responses \"\n")
		fmt.Fprintf(&b, "    .. \"-H 'Content-Type: application/json' \"\n")
		if authHeader != "" {
			fmt.Fprintf(&b, "    .. \"%s\"\n", authHeader)
		}
		fmt.Fprintf(&b, "    .. \"-d '{\\\"questionId\\\":\\\"%s\\\",\\\"channel\\\":\\\"ivr\\\",\\\"scoreType\\\":\\\"%s\\\",\\\"score\\\":%%s,\\\"traceId\\\":\\\"%%s\\\"}'\",\n",
			q.ID, scoreType)
		fmt.Fprintf(&b, "    api_base, org_id, survey_id, digits_%d, trace_id)\n", i+1)
		b.WriteString("  os.execute(cmd)\n")
		b.WriteString("end\n\n")
	}

	b.WriteString("session:hangup()\n")
	return b.String()
}

var luaEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func luaEscape(s string) string {
	return luaEscaper.Replace(s)
}
