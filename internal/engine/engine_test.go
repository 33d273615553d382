package engine

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mysbc/sbcadmin/internal/model"
)

type fakeCLI struct {
	commands []string
	output   string
	err      error
}

func (f *fakeCLI) Run(_ context.Context, command string) (string, error) {
	f.commands = append(f.commands, command)
	return f.output, f.err
}

func newAdapter(t *testing.T, cli *fakeCLI) *FreeSwitch {
	t.Helper()
	return &FreeSwitch{
		BaseDir:       t.TempDir(),
		AudioDir:      "/var/lib/freeswitch/storage/tenant",
		APIBase:       "http://localhost:8080",
		CLI:           cli,
		ReloadEnabled: true,
	}
}

func TestUpsertTrunkWritesGatewayAndRescans(t *testing.T) {
	cli := &fakeCLI{output: "+OK"}
	fs := newAdapter(t, cli)

	trunk := &model.Trunk{OrganizationID: "org-1", Name: "carrier-a", Host: "sip.example"}
	res, err := fs.UpsertTrunk(context.Background(), trunk)
	require.NoError(t, err)
	assert.True(t, res.Applied)

	path := filepath.Join(fs.BaseDir, "sip_profiles", "tenant_org-1", "org-1_carrier-a.xml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<gateway name="carrier-a">`)
	assert.Equal(t, []string{"reloadxml", "sofia profile external rescan"}, cli.commands)
}

func TestUpsertInboundFileName(t *testing.T) {
	cli := &fakeCLI{output: "+OK"}
	fs := newAdapter(t, cli)

	in := &model.Inbound{
		OrganizationID: "org-1",
		Name:           "linha vip",
		DidOrURI:       "+551140001000",
		Context:        model.ContextPublic,
		Priority:       7,
	}
	res, err := fs.UpsertInbound(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, res.Applied)

	path := filepath.Join(fs.BaseDir, "dialplan", "tenant_org-1", "public", "org-1_007_linha_vip.xml")
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestReloadFailureIsSoftByDefault(t *testing.T) {
	cli := &fakeCLI{err: errors.New("connection refused")}
	fs := newAdapter(t, cli)

	trunk := &model.Trunk{OrganizationID: "org-1", Name: "carrier-a", Host: "sip.example"}
	res, err := fs.UpsertTrunk(context.Background(), trunk)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Contains(t, res.Detail, "connection refused")

	// Artifact is still on disk: persisted but not applied.
	path := filepath.Join(fs.BaseDir, "sip_profiles", "tenant_org-1", "org-1_carrier-a.xml")
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestReloadFailureStrict(t *testing.T) {
	cli := &fakeCLI{err: errors.New("connection refused")}
	fs := newAdapter(t, cli)
	fs.ReloadStrict = true

	trunk := &model.Trunk{OrganizationID: "org-1", Name: "carrier-a", Host: "sip.example"}
	_, err := fs.UpsertTrunk(context.Background(), trunk)
	assert.Error(t, err)
}

func TestReloadDisabled(t *testing.T) {
	cli := &fakeCLI{}
	fs := newAdapter(t, cli)
	fs.ReloadEnabled = false

	trunk := &model.Trunk{OrganizationID: "org-1", Name: "carrier-a", Host: "sip.example"}
	res, err := fs.UpsertTrunk(context.Background(), trunk)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, "reload disabled", res.Detail)
	assert.Empty(t, cli.commands)
}

func TestPublishAndUnpublishFlow(t *testing.T) {
	cli := &fakeCLI{output: "+OK"}
	fs := newAdapter(t, cli)

	capture, _ := json.Marshal(map[string]any{
		"prompt": "cpf.wav", "minDigits": 11, "maxDigits": 11, "onFail": "e", "onTimeout": "e",
	})
	flow := &model.Flow{
		ID:             "flw-1",
		OrganizationID: "org-1",
		Name:           "Atendimento",
		Version:        3,
		Graph: model.Graph{
			Nodes: []*model.Node{
				{ID: "s", Type: "start"},
				{ID: "cap", Type: "ivr_capture", Data: capture},
				{ID: "e", Type: "end"},
			},
			Edges: []*model.Edge{
				{ID: "e1", Source: "s", Target: "cap"},
				{ID: "e2", Source: "cap", Target: "e"},
			},
		},
	}
	res, err := fs.PublishFlow(context.Background(), flow)
	require.NoError(t, err)
	assert.Equal(t, "org-1:flw-1:v3", res.EngineRef)
	assert.True(t, res.Applied)

	dialplan := filepath.Join(fs.BaseDir, "dialplan", "tenant_org-1", "org-1_atendimento.xml")
	menu := filepath.Join(fs.BaseDir, "ivr_menus", "org-1_atendimento_cap.xml")
	for _, p := range []string{dialplan, menu} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}

	_, err = fs.UnpublishFlow(context.Background(), flow)
	require.NoError(t, err)
	for _, p := range []string{dialplan, menu} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "%s should be removed", p)
	}
}

func TestRemoveMissingArtifactIsIdempotent(t *testing.T) {
	cli := &fakeCLI{output: "+OK"}
	fs := newAdapter(t, cli)
	_, err := fs.RemoveTrunk(context.Background(), "org-1", "never-created")
	assert.NoError(t, err)
}

func TestParseGatewayStatus(t *testing.T) {
	out := `Gateway carrier-a
	State    RUNNING
	Register REGED`
	st := parseGatewayStatus("carrier-a", out)
	assert.True(t, st.Running)
	assert.True(t, st.Registered)

	st = parseGatewayStatus("carrier-a", "State NOREG")
	assert.False(t, st.Running)
	assert.False(t, st.Registered)
}

func TestHealth(t *testing.T) {
	fs := newAdapter(t, &fakeCLI{output: "UP 0 years, 3 days"})
	assert.True(t, fs.Health(context.Background()).OK)

	fs = newAdapter(t, &fakeCLI{err: errors.New("refused")})
	assert.False(t, fs.Health(context.Background()).OK)
}

func TestWriteSurveyScript(t *testing.T) {
	fs := newAdapter(t, &fakeCLI{})
	survey := &model.CsatSurvey{
		ID:             "srv-1",
		OrganizationID: "org-1",
		Name:           "Pos Atendimento",
		ScoreTypes:     []model.CsatScoreType{model.ScoreNPS},
		Questions:      []*model.CsatQuestion{{ID: "qst-1", Text: "Como foi?", Order: 1}},
	}
	res, err := fs.WriteSurveyScript(context.Background(), survey)
	require.NoError(t, err)
	assert.True(t, res.Applied)

	data, err := os.ReadFile(filepath.Join(fs.BaseDir, "scripts", "org-1_pos_atendimento.lua"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Como foi?")
}

// Compile-time interface checks.
var (
	_ Adapter = (*FreeSwitch)(nil)
	_ Adapter = Noop{}
)
