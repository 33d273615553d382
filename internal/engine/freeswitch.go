package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mysbc/sbcadmin/internal/generator"
	"github.com/mysbc/sbcadmin/internal/model"
)

// FreeSwitch renders records to the engine's config tree and reloads over
// the control CLI.
type FreeSwitch struct {
	BaseDir       string
	AudioDir      string
	APIBase       string
	APIToken      string
	CLI           CLIRunner
	ReloadEnabled bool
	ReloadStrict  bool
	Logger        *slog.Logger
}

func (f *FreeSwitch) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

func (f *FreeSwitch) sipProfileDir(orgID string) string {
	return filepath.Join(f.BaseDir, "sip_profiles", "tenant_"+orgID)
}

func (f *FreeSwitch) dialplanDir(orgID string, context model.InboundContext) string {
	dir := filepath.Join(f.BaseDir, "dialplan", "tenant_"+orgID)
	if context != "" {
		dir = filepath.Join(dir, string(context))
	}
	return dir
}

func (f *FreeSwitch) ivrMenuDir() string {
	return filepath.Join(f.BaseDir, "ivr_menus")
}

func (f *FreeSwitch) scriptDir() string {
	return filepath.Join(f.BaseDir, "scripts")
}

func writeArtifact(dir, name, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func removeArtifact(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// applyReload runs the reload commands for a written artifact. Failures are
// logged and reported through Applied=false unless strict mode is on, in
// which case they fail the whole operation.
func (f *FreeSwitch) applyReload(ctx context.Context, ref string, commands ...string) (ApplyResult, error) {
	if !f.ReloadEnabled {
		return ApplyResult{EngineRef: ref, Applied: false, Detail: "reload disabled"}, nil
	}
	for _, command := range commands {
		if _, err := f.CLI.Run(ctx, command); err != nil {
			if f.ReloadStrict {
				return ApplyResult{EngineRef: ref}, err
			}
			f.logger().Warn("engine reload failed, artifacts written but not applied",
				"command", command, "error", err)
			return ApplyResult{EngineRef: ref, Applied: false, Detail: err.Error()}, nil
		}
	}
	return ApplyResult{EngineRef: ref, Applied: true}, nil
}

func (f *FreeSwitch) UpsertTrunk(ctx context.Context, trunk *model.Trunk) (ApplyResult, error) {
	name := generator.TrunkFileName(trunk.OrganizationID, trunk.Name)
	path, err := writeArtifact(f.sipProfileDir(trunk.OrganizationID), name, generator.GatewayXML(trunk))
	if err != nil {
		return ApplyResult{}, err
	}
	return f.applyReload(ctx, path, "reloadxml", "sofia profile external rescan")
}

func (f *FreeSwitch) RemoveTrunk(ctx context.Context, orgID, trunkName string) (ApplyResult, error) {
	path := filepath.Join(f.sipProfileDir(orgID), generator.TrunkFileName(orgID, trunkName))
	if err := removeArtifact(path); err != nil {
		return ApplyResult{}, err
	}
	return f.applyReload(ctx, path, "reloadxml", "sofia profile external rescan")
}

func (f *FreeSwitch) UpsertInbound(ctx context.Context, inbound *model.Inbound) (ApplyResult, error) {
	name := generator.InboundFileName(inbound.OrganizationID, inbound.Priority, inbound.Name)
	path, err := writeArtifact(f.dialplanDir(inbound.OrganizationID, inbound.Context), name, generator.InboundXML(inbound))
	if err != nil {
		return ApplyResult{}, err
	}
	return f.applyReload(ctx, path, "reloadxml")
}

func (f *FreeSwitch) RemoveInbound(ctx context.Context, inbound *model.Inbound) (ApplyResult, error) {
	path := filepath.Join(f.dialplanDir(inbound.OrganizationID, inbound.Context),
		generator.InboundFileName(inbound.OrganizationID, inbound.Priority, inbound.Name))
	if err := removeArtifact(path); err != nil {
		return ApplyResult{}, err
	}
	return f.applyReload(ctx, path, "reloadxml")
}

func (f *FreeSwitch) PublishFlow(ctx context.Context, flow *model.Flow) (ApplyResult, error) {
	xml, err := generator.DialplanXML(flow, f.AudioDir)
	if err != nil {
		return ApplyResult{}, err
	}
	if _, err := writeArtifact(f.dialplanDir(flow.OrganizationID, ""),
		generator.FlowFileName(flow.OrganizationID, flow.Name), xml); err != nil {
		return ApplyResult{}, err
	}
	menus, err := generator.IVRMenuXML(flow)
	if err != nil {
		return ApplyResult{}, err
	}
	for _, menu := range menus {
		if _, err := writeArtifact(f.ivrMenuDir(), menu.FileName, menu.XML); err != nil {
			return ApplyResult{}, err
		}
	}
	ref := fmt.Sprintf("%s:%s:v%d", flow.OrganizationID, flow.ID, flow.Version)
	res, err := f.applyReload(ctx, ref, "reloadxml")
	res.EngineRef = ref
	return res, err
}

func (f *FreeSwitch) UnpublishFlow(ctx context.Context, flow *model.Flow) (ApplyResult, error) {
	path := filepath.Join(f.dialplanDir(flow.OrganizationID, ""),
		generator.FlowFileName(flow.OrganizationID, flow.Name))
	if err := removeArtifact(path); err != nil {
		return ApplyResult{}, err
	}
	pattern := filepath.Join(f.ivrMenuDir(),
		fmt.Sprintf("%s_%s_*.xml", flow.OrganizationID, generator.SanitizeName(flow.Name)))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return ApplyResult{}, err
	}
	for _, m := range matches {
		if err := removeArtifact(m); err != nil {
			return ApplyResult{}, err
		}
	}
	return f.applyReload(ctx, path, "reloadxml")
}

func (f *FreeSwitch) WriteSurveyScript(ctx context.Context, survey *model.CsatSurvey) (ApplyResult, error) {
	name := generator.SurveyFileName(survey.OrganizationID, survey.Name)
	path, err := writeArtifact(f.scriptDir(), name, generator.SurveyLua(survey, f.APIBase, f.APIToken))
	if err != nil {
		return ApplyResult{}, err
	}
	// Lua scripts are read per execution; no reload needed.
	return ApplyResult{EngineRef: path, Applied: true}, nil
}

func (f *FreeSwitch) Reload(ctx context.Context) error {
	_, err := f.CLI.Run(ctx, "reloadxml")
	return err
}

func (f *FreeSwitch) Health(ctx context.Context) Health {
	out, err := f.CLI.Run(ctx, "status")
	if err != nil {
		return Health{OK: false, Detail: err.Error()}
	}
	if !strings.Contains(out, "UP") {
		return Health{OK: false, Detail: strings.TrimSpace(out)}
	}
	return Health{OK: true}
}

func (f *FreeSwitch) TestGateway(ctx context.Context, orgID, gatewayName string) (GatewayStatus, error) {
	out, err := f.CLI.Run(ctx, "sofia status gateway "+generator.SanitizeName(gatewayName))
	if err != nil {
		return GatewayStatus{Name: gatewayName}, err
	}
	return parseGatewayStatus(gatewayName, out), nil
}
