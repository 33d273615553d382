package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mysbc/sbcadmin/internal/engine"
	"github.com/mysbc/sbcadmin/internal/ui"
	"github.com/spf13/cobra"
)

var engineProfilesFile string

// engineProfile is one engine connection in the profiles file.
type engineProfile struct {
	Host     string       `toml:"host"`
	Port     int          `toml:"port"`
	Password string       `toml:"password"`
	Timeout  tomlDuration `toml:"timeout"`
}

// tomlDuration decodes "5s"-style strings.
type tomlDuration struct {
	time.Duration
}

func (d *tomlDuration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// engineProfiles is the engines.toml layout:
//
//	[profiles.default]
//	host = "127.0.0.1"
//	port = 8021
//	password = "ClueCon"
//	timeout = "5s"
type engineProfiles struct {
	Profiles map[string]engineProfile `toml:"profiles"`
}

func loadEngineProfiles(path string) (*engineProfiles, error) {
	var out engineProfiles
	if _, err := toml.DecodeFile(path, &out); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(out.Profiles) == 0 {
		return nil, fmt.Errorf("%s defines no [profiles.*] sections", path)
	}
	return &out, nil
}

func defaultProfilesFile() string {
	if s := os.Getenv("SBC_ENGINE_PROFILES"); s != "" {
		return s
	}
	return "engines.toml"
}

var engineCmd = &cobra.Command{
	Use:   "engine",
	Short: "Engine control-channel tools",
}

var engineCheckCmd = &cobra.Command{
	Use:   "check [profile]",
	Short: "Check engine reachability for a profile from the profiles file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles, err := loadEngineProfiles(engineProfilesFile)
		if err != nil {
			return err
		}

		name := "default"
		if len(args) == 1 {
			name = args[0]
		}
		p, ok := profiles.Profiles[name]
		if !ok {
			known := make([]string, 0, len(profiles.Profiles))
			for k := range profiles.Profiles {
				known = append(known, k)
			}
			sort.Strings(known)
			return fmt.Errorf("unknown profile %q (have: %s)", name, strings.Join(known, ", "))
		}

		cli := &engine.FsCLI{
			Host:     p.Host,
			Port:     p.Port,
			Password: p.Password,
			Timeout:  p.Timeout.Duration,
		}

		out, err := cli.Run(cmd.Context(), "status")
		if err != nil {
			fmt.Printf("%s %s\n", ui.RenderWarn("unreachable"), ui.RenderMuted(fmt.Sprintf("%s:%d", p.Host, p.Port)))
			return err
		}

		fmt.Printf("%s %s\n", ui.RenderOK("ok"), ui.RenderMuted(fmt.Sprintf("%s:%d", p.Host, p.Port)))
		for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
			fmt.Printf("  %s\n", line)
		}
		return nil
	},
}

var engineProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List profiles from the profiles file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles, err := loadEngineProfiles(engineProfilesFile)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(profiles.Profiles))
		for name := range profiles.Profiles {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p := profiles.Profiles[name]
			fmt.Printf("%s  %s\n", name, ui.RenderMuted(fmt.Sprintf("%s:%d", p.Host, p.Port)))
		}
		return nil
	},
}

func init() {
	engineCmd.PersistentFlags().StringVar(&engineProfilesFile, "profiles", defaultProfilesFile(),
		"path to the engine profiles file")
	engineCmd.AddCommand(engineCheckCmd)
	engineCmd.AddCommand(engineProfilesCmd)
}
