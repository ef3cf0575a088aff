package cli

import (
	"strings"

	"catalog-cli/internal/format"
	"catalog-cli/internal/store"
	"catalog-cli/internal/tui"

	"github.com/spf13/cobra"
)

var configKeys = []string{"base-url", "timeout", "format", "tui.profile", "tui.panels"}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change ~/.catalog/config.json",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the stored config and the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := store.ConfigPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			d, err := app.timeout()
			if err != nil {
				return writeErr(cmd, err)
			}
			f, _ := format.Normalize(app.Format)
			return writeOut(cmd, app, map[string]any{
				"data": app.cfg,
				"meta": map[string]any{
					"path":    path,
					"baseUrl": app.BaseURL,
					"timeout": d.String(),
					"format":  f,
					"panels":  tui.PanelIDs(),
				},
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting (" + strings.Join(configKeys, ", ") + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": cfg})
		},
	})

	return cmd
}

func setConfigValue(cfg *store.GlobalConfig, key, value string) error {
	value = strings.TrimSpace(value)
	tuiCfg := func() *store.TUIConfig {
		if cfg.TUI == nil {
			cfg.TUI = &store.TUIConfig{}
		}
		return cfg.TUI
	}
	switch key {
	case "base-url":
		cfg.BaseURL = value
	case "timeout":
		prev := cfg.Timeout
		cfg.Timeout = value
		if _, err := cfg.TimeoutOrDefault(); err != nil {
			cfg.Timeout = prev
			return err
		}
	case "format":
		f, err := format.Normalize(value)
		if err != nil {
			return err
		}
		cfg.Format = f
	case "tui.profile":
		tuiCfg().Profile = value
	case "tui.panels":
		var ids []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				ids = append(ids, p)
			}
		}
		known := map[string]bool{}
		for _, id := range tui.PanelIDs() {
			known[id] = true
		}
		for _, id := range ids {
			if !known[id] {
				return errNotFound("panel", id)
			}
		}
		tuiCfg().Panels = ids
	default:
		return errInvalidArg("config key", key, "want one of "+strings.Join(configKeys, ", "))
	}
	return nil
}
