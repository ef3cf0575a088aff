package cli

import (
	"fmt"
	"strconv"

	"catalog-cli/internal/model"

	"github.com/spf13/cobra"
)

// editFields starts from the row's current values for every layout attribute and
// applies the key=value overrides, each parsed through its attribute's resolve kind.
func editFields(l model.Layout, e model.Entity, sets []string) (map[string]any, error) {
	byKey := make(map[string]model.Attribute, len(l.Attributes))
	fields := make(map[string]any, len(l.Attributes))
	for _, a := range l.Attributes {
		byKey[a.Key] = a
		if v, ok := e.Value(a.Key); ok {
			fields[a.Key] = v
		}
	}
	for _, s := range sets {
		k, raw, err := splitPair("--set", s)
		if err != nil {
			return nil, err
		}
		a, ok := byKey[k]
		if !ok {
			return nil, errNotFound("attribute", fmt.Sprintf("%s (layout %s)", k, l.Name))
		}
		v, err := a.Resolve.Parse(raw)
		if err != nil {
			return nil, errInvalidArg("--set", s, err.Error())
		}
		fields[k] = v
	}
	return fields, nil
}

func newSaveCmd(app *App) *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "save <parent-id> <entity-id>",
		Short: "Edit one row of a node and print the saved entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := parseNodeID("parent id", args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			entityID, err := parseNodeID("entity id", args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			if len(sets) == 0 {
				return writeErr(cmd, fmt.Errorf("nothing to save: pass at least one --set key=value"))
			}

			ctrl, err := app.newController()
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := cmd.Context()
			if err := ctrl.NavigateTo(ctx, parentID); err != nil {
				return writeErr(cmd, describeErr(err))
			}

			v := ctrl.View()
			gi, pos, ok := v.Groups.Locate(entityID)
			if !ok {
				return writeErr(cmd, errNotFound("entity", strconv.FormatInt(entityID, 10)+" under node "+strconv.FormatInt(parentID, 10)))
			}
			g := v.Groups[gi]
			fields, err := editFields(g.Layout, g.Entities[pos], sets)
			if err != nil {
				return writeErr(cmd, err)
			}

			if err := ctrl.BeginEdit(entityID); err != nil {
				return writeErr(cmd, err)
			}
			saved, err := ctrl.Save(ctx, fields)
			if err != nil {
				return writeErr(cmd, describeErr(err))
			}

			env := map[string]any{"data": saved}
			if w := ctrl.View().Warning; w != nil {
				app.logger().Warn("saved entity not shown under this node", "warning", w)
				env["_hints"] = []string{w.Error()}
			}
			return writeOut(cmd, app, env)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Attribute value as key=value (repeatable)")
	return cmd
}
