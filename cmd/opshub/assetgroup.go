package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/opshub/console/internal/api/assetgroup"
	"github.com/opshub/console/internal/app"
)

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return uint(id), nil
}

func newAssetGroupCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "asset-group",
		Aliases: []string{"asset-groups"},
		Short:   "Browse asset groups",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "tree",
			Short: "Show the asset group tree",
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.run(cmd, func(ctx context.Context, a *app.App) error {
					tree, err := a.AssetGroups.Tree(ctx)
					if err != nil {
						return err
					}
					if o.jsonOutput() {
						return printJSON(out(cmd), tree)
					}
					tw := newTreeWriter(out(cmd))
					assetgroup.Walk(tree, func(g *assetgroup.Group, depth int) {
						tw.Add(fmt.Sprintf("%s (%s) #%d, %d hosts", g.Name, g.Code, g.ID, g.HostCount), depth)
					})
					tw.Render()
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show one asset group",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return o.run(cmd, func(ctx context.Context, a *app.App) error {
					g, err := a.AssetGroups.Get(ctx, id)
					if err != nil {
						return err
					}
					return printJSON(out(cmd), g)
				})
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete an asset group",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return o.run(cmd, func(ctx context.Context, a *app.App) error {
					if err := a.AssetGroups.Delete(ctx, id); err != nil {
						return err
					}
					fmt.Fprintf(out(cmd), "Asset group %d deleted.\n", id)
					return nil
				})
			},
		},
	)
	return cmd
}
