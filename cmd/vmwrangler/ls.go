package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/virtadm/vmwrangler/pkg/vcenter"
)

var lsNames []string

// lsKinds maps CLI kind arguments to inventory kinds.
var lsKinds = map[string]vcenter.Kind{
	"vm":         vcenter.KindVirtualMachine,
	"datacenter": vcenter.KindDatacenter,
	"folder":     vcenter.KindFolder,
	"vapp":       vcenter.KindVApp,
	"network":    vcenter.KindNetwork,
	"datastore":  vcenter.KindDatastore,
	"host":       vcenter.KindHost,
	"pool":       vcenter.KindResourcePool,
	"all":        vcenter.KindAny,
}

var lsCmd = &cobra.Command{
	Use:           "ls [vm|datacenter|folder|vapp|network|datastore|host|pool|all]",
	Short:         "List inventory objects of a kind",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := "vm"
		if len(args) == 1 {
			arg = args[0]
		}
		kind, ok := lsKinds[arg]
		if !ok {
			return fmt.Errorf("unknown object kind %q", arg)
		}
		return withClient(cmd.Context(), func(ctx context.Context, c *vcenter.Client) error {
			opts := &vcenter.FindOptions{Names: lsNames, All: len(lsNames) == 0}
			objs, err := c.Retrieve(ctx, kind, opts)
			if err != nil {
				return err
			}
			for _, o := range objs {
				ref := o.Reference()
				fmt.Printf("%-14s %-20s %s\n", ref.Type, ref.Value, o.Name())
			}
			return nil
		})
	},
}

func init() {
	lsCmd.Flags().StringArrayVar(&lsNames, "name", nil, "Only objects with this name (repeatable)")
}
