package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/virtadm/vmwrangler/pkg/vcenter"
)

var (
	snapName        string
	snapDescription string
	snapMemory      bool
	snapQuiesce     bool
	snapCurrent     bool
	snapAll         bool
	snapChildren    bool
	snapConsolidate bool
	snapTo          string
)

var snapshotCmd = &cobra.Command{
	Use:           "snapshot",
	Short:         "VM snapshot operations",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var snapshotListCmd = &cobra.Command{
	Use:           "list <vm-name>",
	Short:         "Show the VM snapshot tree",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *vcenter.Client) error {
			vm, err := findVM(ctx, c, args[0])
			if err != nil {
				return err
			}
			return vm.ListSnapshots(ctx, os.Stdout)
		})
	},
}

var snapshotCreateCmd = &cobra.Command{
	Use:           "create <vm-name>",
	Short:         "Take a snapshot",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := snapName
		if name == "" {
			name = "snap-" + strings.Split(uuid.NewString(), "-")[0]
		}
		return withClient(cmd.Context(), func(ctx context.Context, c *vcenter.Client) error {
			vm, err := findVM(ctx, c, args[0])
			if err != nil {
				return err
			}
			ok, err := vm.CreateSnapshot(ctx, name, snapDescription, snapMemory, snapQuiesce)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Printf("%s: snapshot skipped\n", args[0])
				return nil
			}
			fmt.Printf("%s: snapshot %s created\n", args[0], name)
			return nil
		})
	},
}

var snapshotRevertCmd = &cobra.Command{
	Use:           "revert <vm-name>",
	Short:         "Revert the VM to a snapshot (--name or --current)",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if snapName == "" && !snapCurrent {
			return fmt.Errorf("revert needs --name or --current")
		}
		target := snapName
		if snapCurrent {
			target = "current snapshot"
		}
		ok, err := confirm(fmt.Sprintf("Revert %s to %s?", args[0], target))
		if err != nil || !ok {
			return err
		}
		return withClient(cmd.Context(), func(ctx context.Context, c *vcenter.Client) error {
			vm, err := findVM(ctx, c, args[0])
			if err != nil {
				return err
			}
			done, err := vm.RevertTo(ctx, snapName, snapCurrent)
			if err != nil {
				return err
			}
			if !done {
				fmt.Printf("%s: revert skipped\n", args[0])
				return nil
			}
			fmt.Printf("%s: reverted\n", args[0])
			return nil
		})
	},
}

var snapshotRemoveCmd = &cobra.Command{
	Use:           "remove <vm-name>",
	Short:         "Remove snapshots (--name, --current or --all)",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if snapName == "" && !snapCurrent && !snapAll {
			return fmt.Errorf("remove needs --name, --current or --all")
		}
		target := snapName
		switch {
		case snapAll:
			target = "all snapshots"
		case snapCurrent:
			target = "current snapshot"
		}
		ok, err := confirm(fmt.Sprintf("Remove %s of %s?", target, args[0]))
		if err != nil || !ok {
			return err
		}
		return withClient(cmd.Context(), func(ctx context.Context, c *vcenter.Client) error {
			vm, err := findVM(ctx, c, args[0])
			if err != nil {
				return err
			}
			done, err := vm.RemoveSnapshots(ctx, snapName, snapCurrent, snapAll, snapChildren, snapConsolidate)
			if err != nil {
				return err
			}
			if !done {
				fmt.Printf("%s: some removals skipped\n", args[0])
				return nil
			}
			fmt.Printf("%s: removed\n", args[0])
			return nil
		})
	},
}

var snapshotRenameCmd = &cobra.Command{
	Use:           "rename <vm-name>",
	Short:         "Rename a snapshot (--name to --to)",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if snapName == "" || snapTo == "" {
			return fmt.Errorf("rename needs --name and --to")
		}
		return withClient(cmd.Context(), func(ctx context.Context, c *vcenter.Client) error {
			vm, err := findVM(ctx, c, args[0])
			if err != nil {
				return err
			}
			snaps, err := vm.Snapshots(ctx, vcenter.SnapshotQuery{Name: snapName})
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				return fmt.Errorf("snapshot %q not found on %s", snapName, args[0])
			}
			done, err := snaps[0].Rename(ctx, snapTo, snapDescription)
			if err != nil {
				return err
			}
			if !done {
				fmt.Printf("%s: rename skipped\n", args[0])
				return nil
			}
			fmt.Printf("%s: snapshot %s renamed to %s\n", args[0], snapName, snapTo)
			return nil
		})
	},
}

var snapshotInfoCmd = &cobra.Command{
	Use:           "info <vm-name>",
	Short:         "Show details of one snapshot (--name or --current)",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if snapName == "" && !snapCurrent {
			return fmt.Errorf("info needs --name or --current")
		}
		return withClient(cmd.Context(), func(ctx context.Context, c *vcenter.Client) error {
			vm, err := findVM(ctx, c, args[0])
			if err != nil {
				return err
			}
			snaps, err := vm.Snapshots(ctx, vcenter.SnapshotQuery{Name: snapName, Current: snapCurrent})
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				return fmt.Errorf("snapshot not found on %s", args[0])
			}
			snaps[0].Info(os.Stdout)
			return nil
		})
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotCreateCmd)
	snapshotCmd.AddCommand(snapshotRevertCmd)
	snapshotCmd.AddCommand(snapshotRemoveCmd)
	snapshotCmd.AddCommand(snapshotRenameCmd)
	snapshotCmd.AddCommand(snapshotInfoCmd)

	snapshotCreateCmd.Flags().StringVar(&snapName, "name", "", "Snapshot name (default: generated)")
	snapshotCreateCmd.Flags().StringVar(&snapDescription, "description", "", "Snapshot description")
	snapshotCreateCmd.Flags().BoolVar(&snapMemory, "memory", true, "Include memory state")
	snapshotCreateCmd.Flags().BoolVar(&snapQuiesce, "quiesce", false, "Quiesce the guest filesystem")

	snapshotRevertCmd.Flags().StringVar(&snapName, "name", "", "Snapshot name")
	snapshotRevertCmd.Flags().BoolVar(&snapCurrent, "current", false, "Revert to the current snapshot")

	snapshotRemoveCmd.Flags().StringVar(&snapName, "name", "", "Snapshot name")
	snapshotRemoveCmd.Flags().BoolVar(&snapCurrent, "current", false, "Remove the current snapshot")
	snapshotRemoveCmd.Flags().BoolVar(&snapAll, "all", false, "Remove every snapshot")
	snapshotRemoveCmd.Flags().BoolVar(&snapChildren, "children", false, "Remove child snapshots too")
	snapshotRemoveCmd.Flags().BoolVar(&snapConsolidate, "consolidate", false, "Consolidate disks after removal")

	snapshotRenameCmd.Flags().StringVar(&snapName, "name", "", "Current snapshot name")
	snapshotRenameCmd.Flags().StringVar(&snapTo, "to", "", "New snapshot name")
	snapshotRenameCmd.Flags().StringVar(&snapDescription, "description", "", "New snapshot description (optional)")

	snapshotInfoCmd.Flags().StringVar(&snapName, "name", "", "Snapshot name")
	snapshotInfoCmd.Flags().BoolVar(&snapCurrent, "current", false, "Current snapshot")
}
