package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/virtadm/vmwrangler/pkg/vcenter"
)

var vmCmd = &cobra.Command{
	Use:           "vm",
	Short:         "VM power lifecycle operations",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// vmOp builds a subcommand running a single power operation against one
// VM. Operations that are skipped on a tolerated fault (wrong power
// state, tools unavailable) exit cleanly with a notice.
func vmOp(use, short string, op func(*vcenter.VirtualMachine, context.Context) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:           use + " <vm-name>",
		Short:         short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *vcenter.Client) error {
				vm, err := findVM(ctx, c, args[0])
				if err != nil {
					return err
				}
				ok, err := op(vm, ctx)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Printf("%s: skipped\n", args[0])
					return nil
				}
				fmt.Printf("%s: done\n", args[0])
				return nil
			})
		},
	}
}

var vmStateCmd = &cobra.Command{
	Use:           "state <vm-name>",
	Short:         "Show the VM power state",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(ctx context.Context, c *vcenter.Client) error {
			vm, err := findVM(ctx, c, args[0])
			if err != nil {
				return err
			}
			state, err := vm.PowerState(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", vm.Name(), state)
			return nil
		})
	},
}

var vmTerminateCmd = &cobra.Command{
	Use:           "terminate <vm-name>",
	Short:         "Kill the VM process on the host (no guest shutdown)",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := confirm(fmt.Sprintf("Terminate VM %s?", args[0]))
		if err != nil || !ok {
			return err
		}
		return withClient(cmd.Context(), func(ctx context.Context, c *vcenter.Client) error {
			vm, err := findVM(ctx, c, args[0])
			if err != nil {
				return err
			}
			done, err := vm.Terminate(ctx)
			if err != nil {
				return err
			}
			if !done {
				fmt.Printf("%s: skipped\n", args[0])
				return nil
			}
			fmt.Printf("%s: terminated\n", args[0])
			return nil
		})
	},
}

func init() {
	vmCmd.AddCommand(vmStateCmd)
	vmCmd.AddCommand(vmOp("on", "Power the VM on", (*vcenter.VirtualMachine).PowerOn))
	vmCmd.AddCommand(vmOp("off", "Power the VM off hard", (*vcenter.VirtualMachine).PowerOff))
	vmCmd.AddCommand(vmOp("suspend", "Suspend the VM", (*vcenter.VirtualMachine).Suspend))
	vmCmd.AddCommand(vmOp("reset", "Power-cycle the VM", (*vcenter.VirtualMachine).Reset))
	vmCmd.AddCommand(vmOp("shutdown", "Shut down the guest OS", (*vcenter.VirtualMachine).Shutdown))
	vmCmd.AddCommand(vmOp("reboot", "Reboot the guest OS", (*vcenter.VirtualMachine).Reboot))
	vmCmd.AddCommand(vmTerminateCmd)
}
