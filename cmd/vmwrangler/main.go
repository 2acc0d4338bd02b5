// vmwrangler - CLI tool for inspecting inventory and driving VM power and
// snapshot lifecycles in VMware vCenter
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/virtadm/vmwrangler/pkg/vcenter"
)

var configFile string
var flagHost string
var flagUser string
var flagPort int
var flagInsecure bool
var flagDebug bool
var flagYes bool

var rootCmd = &cobra.Command{
	Use:           "vmwrangler",
	Short:         "Inspect inventory and drive VM power and snapshot lifecycles in VMware vCenter",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to vCenter YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "vCenter hostname or URL (overrides config file and VMW_HOST)")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "vCenter username")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 0, "vCenter port")
	rootCmd.PersistentFlags().BoolVar(&flagInsecure, "insecure", false, "Skip TLS certificate verification")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagYes, "yes", false, "Skip confirmation prompts")

	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(vmCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// withClient connects, runs fn, and always disconnects before returning.
func withClient(ctx context.Context, fn func(context.Context, *vcenter.Client) error) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	c := vcenter.NewClient(cfg)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		_ = c.Disconnect(ctx)
	}()
	return fn(ctx, c)
}

// findVM resolves exactly one VM by name.
func findVM(ctx context.Context, c *vcenter.Client, name string) (*vcenter.VirtualMachine, error) {
	vms, err := c.VirtualMachines(ctx, &vcenter.FindOptions{Names: []string{name}})
	if err != nil {
		return nil, err
	}
	if len(vms) == 0 {
		return nil, fmt.Errorf("VM %q not found", name)
	}
	return vms[0], nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%sError:%s %v\n", clrRed, clrReset, err)
		os.Exit(1)
	}
}
