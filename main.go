package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/PolarWolf314/claw-migrator/cmd"
	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "claw-migrator",
	Short: "claw-migrator - move an agent's configuration and workspace between machines.",
	Long: `claw-migrator packs an agent's configuration directory and workspace into a
single password-protected archive, restores it on another machine, and
rewrites the paths in the restored configuration to fit the new home
directory.

Usage:
  claw-migrator <command> [flags]

Available Commands:
  export     Write an encrypted archive
  import     Restore an archive and fix paths
  fix-paths  Fix paths in an already restored configuration
  config     Manage settings
  history    List past operations

Run 'claw-migrator help <command>' for more details on a specific command.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(c *cobra.Command, args []string) {
		banner := figure.NewColorFigure("claw-migrator", "small", "cyan", true)
		banner.Print()
		fmt.Println()
		fmt.Println("Run 'claw-migrator --help' to see available commands.")
	},
}

func init() {
	cmd.Register(rootCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !cmd.IsReported(err) {
			fmt.Println(err)
		}
		stop()
		os.Exit(1)
	}
}
