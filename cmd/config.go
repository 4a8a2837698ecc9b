package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PolarWolf314/claw-migrator/internal/configs"
	kerrors "github.com/PolarWolf314/claw-migrator/internal/errors"
	"github.com/PolarWolf314/claw-migrator/internal/ui"
	"github.com/PolarWolf314/claw-migrator/internal/utils"

	"github.com/spf13/cobra"
)

var (
	configShowJSON  bool
	configInitForce bool
)

// ConfigCmd is the top-level config command.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage claw-migrator settings",
	Long: `Provides commands for the settings file that supplies defaults for export,
import and fix-paths.

Examples:
  # Write a settings file with the defaults
  claw-migrator config init

  # Show the settings in effect
  claw-migrator config show`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the settings in effect",
	Long: `Displays the settings in effect: the settings file merged over the built-in
defaults. Keys the settings file does not recognize are reported.

Examples:
  claw-migrator config show
  claw-migrator config show --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config show command")
		path := configs.UserMigratorSettings.SettingsPath

		config, unknown, err := configs.LoadConfig()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to load settings: %v", err)
		}

		if configShowJSON {
			Logger.Debugf("Outputting settings as JSON")
			output, err := json.MarshalIndent(config, "", "  ")
			if err != nil {
				return Logger.ErrorfAndReturn("Failed to marshal settings to JSON: %v", err)
			}
			fmt.Println(string(output))
			return nil
		}

		source := ui.Muted.Sprint("defaults, no settings file")
		if utils.FileExists(path) {
			source = ui.Path.Sprint(path)
		}
		fmt.Println(ui.Info.Sprint("Settings") + " " + source)
		fmt.Println()
		fmt.Print(ui.Rows(
			ui.Row{Label: "export.sources", Value: strings.Join(config.Export.Sources, ", ")},
			ui.Row{Label: "export.output", Value: config.Export.Output},
			ui.Row{Label: "import.destination", Value: config.Import.Destination},
			ui.Row{Label: "import.skip_heal", Value: strconv.FormatBool(config.Import.SkipHeal)},
			ui.Row{Label: "heal.boundary_aware", Value: strconv.FormatBool(config.Heal.BoundaryAware)},
		))

		if len(unknown) > 0 {
			fmt.Println()
			fmt.Println(ui.Warning.Sprint("⚠") + " Unrecognized keys: " + strings.Join(unknown, ", "))
		}
		if !utils.FileExists(path) {
			fmt.Println()
			fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("claw-migrator config init") + " to create a settings file")
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with the defaults",
	Long: `Writes the built-in defaults to the settings file so they can be edited.
An existing file is left alone unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config init command")

		path, err := configs.InitConfig(configInitForce)
		if errors.Is(err, kerrors.ErrSettingsExist) {
			fmt.Println(ui.Warning.Sprint("⚠") + " Settings file already exists at " + ui.Path.Sprint(path) + "\n" +
				ui.Info.Sprint("→") + " Use " + ui.Flag.Sprint("--force") + " to overwrite it")
			return nil
		}
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to write settings: %v", err)
		}

		fmt.Println(ui.Success.Sprint("✓") + " Wrote settings to " + ui.Path.Sprint(path))
		return nil
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing settings file")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configInitCmd)
}

// resetConfigState resets all config command global variables to their default values for testing.
func resetConfigState() {
	configShowJSON = false
	configInitForce = false
}
