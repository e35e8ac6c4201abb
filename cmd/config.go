package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/okarpenko/mangaua/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration profiles with persistent download defaults",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create and activate the Default profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.InitDefaultProfile()
		if err == os.ErrExist {
			fmt.Println("Configuration already exists at:")
			fmt.Println("  ", path)
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Println("Config created at:", path)
		fmt.Println("This config is now active (label: Default).")
		fmt.Println()
		fmt.Println("Defaults:")
		config.DefaultConfig().Print()

		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := config.ListProfiles()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No profiles yet. Run `mangaua config init`.")
			return nil
		}

		for _, p := range list {
			marker := "  "
			if p.Active {
				marker = "* "
			}
			fmt.Printf("%s%s  (%s)\n", marker, p.Label, p.Path)
		}

		return nil
	},
}

var configSwitchCmd = &cobra.Command{
	Use:   "switch [label]",
	Short: "Switch to a different profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string

		if len(args) == 1 {
			label = args[0]
		} else {
			list, err := config.ListProfiles()
			if err != nil {
				return err
			}
			if len(list) == 0 {
				return fmt.Errorf("no profiles available")
			}

			items := make([]string, 0, len(list))
			for _, p := range list {
				if p.Active {
					items = append(items, p.Label+"  (active)")
				} else {
					items = append(items, p.Label)
				}
			}

			prompt := promptui.Select{
				Label: "Select config",
				Items: items,
			}

			idx, _, err := prompt.Run()
			if err != nil {
				return fmt.Errorf("selection cancelled")
			}

			label = list[idx].Label
		}

		if err := config.SwitchProfile(label); err != nil {
			return err
		}

		fmt.Println("Switched to:", label)
		return nil
	},
}

var configRemoveCmd = &cobra.Command{
	Use:   "remove <label>",
	Short: "Remove a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := args[0]

		active, _ := config.CurrentLabel()
		if label == active {
			fmt.Printf("Config %q is currently active. Remove it anyway? [y/N]: ", label)

			reader := bufio.NewReader(os.Stdin)
			resp, _ := reader.ReadString('\n')
			resp = strings.TrimSpace(strings.ToLower(resp))

			if resp != "y" && resp != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		if err := config.RemoveProfile(label); err != nil {
			return err
		}

		fmt.Printf("Removed configuration %q\n", label)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configListCmd, configSwitchCmd, configRemoveCmd)
	rootCmd.AddCommand(configCmd)
}
