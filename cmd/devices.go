package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jordandm999/christmas-piano/midiin"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available MIDI input devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return listDevices()
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func listDevices() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	names, err := midiin.Inputs()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("no MIDI input devices found")
		return nil
	}
	for i, name := range names {
		var note string
		switch {
		case matchesAnyCI(name, cfg.Input.Excluded):
			note = "  (excluded)"
		case matchesAnyCI(name, cfg.Input.Preferred):
			note = "  (preferred)"
		}
		fmt.Printf("%d: %s%s\n", i, name, note)
	}
	return nil
}

func matchesAnyCI(name string, patterns []string) bool {
	for _, pat := range patterns {
		if strings.Contains(strings.ToLower(name), strings.ToLower(pat)) {
			return true
		}
	}
	return false
}
