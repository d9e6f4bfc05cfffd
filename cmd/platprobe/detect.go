package main

import (
	"fmt"

	"github.com/platprobe/platprobe/internal/catalog"
	"github.com/platprobe/platprobe/internal/chipset"
	"github.com/platprobe/platprobe/internal/color"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Identify the running platform",
	Long: `Reads the host bridge and PCH identification registers, matches them
against the platform catalog and reports what configuration would load.

Example:
  platprobe detect
  platprobe detect --platform SNB --pch PCH_1XX`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		printIdentity("Chipset", s.Chipset())
		printIdentity("PCH", s.PCH())

		switch {
		case s.IsCore():
			fmt.Println(color.Info("Family: Core"))
		case s.IsServer():
			fmt.Println(color.Info("Family: Xeon"))
		case s.IsAtom():
			fmt.Println(color.Info("Family: Atom"))
		}

		r := s.Report()
		if r.OverrideApplied {
			fmt.Println(color.Info("Programmatic configuration override applied"))
		}
		for _, f := range r.Loaded {
			fmt.Println(color.Okf("Loaded %s", f))
		}
		for _, wrn := range r.Warnings {
			fmt.Println(color.Warnf("Skipped %s", wrn))
		}
		return nil
	},
}

func printIdentity(kind string, id chipset.Identity) {
	marker := color.OK
	if id.ID == catalog.Unknown {
		marker = color.Warn
	}
	fmt.Println(marker(fmt.Sprintf("%s: %s", kind, id.Longname)))
	fmt.Printf("    VID: 0x%04X  DID: 0x%04X  RID: 0x%02X", id.VID, id.DID, id.RID)
	if id.Code != "" {
		fmt.Printf("  code: %s", id.Code)
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
