package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/platprobe/platprobe/internal/catalog"
	"github.com/spf13/cobra"
)

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List all supported platforms",
	Long:  "Displays every chipset and PCH the catalog can identify, with their codes and device IDs.",
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tDID\tNAME\tDESCRIPTION")
		fmt.Fprintln(w, "----\t---\t----\t-----------")

		chipsets := catalog.Chipsets()
		for _, e := range chipsets {
			fmt.Fprintf(w, "%s\t%04X\t%s\t%s\n", e.Code, e.DID, e.Name, e.Longname)
		}
		pchs := catalog.PCHs()
		for _, e := range pchs {
			fmt.Fprintf(w, "%s\t%04X\t%s\t%s\n", e.Code, e.DID, e.Name, e.Longname)
		}
		w.Flush()

		fmt.Printf("\nTotal: %d chipsets, %d PCHs\n", len(chipsets), len(pchs))
	},
}

func init() {
	rootCmd.AddCommand(platformsCmd)
}
