package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/platprobe/platprobe/internal/access"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan and list present PCI devices",
	Long:  "Enumerates /sys/bus/pci/devices/ and lists every present PCI device with its identification.",
	RunE: func(cmd *cobra.Command, args []string) error {
		layer := access.NewLinux()
		defer layer.Close()

		devices, err := layer.Enumerate()
		if err != nil {
			return fmt.Errorf("failed to enumerate devices: %w", err)
		}
		if len(devices) == 0 {
			fmt.Println("No PCI devices found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BDF\tVENDOR\tDEVICE\tREV\tCLASS")
		fmt.Fprintln(w, "---\t------\t------\t---\t-----")

		for _, dev := range devices {
			fmt.Fprintf(w, "%s\t%04x\t%04x\t%02x\t%s\n",
				dev.BDF.String(),
				dev.VendorID,
				dev.DeviceID,
				dev.RevisionID,
				dev.ClassDescription(),
			)
		}
		w.Flush()

		fmt.Printf("\nTotal: %d devices\n", len(devices))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
