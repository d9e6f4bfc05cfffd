package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/platprobe/platprobe/internal/color"
	"github.com/platprobe/platprobe/internal/hexutil"
	"github.com/spf13/cobra"
)

var (
	controlBusIndex int
	controlThread   int
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Access named platform controls",
	Long:  "Controls are stable aliases for security-relevant register fields, resolved per platform.",
}

var controlListCmd = &cobra.Command{
	Use:   "list",
	Short: "List controls defined for this platform",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		names := make([]string, 0, len(s.Store().Controls))
		for name := range s.Store().Controls {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tREGISTER\tFIELD\tDESCRIPTION")
		fmt.Fprintln(w, "----\t--------\t-----\t-----------")
		for _, name := range names {
			ctl := s.Store().Controls[name]
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ctl.Name, ctl.Register, ctl.Field, ctl.Desc)
		}
		w.Flush()

		fmt.Printf("\nTotal: %d controls\n", len(names))
		return nil
	},
}

var controlGetCmd = &cobra.Command{
	Use:   "get <control>",
	Short: "Read the value of a control",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		seen := len(s.Notices())
		val, err := s.GetControlAt(args[0], controlBusIndex, controlThread)
		if err != nil {
			return err
		}
		fmt.Printf("%s = 0x%X\n", args[0], val)
		flushNotices(s, seen)
		return nil
	},
}

var controlSetCmd = &cobra.Command{
	Use:   "set <control> <value>",
	Short: "Write the value of a control",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		val, err := hexutil.ParseUint(args[1], 64)
		if err != nil {
			return err
		}
		seen := len(s.Notices())
		if err := s.SetControlAt(args[0], val, controlBusIndex, controlThread); err != nil {
			return err
		}
		fmt.Println(color.Okf("%s <- 0x%X", args[0], val))
		flushNotices(s, seen)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{controlGetCmd, controlSetCmd} {
		c.Flags().IntVar(&controlBusIndex, "bus-index", 0, "which discovered bus instance to address")
		c.Flags().IntVar(&controlThread, "thread", 0, "logical CPU thread for MSR-backed controls")
	}

	controlCmd.AddCommand(controlListCmd)
	controlCmd.AddCommand(controlGetCmd)
	controlCmd.AddCommand(controlSetCmd)
	rootCmd.AddCommand(controlCmd)
}
