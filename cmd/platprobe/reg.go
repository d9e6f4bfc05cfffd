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
	regBusIndex int
	regThread   int
	regField    string
)

var regCmd = &cobra.Command{
	Use:   "reg",
	Short: "Access named platform registers",
}

var regListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registers defined for this platform",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		names := make([]string, 0, len(s.Store().Register))
		for name := range s.Store().Register {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tSIZE\tDESCRIPTION")
		fmt.Fprintln(w, "----\t----\t----\t-----------")
		for _, name := range names {
			reg := s.Store().Register[name]
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", reg.Name, reg.Kind, reg.Size, reg.Desc)
		}
		w.Flush()

		fmt.Printf("\nTotal: %d registers\n", len(names))
		return nil
	},
}

var regReadCmd = &cobra.Command{
	Use:   "read <register>",
	Short: "Read a register, or one field of it with --field",
	Long: `Reads a named register from its address space and prints the value with
the field breakdown.

Example:
  platprobe reg read BC
  platprobe reg read BC --field BLE
  platprobe reg read MSR_BIOS_DONE --thread 2
  platprobe reg read GBE_CSR --bus-index 1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		name := args[0]
		seen := len(s.Notices())
		if regField != "" {
			val, err := s.ReadRegisterFieldAt(name, regField, false, regBusIndex, regThread)
			if err != nil {
				return err
			}
			fmt.Printf("%s.%s = 0x%X\n", name, regField, val)
			flushNotices(s, seen)
			return nil
		}

		val, err := s.ReadRegisterAt(name, regBusIndex, regThread)
		if err != nil {
			return err
		}
		fmt.Println(s.FormatRegister(name, val))
		flushNotices(s, seen)
		return nil
	},
}

var regWriteCmd = &cobra.Command{
	Use:   "write <register> <value>",
	Short: "Write a register, or read-modify-write one field with --field",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		name := args[0]
		val, err := hexutil.ParseUint(args[1], 64)
		if err != nil {
			return err
		}

		seen := len(s.Notices())
		if regField != "" {
			if err := s.WriteRegisterFieldAt(name, regField, false, val, regBusIndex, regThread); err != nil {
				return err
			}
			fmt.Println(color.Okf("%s.%s <- 0x%X", name, regField, val))
			flushNotices(s, seen)
			return nil
		}
		if err := s.WriteRegisterAt(name, regBusIndex, regThread, val); err != nil {
			return err
		}
		fmt.Println(color.Okf("%s <- 0x%X", name, val))
		flushNotices(s, seen)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{regReadCmd, regWriteCmd} {
		c.Flags().IntVar(&regBusIndex, "bus-index", 0, "which discovered bus instance to address")
		c.Flags().IntVar(&regThread, "thread", 0, "logical CPU thread for MSR registers")
		c.Flags().StringVar(&regField, "field", "", "access a single named field of the register")
	}

	regCmd.AddCommand(regListCmd)
	regCmd.AddCommand(regReadCmd)
	regCmd.AddCommand(regWriteCmd)
	rootCmd.AddCommand(regCmd)
}
