package main

import (
	"fmt"
	"os"

	"github.com/platprobe/platprobe/internal/access"
	"github.com/platprobe/platprobe/internal/chipset"
	"github.com/platprobe/platprobe/internal/color"
	"github.com/spf13/cobra"
)

var (
	flagPlatform string
	flagPCH      string
	flagCfgDir   string
	flagHardware bool
	flagNoColor  bool
)

var rootCmd = &cobra.Command{
	Use:   "platprobe",
	Short: "Platform identification and register access engine",
	Long: `Platprobe identifies the running chipset and PCH, loads their layered
hardware configuration, and gives named access to platform registers
across PCI config space, MMIO, MSRs, port I/O and the sideband
message bus.

This tool requires:
  - Linux with /sys/bus/pci and /dev/cpu/*/msr (msr kernel module)
  - root privileges for raw hardware access`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagNoColor {
			color.Disable()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagPlatform, "platform", "", "force the chipset code instead of live detection (e.g. SNB)")
	rootCmd.PersistentFlags().StringVar(&flagPCH, "pch", "", "force the PCH code instead of live detection (e.g. PCH_1XX)")
	rootCmd.PersistentFlags().StringVar(&flagCfgDir, "cfg-dir", "configs", "directory with platform configuration files")
	rootCmd.PersistentFlags().BoolVar(&flagHardware, "require-hardware", false, "fail instead of degrading when the platform is unidentified")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")
}

// openSession initializes a session against the live kernel with the
// global flags applied. Callers own Close.
func openSession() (*chipset.Session, error) {
	s := chipset.NewSession(access.NewLinux())
	err := s.Init(chipset.Options{
		Platform:        flagPlatform,
		PCH:             flagPCH,
		ConfigDir:       flagCfgDir,
		RequireHardware: flagHardware,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	for _, n := range s.Notices() {
		fmt.Println(color.Warn(n))
	}
	return s, nil
}

// flushNotices prints notices accrued after the first seen, so degradations
// raised during register access (an out-of-range bus index falling back to
// the static bus) reach the user, not only init-time ones.
func flushNotices(s *chipset.Session, seen int) {
	for _, n := range s.Notices()[seen:] {
		fmt.Println(color.Warn(n))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
