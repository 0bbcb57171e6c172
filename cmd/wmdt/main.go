// Command wmdt edits device descriptions and compiles them into the device
// tables the firmware binds its drivers with.
package main

import (
	"flag"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"omibyte.io/wmdt/devconf"
	"omibyte.io/wmdt/kconfig"
	"omibyte.io/wmdt/targets"
)

var (
	rootOpts = struct {
		description string
		kconfig     string
		chip        string
		allFeatures bool
	}{}

	mainCmd = &cobra.Command{
		Use:           "wmdt",
		Short:         "Device table compiler",
		Long:          "Load a device description, resolve its pin assignments and generate the C device table for the enabled drivers.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	mainCmd.PersistentFlags().StringVarP(&rootOpts.description, "description", "d", "device_table.yaml", "device description document")
	mainCmd.PersistentFlags().StringVarP(&rootOpts.kconfig, "kconfig", "k", "sdkconfig", "build configuration selecting the enabled drivers")
	mainCmd.PersistentFlags().StringVar(&rootOpts.chip, "chip", "", "chip variant, overrides the build configuration")
	mainCmd.PersistentFlags().BoolVar(&rootOpts.allFeatures, "all-features", false, "treat every driver as enabled")

	// glog registers its flags on the standard flag set.
	mainCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	mainCmd.AddCommand(generateCmd, pinsCmd, getCmd, setCmd, checkCmd)
}

// loadGate returns the feature gate and chip selected by the global flags.
func loadGate() (*kconfig.Gate, targets.Chip, error) {
	gate, err := kconfig.Load(rootOpts.kconfig)
	if err != nil {
		return nil, targets.Chip{}, err
	}

	chip := gate.Chip()
	if len(rootOpts.chip) > 0 {
		chip = rootOpts.chip
	}
	if rootOpts.allFeatures {
		gate = kconfig.All(chip)
	} else if chip != gate.Chip() {
		gate = kconfig.New(chip, gate.List()...)
	}

	target, err := gate.Target()
	if err != nil {
		return nil, targets.Chip{}, err
	}
	return gate, target, nil
}

// loadModel loads the description for chip.
func loadModel(chip targets.Chip) (*devconf.Model, error) {
	return devconf.Load(devconf.FileStore(rootOpts.description), chip)
}

func main() {
	defer glog.Flush()

	if err := mainCmd.Execute(); err != nil {
		glog.Error(err)
		glog.Flush()
		os.Exit(1)
	}
}
