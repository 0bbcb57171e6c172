package main

import (
	"io"
	"os"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"omibyte.io/wmdt/devconf"
)

var (
	getCmd = &cobra.Command{
		Use:   "get <device>",
		Short: "Print the configuration of a device",
		Long:  "Print the normalized configuration of a device as a description entry. Devices missing from the description show their class defaults.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseDevice(args[0])
			if err != nil {
				return err
			}
			_, chip, err := loadGate()
			if err != nil {
				return err
			}
			m, err := loadModel(chip)
			if err != nil {
				return err
			}

			rec, err := m.Get(key)
			if err != nil {
				return err
			}
			data, err := devconf.EncodeRecord(rec)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	setOpts = struct {
		file string
	}{}

	setCmd = &cobra.Command{
		Use:   "set <device>",
		Short: "Replace the configuration of a device",
		Long:  "Replace the configuration of a device with an entry read from a file or standard input, then rewrite the description.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseDevice(args[0])
			if err != nil {
				return err
			}

			var data []byte
			if setOpts.file == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(setOpts.file)
			}
			if err != nil {
				return errors.Annotate(err, "reading entry")
			}

			_, chip, err := loadGate()
			if err != nil {
				return err
			}
			m, err := loadModel(chip)
			if err != nil {
				return err
			}

			rec, err := devconf.DecodeRecord(key, data, chip)
			if err != nil {
				return err
			}
			return m.Set(key, rec)
		},
	}
)

func init() {
	setCmd.Flags().StringVarP(&setOpts.file, "file", "f", "-", "entry to apply, - for standard input")
}

func parseDevice(name string) (devconf.Key, error) {
	key, ok := devconf.ParseKey(name)
	if !ok || !key.Valid() {
		return devconf.Key{}, errors.NotFoundf("device %q", name)
	}
	return key, nil
}
