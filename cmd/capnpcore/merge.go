package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	capnp "github.com/palad1/capnpcore"
)

var mergeCmd = &cobra.Command{
	Use:   "merge SRC DST",
	Short: "Deep-copy the root struct of SRC into a new message written to DST",
	Args:  cobra.ExactArgs(2),
	RunE:  runMerge,
}

func runMerge(cmd *cobra.Command, args []string) error {
	src, dst := args[0], args[1]

	srcMsg, err := decodeFile(src)
	if err != nil {
		return err
	}
	srcRoot, err := srcMsg.Root()
	if err != nil {
		return errors.Wrap(err, "read source root")
	}

	dstMsg, _, err := capnp.NewMessage(nil)
	if err != nil {
		return errors.Wrap(err, "new destination message")
	}
	dstRoot, err := srcRoot.CopyTo(dstMsg)
	if err != nil {
		return errors.Wrap(err, "copy root")
	}
	if err := dstMsg.SetRoot(dstRoot); err != nil {
		return errors.Wrap(err, "set destination root")
	}

	f, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "create %s", dst)
	}
	defer f.Close()
	if err := capnp.NewEncoder(f).Encode(dstMsg); err != nil {
		return errors.Wrapf(err, "encode %s", dst)
	}
	return nil
}
