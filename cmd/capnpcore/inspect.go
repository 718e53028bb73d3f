package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	capnp "github.com/palad1/capnpcore"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Decode a message and log its segment and root pointer shape",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func decodeFile(path string) (*capnp.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	msg, err := capnp.NewDecoder(f).Decode()
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	msg.TraverseLimit = traversalLimitWords * 8
	msg.DepthLimit = depthLimit
	return msg, nil
}

func ptrKind(p capnp.Ptr) string {
	switch {
	case !p.IsValid():
		return "null"
	case p.Struct().IsValid():
		return "struct"
	case p.List().IsValid():
		return "list"
	case p.Interface().IsValid():
		return "interface"
	default:
		return "unknown"
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	msg, err := decodeFile(path)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"file":     path,
		"segments": msg.NumSegments(),
	}).Info("decoded message")

	for i := int64(0); i < msg.NumSegments(); i++ {
		seg, err := msg.Segment(capnp.SegmentID(i))
		if err != nil {
			return errors.Wrapf(err, "load segment %d", i)
		}
		logrus.WithFields(logrus.Fields{
			"segment": i,
			"words":   len(seg.Data()) / 8,
		}).Info("segment")
	}

	root, err := msg.Root()
	if err != nil {
		return errors.Wrap(err, "read root")
	}
	logrus.WithField("root_kind", ptrKind(root)).Info("root pointer")
	return nil
}
