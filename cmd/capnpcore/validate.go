package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	capnp "github.com/palad1/capnpcore"
	"github.com/palad1/capnpcore/internal/errorhandling"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Decode each file and walk its root pointer, reporting every failure",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	var failures []error
	for _, path := range args {
		if err := validateFile(path); err != nil {
			failures = append(failures, errors.Wrapf(err, "%s", path))
		}
	}
	return errorhandling.JoinErrors(failures)
}

func validateFile(path string) error {
	msg, err := decodeFile(path)
	if err != nil {
		return err
	}
	root, err := msg.Root()
	if err != nil {
		return errors.Wrap(err, "read root")
	}
	return walkPtr(root)
}

// walkPtr dereferences every pointer reachable from p, forcing the
// message's traversal-limit and depth-limit accounting to run over the
// whole graph. It reports the first error encountered, matching
// capnp's own read-then-fail-fast policy on malformed input.
func walkPtr(p capnp.Ptr) error {
	if !p.IsValid() {
		return nil
	}
	if st := p.Struct(); st.IsValid() {
		return walkStruct(st)
	}
	if l := p.List(); l.IsValid() {
		return walkList(l)
	}
	return nil
}

func walkStruct(s capnp.Struct) error {
	n := s.Size().PointerCount
	for i := uint16(0); i < n; i++ {
		p, err := s.Ptr(i)
		if err != nil {
			return errors.Wrapf(err, "pointer %d", i)
		}
		if err := walkPtr(p); err != nil {
			return err
		}
	}
	return nil
}

func walkList(l capnp.List) error {
	for i := 0; i < l.Len(); i++ {
		if err := walkStruct(l.Struct(i)); err != nil {
			return errors.Wrapf(err, "element %d", i)
		}
	}
	return nil
}
