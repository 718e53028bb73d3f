package capnp

import (
	"errors"

	"github.com/palad1/capnpcore/internal/exc"
)

// wireExc tags every error this package raises internally with the
// "capnp" component prefix, so a caller walking an error chain can
// tell where in the stack a failure originated.
var wireExc = exc.Annotator("capnp")

// newTyped builds an error of the given exception kind with no
// component prefix of its own; it backs the small family of
// kind-testing constructors below.
func newTyped(kind exc.Type, msg string) error {
	return exc.New(kind, "", msg)
}

// Unimplemented returns an error reporting true from IsUnimplemented.
func Unimplemented(s string) error {
	return newTyped(exc.Unimplemented, s)
}

// IsUnimplemented reports whether e indicates unimplemented
// functionality.
func IsUnimplemented(e error) bool {
	return exc.TypeOf(e) == exc.Unimplemented
}

// Disconnected returns an error reporting true from IsDisconnected.
func Disconnected(s string) error {
	return newTyped(exc.Disconnected, s)
}

// IsDisconnected reports whether e indicates the loss of a needed
// capability.
func IsDisconnected(e error) bool {
	return exc.TypeOf(e) == exc.Disconnected
}

// errorf builds a plain Failed-kind error scoped to this package,
// for sites that are reporting a problem rather than wrapping one.
func errorf(format string, args ...interface{}) error {
	return wireExc.New(format, args...)
}

// annotatef wraps err with additional context while preserving its
// exception kind and Unwrap chain, so that errors.Is checks against
// sentinels below keep working however deep the wrapping goes.
func annotatef(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return wireExc.Annotatef(err, format, args...)
}

// Sentinel errors for malformed or out-of-policy wire data. Match
// these with errors.Is rather than comparing message text, since
// annotatef layers additional context onto them as they propagate.
var (
	// ErrSegmentOutOfRange reports a word index outside a segment's
	// bounds.
	ErrSegmentOutOfRange = errors.New("capnp: segment address out of range")

	// ErrPointerIndexOutOfRange reports a pointer-word write targeting
	// a slot at or beyond a struct's declared pointer word count.
	ErrPointerIndexOutOfRange = errors.New("capnp: pointer index out of range")

	// ErrShortStruct reports a write to a field beyond an allocated
	// struct's declared words with a non-default value.
	ErrShortStruct = errors.New("capnp: write to field beyond short struct")

	// ErrUpgradedListElement reports a pointer write to a struct
	// synthesized from a primitive list element, which has no pointer
	// words.  Data writes past the element's own bytes report
	// ErrShortStruct instead.
	ErrUpgradedListElement = errors.New("capnp: write to upgraded list element beyond field 0")

	// ErrMalformedPointer reports a pointer kind combination that is
	// not a permitted encoding.
	ErrMalformedPointer = errors.New("capnp: malformed pointer")

	// ErrOversizedList reports a list element count or composite word
	// count overflowing its encodable range.
	ErrOversizedList = errors.New("capnp: list too large to encode")

	// ErrTraversalLimitExceeded reports a pointer chain that has
	// visited more words than the message's configured read budget.
	ErrTraversalLimitExceeded = errors.New("capnp: read traversal limit exceeded")

	// ErrIndexOutOfRange reports a list accessor index outside
	// [0, length).
	ErrIndexOutOfRange = errors.New("capnp: list index out of range")

	// ErrUnsupportedOtherPointer reports an "other" pointer carrying a
	// subtype other than capability (0).
	ErrUnsupportedOtherPointer = errors.New("capnp: unsupported other-pointer subtype")

	// ErrCrossMessagePointer reports an attempt to write a pointer
	// whose target lives in a different message than the struct being
	// written to.
	ErrCrossMessagePointer = errors.New("capnp: pointer target belongs to a different message")

	// ErrDepthLimitExceeded reports a dereference that would exceed
	// the message's configured nesting depth.
	ErrDepthLimitExceeded = errors.New("capnp: nesting depth limit exceeded")
)
