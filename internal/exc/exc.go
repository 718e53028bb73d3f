package exc

import "fmt"

// Exception is an error with a type and a component prefix, optionally
// wrapping a cause.
type Exception struct {
	Type   Type
	Prefix string
	Cause  error
	msg    string
}

// New returns a new Exception of type typ.  prefix, if non-empty, is
// prepended to msg as "prefix: msg".
func New(typ Type, prefix, msg string) *Exception {
	return &Exception{Type: typ, Prefix: prefix, msg: msg}
}

// Error implements the error interface.
func (e *Exception) Error() string {
	if e.Prefix == "" {
		return e.msg
	}
	return e.Prefix + ": " + e.msg
}

// Unwrap returns the wrapped cause, if any.
func (e *Exception) Unwrap() error {
	return e.Cause
}

// Annotator constructs Exceptions with a fixed component prefix, e.g.
// "capnp".
type Annotator string

// New returns a new Failed Exception with message text formatted per
// format/args.
func (a Annotator) New(format string, args ...interface{}) error {
	return &Exception{Type: Failed, Prefix: string(a), msg: fmt.Sprintf(format, args...)}
}

// Failedf is an alias for New, matching the RPC-side naming that
// distinguishes "Failed" from the other exception types.
func (a Annotator) Failedf(format string, args ...interface{}) error {
	return a.New(format, args...)
}

// Annotatef wraps err with additional context, preserving its type if it
// is itself an *Exception, and preserving Unwrap-ability.
func (a Annotator) Annotatef(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	typ := TypeOf(err)
	msg := fmt.Sprintf(format, args...) + ": " + err.Error()
	return &Exception{Type: typ, Prefix: string(a), Cause: err, msg: msg}
}
