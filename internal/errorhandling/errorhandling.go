// Package errorhandling aggregates per-item failures from a batch
// operation into a single error, for commands that keep going after an
// individual item fails instead of aborting the whole run.
package errorhandling

import (
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// JoinErrors folds errs into one error whose message lists each
// failure on its own line, or nil if errs is empty.
func JoinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	var multiE *multierror.Error
	multiE = multierror.Append(multiE, errs...)
	return errors.New(strings.TrimSpace(multiE.ErrorOrNil().Error()))
}
