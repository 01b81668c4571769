// Package service holds policy shared by the catalog and ledger services.
package service

import (
	"errors"

	"github.com/salonbook/salonbook/internal/errs"
)

// Retry runs op, allowing one automatic retry when the failure is a store
// availability problem. Validation, not-found and conflict failures are
// surfaced immediately. After the retry the error propagates unchanged and
// the operation is abandoned.
func Retry(op func() error) error {
	err := op()
	if err == nil || !errors.Is(err, errs.ErrUnavailable) {
		return err
	}
	return op()
}
