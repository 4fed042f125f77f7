package engine

import (
	"errors"
	"fmt"
)

// ErrOrderClaimed means another pass already holds the execution lease for
// this order. Not a failure: the caller simply skips the order.
var ErrOrderClaimed = errors.New("order already claimed by another execution")

type ErrorCategory string

const (
	CategoryCredential  ErrorCategory = "credential"
	CategoryBalance     ErrorCategory = "balance"
	CategoryQuote       ErrorCategory = "quote"
	CategoryFeeTransfer ErrorCategory = "fee_transfer"
	CategorySwap        ErrorCategory = "swap"
	CategoryInternal    ErrorCategory = "internal"
)

// ExecutionError is the pipeline's failure payload. FeeTxDigest is set when
// the platform fee was already taken on-chain before the failure: that case
// must never be presented as a generic error, the digest is the operator's
// only handle for reconciling a charged-but-unexecuted order.
type ExecutionError struct {
	Category    ErrorCategory
	FeeTxDigest string
	Terminal    bool
	Err         error
}

func (e *ExecutionError) Error() string {
	if e.FeeTxDigest != "" {
		return fmt.Sprintf("%s: %v (fee already taken, trade failed, fee tx = %s)", e.Category, e.Err, e.FeeTxDigest)
	}
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func newExecError(category ErrorCategory, err error) *ExecutionError {
	return &ExecutionError{Category: category, Err: err}
}

// AsExecutionError extracts the pipeline failure payload from an error
// chain, if present.
func AsExecutionError(err error) (*ExecutionError, bool) {
	var execErr *ExecutionError
	ok := errors.As(err, &execErr)
	return execErr, ok
}
