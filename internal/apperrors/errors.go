package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates the caller is not allowed to act on the resource.
var ErrForbidden = errors.New("forbidden")

// ErrConflict indicates the operation conflicts with the current state of the resource.
var ErrConflict = errors.New("conflict with current resource state")

// Chart of accounts / category hierarchy errors.
var (
	// ErrDuplicateCode indicates an account code is already taken for the user.
	ErrDuplicateCode = fmt.Errorf("%w: account code already in use", ErrDuplicate)

	// ErrDuplicateName indicates a category name is already taken under the same parent.
	ErrDuplicateName = fmt.Errorf("%w: name already in use under the same parent", ErrDuplicate)

	// ErrParentNotFound indicates the referenced parent node does not exist for the user.
	ErrParentNotFound = fmt.Errorf("%w: parent not found", ErrNotFound)

	// ErrSelfParent indicates a node was asked to become its own parent.
	ErrSelfParent = fmt.Errorf("%w: node cannot be its own parent", ErrValidation)

	// ErrCycleDetected indicates a reparent would make a node an ancestor of itself.
	ErrCycleDetected = fmt.Errorf("%w: reparenting would create a cycle", ErrValidation)

	// ErrTypeMismatch indicates a child category's type differs from its parent's type.
	ErrTypeMismatch = fmt.Errorf("%w: child type must match parent type", ErrValidation)

	// ErrHasChildren indicates a node cannot be deleted while it has children.
	ErrHasChildren = fmt.Errorf("%w: node still has children", ErrConflict)

	// ErrHasTransactions indicates an account cannot be deleted while transaction lines reference it.
	ErrHasTransactions = fmt.Errorf("%w: account is referenced by transaction lines", ErrConflict)
)

// Ledger errors.
var (
	// ErrUnbalancedTransaction indicates the debit and credit line totals are not exactly equal.
	ErrUnbalancedTransaction = fmt.Errorf("%w: debits do not equal credits", ErrValidation)

	// ErrInvalidAccountRef indicates a line references an account that does not exist
	// or does not belong to the posting user.
	ErrInvalidAccountRef = fmt.Errorf("%w: invalid account reference", ErrValidation)

	// ErrInactiveAccount indicates a line references an account that is inactive.
	ErrInactiveAccount = fmt.Errorf("%w: account is inactive", ErrValidation)

	// ErrAlreadyVoided indicates a void was attempted on a transaction that is not posted.
	ErrAlreadyVoided = fmt.Errorf("%w: transaction already voided", ErrConflict)
)

// ErrSerialization marks a storage-level serialization or deadlock failure.
// Callers retry these a bounded number of times before giving up.
var ErrSerialization = errors.New("storage serialization conflict")

// ErrTransient is surfaced after retries on serialization conflicts are exhausted.
// It is distinct from validation errors: the request may succeed if repeated.
var ErrTransient = errors.New("transient storage conflict, retry later")

// AppError wraps a lower-level error with an HTTP-ish status code and message.
// Repositories use it for failures that have no sentinel of their own.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that matches errors.Is(err, ErrNotFound).
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
