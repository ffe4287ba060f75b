package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found,
// or is soft-deleted in a context where deletion matters.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates the acting user lacks the capability for the operation.
var ErrForbidden = errors.New("forbidden")

// ErrConflict indicates the operation conflicts with the current state of the resource.
var ErrConflict = errors.New("conflict with current resource state")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// ErrInvalidAmount indicates a non-positive monetary amount or a rate
// outside the allowed set.
var ErrInvalidAmount = errors.New("invalid amount or rate")

// ErrInvalidTransition indicates a state change that is not permitted from
// the record's current state.
var ErrInvalidTransition = errors.New("invalid state transition")

// ErrApprovalRequired indicates a settlement was attempted on a payment whose
// owning transaction has not been approved (or marked not-required).
var ErrApprovalRequired = errors.New("transaction approval required")

// ErrAlreadySettled indicates a redundant settle on an already settled payment.
var ErrAlreadySettled = errors.New("payment already settled")

// ErrSelfApproval indicates the approver is the same user who submitted the record.
var ErrSelfApproval = errors.New("self approval is not allowed")
