package types

import (
	"errors"

	"github.com/dytallix/go-dytallix/common/check"
)

// Execution failures are identified by an integer ErrorCode which is stored
// in the transaction receipt. Codes are part of the receipt format: they must
// be identical on every node, so new codes are only ever appended.

type ErrorCode uint32

const (
	ErrorSuccess ErrorCode = iota
	ErrorUnknown

	// ErrorInsufficientFunds is returned when the sender cannot cover the
	// upfront fee, or a transfer amount exceeds the balance mid-execution.
	ErrorInsufficientFunds

	// ErrorInvalidNonce is returned when the transaction nonce does not match
	// the sender's account nonce. No state is changed.
	ErrorInvalidNonce

	// ErrorInvalidContract is returned for malformed bytecode, an unknown code
	// hash or instance address, or a missing exported method.
	ErrorInvalidContract

	ErrorOutOfGas

	// ErrorExecutionFailed is returned when contract code traps: unreachable,
	// out-of-bounds memory access, or an explicit abort.
	ErrorExecutionFailed

	// ErrorInvalidInput is returned for structurally invalid transactions and
	// host call arguments that violate size limits.
	ErrorInvalidInput

	// ErrorStateError is returned when a storage namespace limit would be
	// exceeded or an instance address collides.
	ErrorStateError

	ErrorPermissionDenied
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorSuccess:
		return "Success"
	case ErrorInsufficientFunds:
		return "InsufficientFunds"
	case ErrorInvalidNonce:
		return "InvalidNonce"
	case ErrorInvalidContract:
		return "InvalidContract"
	case ErrorOutOfGas:
		return "OutOfGas"
	case ErrorExecutionFailed:
		return "ExecutionFailed"
	case ErrorInvalidInput:
		return "InvalidInput"
	case ErrorStateError:
		return "StateError"
	case ErrorPermissionDenied:
		return "PermissionDenied"
	default:
		return "Unknown"
	}
}

type ExecError interface {
	error
	Code() ErrorCode
}

var _ ExecError = new(BaseError)

type BaseError struct {
	code ErrorCode
}

type VerboseError struct {
	BaseError
	msg string
}

type WrapError struct {
	BaseError
	inner error
}

// VmError marks failures that originated inside the sandbox, as opposed to
// failures of the pipeline around it.
type VmError struct {
	BaseError
}

type VmVerboseError struct {
	VmError
	msg string
}

func NewError(code ErrorCode) ExecError {
	return &BaseError{code}
}

func IsValidError(err error) bool {
	return ToError(err) != nil
}

func ToBaseError(err error) *BaseError {
	var base *BaseError
	if errors.As(err, &base) {
		return base
	}
	return nil
}

func ToError(err error) ExecError {
	if e, ok := err.(ExecError); ok { //nolint:errorlint
		return e
	}
	return nil
}

func IsVmError(err error) bool {
	var e *VmError
	return errors.As(err, &e)
}

func GetErrorCode(err error) ErrorCode {
	if e := ToError(err); e != nil {
		return e.Code()
	}
	return ErrorUnknown
}

func NewVmError(code ErrorCode) ExecError {
	return &VmError{BaseError{code}}
}

func NewWrapError(code ErrorCode, err error) ExecError {
	// Nested errors are not allowed because the receipt holds a single code.
	check.PanicIfNotf(!IsValidError(err), "nested errors are prohibited")
	return &WrapError{BaseError{code}, err}
}

func KeepOrWrapError(code ErrorCode, err error) ExecError {
	if e := ToError(err); e != nil {
		return e
	}
	return NewWrapError(code, err)
}

func NewVerboseError(code ErrorCode, msg string) ExecError {
	return &VerboseError{BaseError{code}, msg}
}

func NewVmVerboseError(code ErrorCode, msg string) ExecError {
	return &VmVerboseError{VmError{BaseError{code}}, msg}
}

func (e BaseError) Error() string {
	return e.Code().String()
}

func (e BaseError) Code() ErrorCode {
	return e.code
}

func (e VmError) Unwrap() error {
	return &e.BaseError
}

func (e WrapError) Error() string {
	return e.BaseError.Error() + ": " + e.inner.Error()
}

func (e WrapError) Unwrap() error {
	return e.inner
}

func (e VerboseError) Error() string {
	return e.BaseError.Error() + ": " + e.msg
}

func (e VerboseError) Unwrap() error {
	return &e.BaseError
}

func (e VmVerboseError) Error() string {
	return e.VmError.Error() + ": " + e.msg
}

func (e VmVerboseError) Unwrap() error {
	return &e.VmError
}
