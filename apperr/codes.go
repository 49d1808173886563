package apperr

// Code classifies a domain error for callers and for HTTP mapping.
type Code string

const (
	CodeUnknown         Code = "UNKNOWN"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeSlotsExhausted  Code = "SLOTS_EXHAUSTED"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeUnimplemented   Code = "UNIMPLEMENTED"
	CodeTxFailure       Code = "TX_FAILURE"
	CodeInternal        Code = "INTERNAL"
)
