package types

// Error implements the error interface for Error.
func (e *Error) Error() string {
	return e.Message
}

// Error implements the error interface for ErrorResponse so it can be returned
// directly and still be marshaled as {"error": {...}}.
func (e *ErrorResponse) Error() string {
	return e.Err.Message
}
