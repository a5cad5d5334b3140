package requests

import (
	"errors"
	"fmt"
)

// ===== Error model =====

type Code string

const (
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeLimitReached       Code = "LIMIT_REACHED"
	CodeDuplicateRequest   Code = "DUPLICATE_REQUEST"
	CodeInvalidState       Code = "INVALID_STATE"
	CodeBookUnavailable    Code = "BOOK_UNAVAILABLE"
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"
	CodeConflict           Code = "CONFLICT"
	CodeInternal           Code = "INTERNAL"
)

type APIError struct {
	Code    Code
	Message string
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func ErrLimitReached() *APIError {
	return &APIError{Code: CodeLimitReached, Message: "borrowing limit reached"}
}

func ErrDuplicateRequest() *APIError {
	return &APIError{Code: CodeDuplicateRequest, Message: "active request already exists for this book"}
}

func ErrInvalidState(msg string) *APIError {
	return &APIError{Code: CodeInvalidState, Message: msg}
}

func ErrBookUnavailable() *APIError {
	return &APIError{Code: CodeBookUnavailable, Message: "book is not available"}
}

// InvariantViolation はカウンタ境界を壊す書き込み。ユーザ起因ではなく実装不備なので500扱い。
func ErrInvariantViolation(msg string) *APIError {
	return &APIError{Code: CodeInvariantViolation, Message: msg}
}

func ToHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeLimitReached, CodeDuplicateRequest, CodeInvalidState, CodeBookUnavailable, CodeConflict:
			return 409
		default:
			return 500
		}
	}
	return 500
}
