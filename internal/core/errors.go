package core

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrExternalService = errors.New("external service failure")
)

// ValidationError reports bad caller input. Message is user facing.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports a reference to a missing entity.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ExternalServiceError wraps a failure of an outbound collaborator.
type ExternalServiceError struct {
	Service string
	Kind    string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Service, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Kind, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

func (e *ExternalServiceError) Is(target error) bool { return target == ErrExternalService }

// RowImportError describes one CSV row that could not be imported.
type RowImportError struct {
	Row     int      `json:"row"`
	Message string   `json:"message"`
	Raw     []string `json:"raw"`
}

func (e RowImportError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// UserMessage returns the text to show an end user for err.
func UserMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return notFoundMessages[nf.Entity]
	}
	return "Đã xảy ra lỗi, vui lòng thử lại"
}

var notFoundMessages = map[string]string{
	EntityGoal:        "Không tìm thấy mục tiêu",
	EntityAccount:     "Không tìm thấy tài khoản",
	EntityTransaction: "Không tìm thấy giao dịch",
	EntityCategory:    "Không tìm thấy danh mục",
	EntityUser:        "Không tìm thấy người dùng",
}

// Entity names used in NotFoundError.
const (
	EntityGoal        = "goal"
	EntityAccount     = "account"
	EntityTransaction = "transaction"
	EntityCategory    = "category"
	EntityUser        = "user"
)
