// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ValidationError is a client input problem that blocks the operation.
// Key and Args, when set, select a translated message.
type ValidationError struct {
	Code    string
	Field   string
	Message string
	Key     string
	Args    []interface{}
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// DependencyError is a storage or upstream failure. The caller may retry.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// NotFoundError names the missing resource using its i18n prefix
// (product, color, quote...).
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

type ConflictError struct {
	Key     string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Code: "invalid_" + field, Field: field, Message: message}
}

// dependencyError logs err and wraps it. Record-not-found must be handled by
// the caller before this.
func dependencyError(op string, err error) error {
	logrus.WithError(err).WithField("op", op).Error("dependency failure")
	return &DependencyError{Op: op, Err: err}
}

// lookupError turns gorm.ErrRecordNotFound into NotFoundError and anything
// else into a DependencyError.
func lookupError(resource, op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Resource: resource}
	}
	return dependencyError(op, err)
}

// isUniqueViolation matches the duplicate key errors of postgres and sqlite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
