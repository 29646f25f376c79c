package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	// Errors that must stop the process before the risk engine runs
	ErrorCategoryFatal         ErrorCategory = "FATAL"
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"

	// Errors on a single input that the caller can skip
	ErrorCategoryValidation ErrorCategory = "VALIDATION"
	ErrorCategoryInput      ErrorCategory = "INPUT"

	// Delivery errors from outbound integrations such as alerting
	ErrorCategoryNetwork ErrorCategory = "NETWORK"
)

// RiskError represents a categorized error with context
type RiskError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
	Retryable  bool
}

// Error implements the error interface
func (e *RiskError) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		msg += " (" + strings.Join(parts, ", ") + ")"
	}
	if e.Underlying != nil {
		msg += ": " + e.Underlying.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error unwrapping
func (e *RiskError) Unwrap() error {
	return e.Underlying
}

// IsRetryable returns whether this error can be retried
func (e *RiskError) IsRetryable() bool {
	return e.Retryable
}

// IsFatal returns whether this error should stop the process
func (e *RiskError) IsFatal() bool {
	return e.Category == ErrorCategoryFatal ||
		e.Category == ErrorCategoryConfiguration
}

// NewRiskError creates a new categorized error
func NewRiskError(category ErrorCategory, component, operation, message string) *RiskError {
	return &RiskError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
		Retryable: isRetryableCategory(category),
	}
}

// WrapError wraps an existing error with category context
func WrapError(err error, category ErrorCategory, component, operation string) *RiskError {
	if err == nil {
		return nil
	}

	return &RiskError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Context:    make(map[string]interface{}),
		Retryable:  isRetryableCategory(category),
	}
}

// WithContext adds context information to the error
func (e *RiskError) WithContext(key string, value interface{}) *RiskError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithMessage replaces the human readable message
func (e *RiskError) WithMessage(message string) *RiskError {
	e.Message = message
	return e
}

func isRetryableCategory(category ErrorCategory) bool {
	switch category {
	case ErrorCategoryFatal, ErrorCategoryConfiguration, ErrorCategoryValidation:
		return false
	default:
		return true
	}
}

// Common error constructors
func NewConfigurationError(component, operation, message string) *RiskError {
	return NewRiskError(ErrorCategoryConfiguration, component, operation, message)
}

func NewValidationError(component, operation, message string) *RiskError {
	return NewRiskError(ErrorCategoryValidation, component, operation, message)
}

func NewInputError(component, operation string, err error) *RiskError {
	if err == nil {
		return nil
	}
	return WrapError(err, ErrorCategoryInput, component, operation).WithRetryable(false)
}

func NewFatalError(component, operation, message string) *RiskError {
	return NewRiskError(ErrorCategoryFatal, component, operation, message)
}

func NewNetworkError(component, operation string, err error) *RiskError {
	if err == nil {
		return nil
	}
	return WrapError(err, ErrorCategoryNetwork, component, operation)
}

// WithRetryable sets the retryable flag
func (e *RiskError) WithRetryable(retryable bool) *RiskError {
	e.Retryable = retryable
	return e
}

// RecoveryAction is what a caller should do with a failed step
type RecoveryAction string

const (
	RecoveryActionSkip  RecoveryAction = "SKIP"
	RecoveryActionStop  RecoveryAction = "STOP"
	RecoveryActionRetry RecoveryAction = "RETRY"
)

// GetRecoveryAction suggests a recovery action based on error category
func (e *RiskError) GetRecoveryAction() RecoveryAction {
	if e.IsFatal() {
		return RecoveryActionStop
	}
	if e.Retryable {
		return RecoveryActionRetry
	}
	return RecoveryActionSkip
}

// As finds the first RiskError in err's chain.
func As(err error) (*RiskError, bool) {
	var re *RiskError
	if stderrors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsFatal reports whether err (or anything it wraps) is a fatal RiskError.
func IsFatal(err error) bool {
	re, ok := As(err)
	return ok && re.IsFatal()
}
