package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/exam-variant-service/internal/validator"
)

// ===== SENTINEL ERRORS =====

var (
	ErrQuestionNotFound      = errors.New("question not found")
	ErrQuestionAlreadyExists = errors.New("question already exists")

	ErrBatchNotFound = errors.New("batch not found")
	ErrBatchFailed   = errors.New("batch generation failed")

	ErrVariantNotFound     = errors.New("variant not found")
	ErrFingerprintMismatch = errors.New("variant fingerprint does not match")

	ErrInsufficientPermissions = errors.New("insufficient permissions")
)

// ValidationErrors is returned when a request fails validation
type ValidationErrors = validator.ValidationErrors
type ValidationError = validator.ValidationError

func NewValidationError(field, message string, value any) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message, Value: value, Rule: "business_logic"}}
}

// BusinessRuleError reports input that is well formed but cannot be processed
type BusinessRuleError struct {
	Rule    string         `json:"rule"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
	Err     error          `json:"-"`
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", e.Rule, e.Message)
}

func (e *BusinessRuleError) Unwrap() error { return e.Err }

func NewBusinessRuleError(rule, message string, context map[string]any) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Context: context}
}

// PermissionError reports a denied action on a resource
type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id,omitempty"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %s: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Unwrap() error { return ErrInsufficientPermissions }

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}
