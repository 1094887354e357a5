package model

import "fmt"

// ErrorCode is the core error taxonomy the execution engine surfaces.
type ErrorCode string

const (
	ErrorCodeInvalidInput           ErrorCode = "INVALID_INPUT"
	ErrorCodeResourceNotFound       ErrorCode = "RESOURCE_NOT_FOUND"
	ErrorCodeBusinessRuleViolation  ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrorCodeDatabaseQueryError     ErrorCode = "DATABASE_QUERY_ERROR"
	ErrorCodeDatabaseTransaction    ErrorCode = "DATABASE_TRANSACTION_ERROR"
	ErrorCodeEngineSubmissionError  ErrorCode = "ENGINE_SUBMISSION_ERROR"
	ErrorCodeContextBuildError      ErrorCode = "CONTEXT_BUILD_ERROR"
	ErrorCodeResultProcessingError  ErrorCode = "RESULT_PROCESSING_ERROR"
)

// Error is the typed error every core component raises. It carries enough
// structure for callers to branch on Code via errors.As without parsing
// message text.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func newError(code ErrorCode, message string, details map[string]any) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

// WithCause attaches an underlying error for errors.Is/As chains.
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

// InvalidInput reports a malformed parameter, a type-coercion failure, an
// unknown reference kind, a missing path, or a cross-workspace reference.
func InvalidInput(fieldName, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("the provided value for %q is invalid", fieldName)
	}
	return newError(ErrorCodeInvalidInput, message, map[string]any{"field_name": fieldName})
}

// ResourceNotFound reports a missing node/variable/credential/database/file/execution.
func ResourceNotFound(resourceName, resourceID string) *Error {
	msg := fmt.Sprintf("%s not found", resourceName)
	if resourceID != "" {
		msg = fmt.Sprintf("%s with id %q not found", resourceName, resourceID)
	}
	return newError(ErrorCodeResourceNotFound, msg, map[string]any{
		"resource_name": resourceName,
		"resource_id":   resourceID,
	})
}

// BusinessRuleViolation reports a trigger/workflow-level constraint violation.
func BusinessRuleViolation(ruleName, detail string) *Error {
	msg := fmt.Sprintf("business rule violation for %q", ruleName)
	if detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, detail)
	}
	return newError(ErrorCodeBusinessRuleViolation, msg, map[string]any{
		"rule_name":   ruleName,
		"rule_detail": detail,
	})
}

// DatabaseQueryError wraps a query-level database failure.
func DatabaseQueryError(operation string, cause error) *Error {
	return newError(ErrorCodeDatabaseQueryError, fmt.Sprintf("database query failed: %s", operation), nil).WithCause(cause)
}

// DatabaseTransactionError wraps a transaction-level database failure.
func DatabaseTransactionError(operation string, cause error) *Error {
	return newError(ErrorCodeDatabaseTransaction, fmt.Sprintf("database transaction failed: %s", operation), nil).WithCause(cause)
}

// EngineSubmissionError reports that put_bulk returned false or raised after
// exhausting retries.
func EngineSubmissionError(payloadCount, attempt int, cause error) *Error {
	return newError(ErrorCodeEngineSubmissionError, fmt.Sprintf("engine submission failed after %d attempt(s) for %d payload(s)", attempt, payloadCount), map[string]any{
		"payload_count": payloadCount,
		"attempt":       attempt,
	}).WithCause(cause)
}

// ContextBuildError reports that the resolver raised while building the
// payload for a single ExecutionInput.
func ContextBuildError(executionInputID string, cause error) *Error {
	return newError(ErrorCodeContextBuildError, fmt.Sprintf("failed to build context for execution input %s", executionInputID), map[string]any{
		"execution_input_id": executionInputID,
	}).WithCause(cause)
}

// ResultProcessingError reports a transient ingestion failure after retries
// were exhausted.
func ResultProcessingError(executionID, nodeID string, cause error) *Error {
	return newError(ErrorCodeResultProcessingError, fmt.Sprintf("failed to process result for execution %s node %s", executionID, nodeID), map[string]any{
		"execution_id": executionID,
		"node_id":      nodeID,
	}).WithCause(cause)
}
