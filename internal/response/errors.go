package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrExamNotPublished   ErrCode = "EXAM_NOT_PUBLISHED"
	ErrNotEnrolled        ErrCode = "NOT_ENROLLED"
	ErrExamMismatch       ErrCode = "EXAM_ID_MISMATCH"
	ErrUnknownQuestion    ErrCode = "UNKNOWN_QUESTION"
	ErrDuplicateAnswer    ErrCode = "DUPLICATE_ANSWER"
	ErrUnknownOption      ErrCode = "UNKNOWN_OPTION"
	ErrAlreadySubmitted   ErrCode = "ALREADY_SUBMITTED"
	ErrResultNotAvailable ErrCode = "RESULT_NOT_AVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid NISN or password."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrExamNotPublished:
		return "This exam has not been published."
	case ErrNotEnrolled:
		return "You are not enrolled in this exam."
	case ErrExamMismatch:
		return "The submitted exam id does not match the URL."
	case ErrUnknownQuestion:
		return "The submission references a question that is not part of this exam."
	case ErrDuplicateAnswer:
		return "A question is answered more than once."
	case ErrUnknownOption:
		return "An answer is not one of the question's options."
	case ErrAlreadySubmitted:
		return "This exam has already been submitted."
	case ErrResultNotAvailable:
		return "The result is not available yet."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
