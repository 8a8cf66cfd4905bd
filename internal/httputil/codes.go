package httputil

// Machine-readable error codes returned alongside error messages so
// clients can branch without parsing human-facing text.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeCooldownActive     = "COOLDOWN_ACTIVE"

	CodeEmailRequired      = "EMAIL_REQUIRED"
	CodePasswordRequired   = "PASSWORD_REQUIRED"
	CodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	CodePasswordMismatch   = "PASSWORD_MISMATCH"
	CodeInvalidEmailFormat = "INVALID_EMAIL_FORMAT"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailNotVerified   = "EMAIL_NOT_VERIFIED"

	CodeVerificationTokenRequired = "VERIFICATION_TOKEN_REQUIRED"
	CodeVerificationFailed        = "VERIFICATION_FAILED"
	CodeTokenExpired              = "TOKEN_EXPIRED"
	CodeAlreadyVerified           = "ALREADY_VERIFIED"

	CodeMissingAuth        = "MISSING_AUTH"
	CodeInvalidAuthHeader  = "INVALID_AUTH_HEADER"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInvalidTokenUserID = "INVALID_TOKEN_USER_ID"

	CodeMissingFile     = "MISSING_FILE"
	CodeUnsupportedKind = "UNSUPPORTED_KIND"
	CodeInvalidFileType = "INVALID_FILE_TYPE"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeUserIDRequired  = "USER_ID_REQUIRED"
	CodeInvalidUserID   = "INVALID_USER_ID"
)
