package httputil

// Machine-readable error codes returned alongside error messages so API
// clients don't have to match on human-readable text.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidation         = "VALIDATION_ERROR"
	CodeEmailRequired      = "EMAIL_REQUIRED"
	CodePasswordRequired   = "PASSWORD_REQUIRED"
	CodeInvalidEmailFormat = "INVALID_EMAIL_FORMAT"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidResetCode   = "INVALID_RESET_CODE"
	CodeResetCodeExpired   = "RESET_CODE_EXPIRED"
	CodeInvalidAuthHeader  = "INVALID_AUTH_HEADER"
	CodeMissingAuth        = "MISSING_AUTH"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidImage       = "INVALID_IMAGE"
	CodeNoFieldsToUpdate   = "NO_FIELDS_TO_UPDATE"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeInternalError      = "INTERNAL_ERROR"
)
