package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"

	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Ontology engine error codes
const (
	// ErrCodeConfiguration: malformed or missing dictionary, concept without
	// id/label, unknown category, invalid threshold, rejected index collision.
	ErrCodeConfiguration ErrorCode = "ONTO_001"
	// ErrCodeInputShape: unrecognized batch wrapper or bad required fact field.
	ErrCodeInputShape ErrorCode = "ONTO_002"
	// ErrCodeLookupFailure: reference vocabulary network, timeout or decode error.
	ErrCodeLookupFailure ErrorCode = "ONTO_003"
	// ErrCodePersistence: backup, manifest or dictionary write failure.
	ErrCodePersistence ErrorCode = "ONTO_004"
	// ErrCodeLock: the dictionary critical section could not be acquired.
	ErrCodeLock ErrorCode = "ONTO_005"
)

// HTTPStatus maps an error code to the status returned by the HTTP surface.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeOK:
		return http.StatusOK
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeInputShape:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict, ErrCodeLock:
		return http.StatusConflict
	case ErrCodeServiceUnavailable, ErrCodeFeatureDisabled:
		return http.StatusServiceUnavailable
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

//Personal.AI order the ending
