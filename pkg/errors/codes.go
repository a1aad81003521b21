package errors

import "net/http"

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	// Ledger outcomes surfaced to the mini-app.
	CodePromoExpired        Code = "PROMO_EXPIRED"
	CodeAlreadyClaimed      Code = "ALREADY_CLAIMED"
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
)

// Metadata drives the HTTP mapping in api/responses. DetailsAllowed gates
// whether Error.Details reaches the client.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

func clientError(status int, msg string, details bool) Metadata {
	return Metadata{HTTPStatus: status, PublicMessage: msg, DetailsAllowed: details}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:          clientError(http.StatusBadRequest, "validation failed", true),
	CodeUnauthorized:        clientError(http.StatusUnauthorized, "authentication required", false),
	CodeForbidden:           clientError(http.StatusForbidden, "access denied", false),
	CodeNotFound:            clientError(http.StatusNotFound, "resource not found", false),
	CodeConflict:            clientError(http.StatusConflict, "conflict detected", false),
	CodeStateConflict:       clientError(http.StatusUnprocessableEntity, "state transition disallowed", true),
	CodeIdempotency:         clientError(http.StatusConflict, "idempotency key reused", true),
	CodeRateLimit:           clientError(http.StatusTooManyRequests, "rate limit exceeded", false),
	CodePromoExpired:        clientError(http.StatusGone, "promo code expired", false),
	CodeAlreadyClaimed:      clientError(http.StatusConflict, "promo code already claimed", false),
	CodeInsufficientBalance: clientError(http.StatusUnprocessableEntity, "insufficient balance", true),

	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
}

// MetadataFor treats unknown codes as internal errors.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}
