package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/kiosk/internal/audit/domain"
	billingperioddomain "github.com/smallbiznis/kiosk/internal/billingperiod/domain"
	debtdomain "github.com/smallbiznis/kiosk/internal/debt/domain"
	orderdomain "github.com/smallbiznis/kiosk/internal/order/domain"
	pricedomain "github.com/smallbiznis/kiosk/internal/price/domain"
	productdomain "github.com/smallbiznis/kiosk/internal/product/domain"
	stockdomain "github.com/smallbiznis/kiosk/internal/stock/domain"
	userdomain "github.com/smallbiznis/kiosk/internal/user/domain"
	dbpkg "github.com/smallbiznis/kiosk/pkg/db"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
	Details map[string]any    `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	var outOfStock *orderdomain.OutOfStockError
	var priceMissing *orderdomain.PriceMissingError

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, userdomain.ErrDisabled),
		errors.Is(err, orderdomain.ErrUserDisabled):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: forbiddenMessage(err),
		}
	case errors.As(err, &outOfStock):
		return http.StatusConflict, errorPayload{
			Type:    "out_of_stock",
			Message: "insufficient stock",
			Details: map[string]any{
				"product_id": outOfStock.ProductID.String(),
				"requested":  outOfStock.Requested,
				"available":  outOfStock.Available,
			},
		}
	case errors.Is(err, orderdomain.ErrOutOfStock),
		errors.Is(err, stockdomain.ErrInsufficientStock):
		return http.StatusConflict, errorPayload{
			Type:    "out_of_stock",
			Message: "insufficient stock",
		}
	case errors.As(err, &priceMissing):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "price_missing",
			Message: "product has no effective price",
			Details: map[string]any{
				"product_id": priceMissing.ProductID.String(),
			},
		}
	case errors.Is(err, orderdomain.ErrPriceMissing):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "price_missing",
			Message: "product has no effective price",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and code logged per request.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	} else if payload.Type == "conflict" || payload.Type == "forbidden" {
		code = payload.Message
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isProductValidationError(err),
		isPriceValidationError(err),
		isStockValidationError(err),
		isUserValidationError(err),
		isOrderValidationError(err),
		isPeriodValidationError(err),
		isDebtValidationError(err),
		isAuditValidationError(err):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	if errors.Is(err, ErrConflict) || dbpkg.IsSerializationFailure(err) {
		return true
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, pricedomain.ErrNotFound),
		errors.Is(err, pricedomain.ErrProductNotFound),
		errors.Is(err, stockdomain.ErrProductNotFound),
		errors.Is(err, userdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrUserNotFound),
		errors.Is(err, billingperioddomain.ErrNotFound),
		errors.Is(err, debtdomain.ErrNotFound),
		errors.Is(err, debtdomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

var conflictErrors = []error{
	productdomain.ErrNameTaken,
	userdomain.ErrBadgeTaken,
	debtdomain.ErrAlreadyPaid,
	debtdomain.ErrAlreadyInvoiced,
	billingperioddomain.ErrNothingToClose,
	billingperioddomain.ErrConcurrentClosure,
	stockdomain.ErrStockLimit,
}

func conflictMessage(err error) string {
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	if dbpkg.IsSerializationFailure(err) {
		return "concurrent_update"
	}
	return "conflict"
}

func isProductValidationError(err error) bool {
	return errors.Is(err, productdomain.ErrInvalidID) ||
		errors.Is(err, productdomain.ErrInvalidName) ||
		errors.Is(err, productdomain.ErrInvalidPrice) ||
		errors.Is(err, productdomain.ErrInvalidQuantity) ||
		errors.Is(err, productdomain.ErrEmptyUpdate)
}

func isPriceValidationError(err error) bool {
	return errors.Is(err, pricedomain.ErrInvalidPrice) ||
		errors.Is(err, pricedomain.ErrInvalidProduct)
}

func isStockValidationError(err error) bool {
	return errors.Is(err, stockdomain.ErrInvalidDelta) ||
		errors.Is(err, stockdomain.ErrInvalidReason) ||
		errors.Is(err, stockdomain.ErrInvalidProduct) ||
		errors.Is(err, stockdomain.ErrEmptyRestock)
}

func isUserValidationError(err error) bool {
	return errors.Is(err, userdomain.ErrInvalidID) ||
		errors.Is(err, userdomain.ErrInvalidName) ||
		errors.Is(err, userdomain.ErrInvalidEmail) ||
		errors.Is(err, userdomain.ErrInvalidBadge) ||
		errors.Is(err, userdomain.ErrEmptyUpdate)
}

func isOrderValidationError(err error) bool {
	return errors.Is(err, orderdomain.ErrInvalidID) ||
		errors.Is(err, orderdomain.ErrInvalidUser) ||
		errors.Is(err, orderdomain.ErrEmptyOrder) ||
		errors.Is(err, orderdomain.ErrInvalidProduct) ||
		errors.Is(err, orderdomain.ErrInvalidQuantity)
}

func isPeriodValidationError(err error) bool {
	return errors.Is(err, billingperioddomain.ErrInvalidID)
}

func isDebtValidationError(err error) bool {
	return errors.Is(err, debtdomain.ErrInvalidID) ||
		errors.Is(err, debtdomain.ErrInvalidStatus)
}

func isAuditValidationError(err error) bool {
	return errors.Is(err, auditdomain.ErrInvalidPageToken) ||
		errors.Is(err, auditdomain.ErrInvalidAction)
}

func forbiddenMessage(err error) string {
	if errors.Is(err, userdomain.ErrDisabled) || errors.Is(err, orderdomain.ErrUserDisabled) {
		return "user_disabled"
	}
	return "forbidden"
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if strings.HasPrefix(code, "empty_") {
		return strings.TrimPrefix(code, "empty_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "empty_update":
		return "nothing to update"
	case "empty_order":
		return "order has no items"
	case "empty_restock":
		return "restock has no items"
	default:
		return "invalid value"
	}
}
