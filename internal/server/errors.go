package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	consumptiondomain "github.com/smallbiznis/mealplan/internal/consumption/domain"
	ingredientdomain "github.com/smallbiznis/mealplan/internal/ingredient/domain"
	mealdomain "github.com/smallbiznis/mealplan/internal/meal/domain"
	meallogdomain "github.com/smallbiznis/mealplan/internal/meallog/domain"
	"github.com/smallbiznis/mealplan/internal/nutrition"
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
	Type      string            `json:"type"`
	Message   string            `json:"message"`
	Errors    []ValidationError `json:"errors,omitempty"`
	Requested *float64          `json:"requested,omitempty"`
	Available *float64          `json:"available,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
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
		code := validationErrorCode(err)
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

	var insufficient *consumptiondomain.InsufficientServingsError
	if errors.As(err, &insufficient) {
		requested, available := insufficient.Requested, insufficient.Available
		return http.StatusConflict, errorPayload{
			Type:      "insufficient_servings",
			Message:   insufficient.Error(),
			Requested: &requested,
			Available: &available,
		}
	}

	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: notFoundMessage(err),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and code recorded by the
// request logger.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	if status >= http.StatusInternalServerError {
		return payload.Type, "internal_error"
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
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ingredientdomain.ErrInvalidName),
		errors.Is(err, nutrition.ErrInvalidQuantity),
		errors.Is(err, mealdomain.ErrInvalidID),
		errors.Is(err, mealdomain.ErrInvalidName),
		errors.Is(err, mealdomain.ErrInvalidServings),
		errors.Is(err, mealdomain.ErrInvalidIngredients),
		errors.Is(err, consumptiondomain.ErrInvalidDate),
		errors.Is(err, consumptiondomain.ErrInvalidMealID),
		errors.Is(err, consumptiondomain.ErrInvalidServings),
		errors.Is(err, meallogdomain.ErrInvalidMealID),
		errors.Is(err, meallogdomain.ErrInvalidMealTime),
		errors.Is(err, meallogdomain.ErrInvalidDate):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, nutrition.ErrNotFound),
		errors.Is(err, mealdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, nutrition.ErrNotFound):
		return "ingredient not found"
	case errors.Is(err, mealdomain.ErrNotFound):
		return "meal not found"
	default:
		return "not found"
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, nutrition.ErrInvalidQuantity):
		return "invalid_quantity"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_date":
		return "date must be formatted as YYYY-MM-DD"
	case "invalid_servings", "invalid_servings_consumed":
		return "servings must be greater than zero"
	case "invalid_quantity":
		return "quantity is out of range"
	default:
		return "invalid value"
	}
}
