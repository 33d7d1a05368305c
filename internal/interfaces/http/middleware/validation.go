package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

var setupOnce sync.Once

// SetupValidator configures gin's validator for the API's request bodies:
// field errors are named by their json tag, decimal quantities take numeric
// tags such as gt=0, and the destination tag accepts a destination class.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		_ = v.RegisterValidation("destination", func(fl validator.FieldLevel) bool {
			_, err := inventory.ParseDestinationClass(fl.Field().String())
			return err == nil
		})
	})
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		name, _, _ = strings.Cut(fld.Tag.Get("form"), ",")
	}
	return name
}

func decimalValue(v reflect.Value) any {
	d, ok := v.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	f, _ := d.Float64()
	return f
}

// FormatValidationErrors lists each invalid field of a binding error.
// Errors that are not field errors, such as malformed JSON, list none.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fields []dto.ValidationDetail
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields = make([]dto.ValidationDetail, 0, len(verrs))
		for _, e := range verrs {
			fields = append(fields, dto.ValidationDetail{
				Field:   e.Field(),
				Message: validationMessage(e),
			})
		}
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, fields)
}

// HandleValidationError answers 400 ERR_VALIDATION for a binding error
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

var tagMessages = map[string]string{
	"required":    "This field is required",
	"len":         "Must be exactly %s characters",
	"oneof":       "Must be one of: %s",
	"gte":         "Must be greater than or equal to %s",
	"lte":         "Must be less than or equal to %s",
	"gt":          "Must be greater than %s",
	"lt":          "Must be less than %s",
	"datetime":    "Must be a date in the format %s",
	"numeric":     "Must be numeric",
	"destination": "Must be one of: warehouse_direct, cutting, production",
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "min", "max":
		bound := "at least "
		if e.Tag() == "max" {
			bound = "at most "
		}
		if e.Kind() == reflect.String {
			return "Must be " + bound + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must have " + bound + e.Param() + " items"
		}
		return "Must be " + bound + e.Param()
	}
	msg, ok := tagMessages[e.Tag()]
	if !ok {
		return "Invalid value"
	}
	if strings.Contains(msg, "%s") {
		return strings.Replace(msg, "%s", e.Param(), 1)
	}
	return msg
}
