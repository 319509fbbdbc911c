package handler

import (
	"errors"
	"net/http"
	"reflect"

	"tillpoint/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps the service error taxonomy onto HTTP statuses:
// validation → 422, state conflicts → 409, missing entities → 404.
// Anything untyped is treated as a bad request; c.Error feeds the
// ErrorHandler middleware for 500s.
func respondError(c *gin.Context, err error) {
	var verr *apierror.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, verr)
		return
	}
	var cerr *apierror.ConflictError
	if errors.As(err, &cerr) {
		c.JSON(http.StatusConflict, cerr)
		return
	}
	var nerr *apierror.NotFoundError
	if errors.As(err, &nerr) {
		c.JSON(http.StatusNotFound, nerr)
		return
	}
	c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
}
