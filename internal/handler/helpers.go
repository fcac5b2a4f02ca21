package handler

import (
	"errors"
	"net/http"
	"reflect"

	"saborpos/internal/apierror"
	"saborpos/internal/middleware"
	"saborpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
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
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
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

// respondError maps service-layer errors onto HTTP statuses. The four
// recoverable kinds surface with their message; everything else is an
// infrastructure failure and hides behind a generic 500.
func respondError(c *gin.Context, err error) {
	var (
		ve *service.ValidationError
		se *service.StateError
		ce *service.ConflictError
		ae *service.AuthorizationError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(ve.Msg))
	case errors.As(err, &se):
		c.JSON(http.StatusConflict, apierror.New(se.Msg))
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, apierror.New(ce.Msg))
	case errors.As(err, &ae):
		c.JSON(http.StatusForbidden, apierror.New(ae.Msg))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("Erro interno do servidor"))
	}
}

// actorFromClaims builds the service-layer authorization context from the
// validated JWT. Role resolution already happened at login time.
func actorFromClaims(c *gin.Context) (service.Actor, bool) {
	claims := middleware.GetClaims(c)
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Token malformado"))
		return service.Actor{}, false
	}
	estID, err := uuid.Parse(claims.EstablishmentID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Token malformado"))
		return service.Actor{}, false
	}
	return service.Actor{
		ID:              userID,
		EstablishmentID: estID,
		Role:            service.Role(claims.Role),
	}, true
}
