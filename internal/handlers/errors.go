// internal/handlers/errors.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/serramalhas/malhas-backend/internal/costing"
	"github.com/serramalhas/malhas-backend/internal/i18n"
	"github.com/serramalhas/malhas-backend/internal/models"
	"github.com/serramalhas/malhas-backend/internal/services"
	"github.com/serramalhas/malhas-backend/internal/utils"
)

// handleServiceError writes the response for an error returned by a service.
func handleServiceError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var (
		validationErrs validator.ValidationErrors
		calcErr        *costing.ValidationError
		validationErr  *services.ValidationError
		notFoundErr    *services.NotFoundError
		conflictErr    *services.ConflictError
		forbiddenErr   *services.ForbiddenError
		dependencyErr  *services.DependencyError
	)

	switch {
	case errors.As(err, &validationErrs):
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(validationErrs))
	case errors.As(err, &calcErr):
		utils.CalculationErrorResponse(c, calcErr.Code, calcErr.Message, calcErr.Details)
	case errors.As(err, &validationErr):
		message := validationErr.Message
		if validationErr.Key != "" {
			message = i18n.T(lang, validationErr.Key, validationErr.Args...)
		}
		utils.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", message, gin.H{
			"field":  validationErr.Field,
			"reason": validationErr.Code,
		})
	case errors.As(err, &notFoundErr):
		utils.NotFoundResponse(c, notFoundErr.Resource)
	case errors.As(err, &conflictErr):
		message := conflictErr.Message
		if conflictErr.Key != "" {
			message = i18n.T(lang, conflictErr.Key)
		}
		utils.ConflictResponse(c, message, conflictErr.Key)
	case errors.As(err, &forbiddenErr):
		utils.ForbiddenResponse(c, forbiddenErr.Message)
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))
	case errors.As(err, &dependencyErr):
		utils.ServiceUnavailableResponse(c, "")
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled service error")
		utils.InternalErrorResponse(c, "")
	}
}

// bindJSON decodes and validates the request body. It writes the error
// response and returns false when the body is unusable.
func bindJSON(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)

	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, name), nil)
		return uuid.Nil, false
	}
	return id, true
}

// uuidQuery parses an optional uuid query parameter.
func uuidQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, name), nil)
		return nil, false
	}
	return &id, true
}

func orderNumberParam(c *gin.Context) (int64, bool) {
	n, err := strconv.ParseInt(c.Param("order_number"), 10, 64)
	if err != nil || n <= 0 {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "order_number"), nil)
		return 0, false
	}
	return n, true
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := utils.GetUserUUIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	return userID, true
}

func isAdmin(c *gin.Context) bool {
	role, _ := utils.GetUserRoleFromContext(c)
	return role == string(models.UserRoleAdmin)
}

func sendFile(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
