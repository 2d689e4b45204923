// internal/handlers/common.go
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/auroraatelier/aurora-backend/internal/models"
	"github.com/auroraatelier/aurora-backend/internal/services"
	"github.com/auroraatelier/aurora-backend/internal/utils"
)

// respondServiceError maps service-layer failures onto the response
// envelope. Transition and guard violations are conflicts, token problems
// are forbidden, lookups that missed are 404s.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderConflict):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, models.ErrTransitionNotAllowed),
		errors.Is(err, models.ErrTaxLockedByToken),
		errors.Is(err, models.ErrTokenAlreadyIssued),
		errors.Is(err, models.ErrNoTokenToRegenerate),
		errors.Is(err, models.ErrLabelRequired),
		errors.Is(err, models.ErrTaxNotSet),
		errors.Is(err, models.ErrParcelAndRateRequired),
		errors.Is(err, models.ErrPaymentNotCaptured):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, models.ErrPaymentTokenInvalid):
		utils.ForbiddenResponse(c, err.Error())
	case errors.Is(err, services.ErrShippingBusy):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "SHIPPING_BUSY", err.Error(), nil)
	case errors.Is(err, services.ErrShippingConfig):
		utils.InternalErrorResponse(c, err.Error())
	case strings.Contains(err.Error(), "not found"):
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case strings.Contains(err.Error(), "validation failed"):
		utils.BadRequestResponse(c, err.Error(), nil)
	case strings.HasPrefix(err.Error(), "failed to"):
		utils.InternalErrorResponse(c, "")
	default:
		utils.BadRequestResponse(c, err.Error(), nil)
	}
}

// currentUserID pulls the authenticated user's id out of the request
// context.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return uuid.Nil, false
	}
	return userID, true
}

// optionalUserID is currentUserID without the 401; guests get nil.
func optionalUserID(c *gin.Context) *uuid.UUID {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		return nil
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil
	}
	return &userID
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}
