package handlers

import (
	"net/http"

	"slotbook/middleware"
	"slotbook/models"
	"slotbook/services/apperr"
	"slotbook/utils"

	"github.com/gin-gonic/gin"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.NoSlotsProduced:
		return http.StatusUnprocessableEntity
	case apperr.SlotUnavailable, apperr.IdentityAmbiguity:
		return http.StatusConflict
	case apperr.InsufficientBalance:
		return http.StatusPaymentRequired
	case apperr.PermissionDenied:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// respondError writes a service error. Internal details are only logged.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	details := ""
	if status >= http.StatusInternalServerError {
		details = err.Error()
		utils.JSONErrorCode(c, status, string(kind), "Request could not be completed", details)
		return
	}
	utils.JSONErrorCode(c, status, string(kind), apperr.Message(err), details)
}

// requireActor reads the caller placed on the context by the auth middleware.
func requireActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		utils.JSONErrorCode(c, http.StatusUnauthorized, "unauthorized", "Caller not authenticated", "")
	}
	return actor, ok
}

func badRequest(c *gin.Context, err error) {
	utils.JSONErrorCode(c, http.StatusBadRequest, string(apperr.Validation), "Invalid request payload", err.Error())
}
