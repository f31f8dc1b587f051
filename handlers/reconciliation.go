package handlers

import (
	"errors"
	"net/http"

	reconciliationRepo "slotbook/database/repository/reconciliation"
	"slotbook/services/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReconciliationHandler lets an operator review and settle failed compensations.
// Routes are mounted behind RequireAdmin.
type ReconciliationHandler struct {
	Repo   reconciliationRepo.ReconciliationRepository
	Logger *zap.Logger
}

func NewReconciliationHandler(repo reconciliationRepo.ReconciliationRepository, logger *zap.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{Repo: repo, Logger: logger}
}

func (h *ReconciliationHandler) ListReconciliationsHandler(c *gin.Context) {
	records, err := h.Repo.ListUnresolved(c.Request.Context())
	if err != nil {
		respondError(c, apperr.Wrap(apperr.PersistenceFailure, err, "could not list reconciliation records"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *ReconciliationHandler) ResolveReconciliationHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id := c.Param("id")
	err := h.Repo.Resolve(c.Request.Context(), id)
	if errors.Is(err, reconciliationRepo.ErrNotFound) {
		respondError(c, apperr.New(apperr.NotFound, "reconciliation record %s not found", id))
		return
	}
	if err != nil {
		respondError(c, apperr.Wrap(apperr.PersistenceFailure, err, "could not resolve record"))
		return
	}
	h.Logger.Info("Reconciliation resolved", zap.String("recordID", id), zap.String("actor", actor.ID))
	c.JSON(http.StatusOK, gin.H{"message": "Record resolved"})
}
