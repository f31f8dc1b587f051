package handlers

import (
	"net/http"
	"strconv"

	"slotbook/models"
	"slotbook/services/balance"

	"github.com/gin-gonic/gin"
)

const defaultLedgerPage = 50

type BalanceHandler struct {
	Service balance.BalanceService
}

func NewBalanceHandler(svc balance.BalanceService) *BalanceHandler {
	return &BalanceHandler{Service: svc}
}

func (h *BalanceHandler) GetBalanceHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	bal, err := h.Service.Balance(c.Request.Context(), actor, c.DefaultQuery("clientId", actor.ID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bal)
}

func (h *BalanceHandler) GetLedgerHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	limit := int64(defaultLedgerPage)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			badRequest(c, strconv.ErrSyntax)
			return
		}
		limit = n
	}
	entries, err := h.Service.Entries(c.Request.Context(), actor, c.DefaultQuery("clientId", actor.ID), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *BalanceHandler) TopUpHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req models.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	entry, err := h.Service.TopUp(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *BalanceHandler) CardTopUpHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req models.CardTopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	entry, err := h.Service.CardTopUp(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
