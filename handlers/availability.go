package handlers

import (
	"net/http"

	"slotbook/models"
	"slotbook/services/coordinator"
	"slotbook/services/matching"
	"slotbook/services/slots"

	"github.com/gin-gonic/gin"
)

// AvailabilityHandler serves publishing, browsing and editing of slots.
type AvailabilityHandler struct {
	Publisher   *slots.Publisher
	Matching    matching.MatchingService
	Coordinator coordinator.SlotCoordinator
}

func NewAvailabilityHandler(pub *slots.Publisher, match matching.MatchingService, coord coordinator.SlotCoordinator) *AvailabilityHandler {
	return &AvailabilityHandler{Publisher: pub, Matching: match, Coordinator: coord}
}

func (h *AvailabilityHandler) GenerateSlotsHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.Publisher.Publish(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *AvailabilityHandler) CreateSlotHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var in models.ManualSlotInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	row, err := h.Publisher.CreateManual(c.Request.Context(), actor, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// ListAvailabilityHandler expects from and to as civil dates (YYYY-MM-DD).
func (h *AvailabilityHandler) ListAvailabilityHandler(c *gin.Context) {
	listing, err := h.Matching.List(c.Request.Context(), c.Query("from"), c.Query("to"), c.Query("locationId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *AvailabilityHandler) UpdateSlotHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req models.UpdateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	report, err := h.Coordinator.Update(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *AvailabilityHandler) DeleteSlotHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var ref models.SlotRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		badRequest(c, err)
		return
	}
	report, err := h.Coordinator.Delete(c.Request.Context(), actor, ref)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
