package handlers

import (
	"net/http"

	"slotbook/models"
	"slotbook/services/location"

	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	Service location.LocationService
}

func NewLocationHandler(svc location.LocationService) *LocationHandler {
	return &LocationHandler{Service: svc}
}

func (h *LocationHandler) CreateLocationHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var input models.LocationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	loc, err := h.Service.Create(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, loc)
}

func (h *LocationHandler) ListLocationsHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	includeDeleted := c.Query("includeDeleted") == "true"
	locs, err := h.Service.List(c.Request.Context(), actor, includeDeleted)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locs})
}

func (h *LocationHandler) UpdateLocationHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var input models.LocationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	loc, err := h.Service.UpdateDisplay(c.Request.Context(), actor, c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

func (h *LocationHandler) DeleteLocationHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Location deleted"})
}
