package handlers

import (
	"net/http"

	"homerent/internal/models"

	"github.com/gin-gonic/gin"
)

func accommodationResponses(list []models.Accommodation) []models.AccommodationResponse {
	out := make([]models.AccommodationResponse, 0, len(list))
	for i := range list {
		out = append(out, models.NewAccommodationResponse(&list[i]))
	}
	return out
}

// CreateAccommodation - POST /api/accommodations
func (h *Handlers) CreateAccommodation(c *gin.Context) {
	id, ok := actor(c)
	if !ok {
		return
	}
	var req models.AccommodationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	a, err := h.accommodations.Create(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, "create accommodation", err)
		return
	}
	c.JSON(http.StatusCreated, models.NewAccommodationResponse(a))
}

// ListAccommodations - GET /api/accommodations
func (h *Handlers) ListAccommodations(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	list, err := h.accommodations.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, "list accommodations", err)
		return
	}
	c.JSON(http.StatusOK, accommodationResponses(list))
}

// SearchAccommodations - GET /api/accommodations/search?q=&city=&country=&type=&amenity=
func (h *Handlers) SearchAccommodations(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	q := models.AccommodationSearchQuery{
		Text:    c.Query("q"),
		City:    c.Query("city"),
		Country: c.Query("country"),
		Type:    c.Query("type"),
		Amenity: c.Query("amenity"),
	}
	list, err := h.accommodations.Search(c.Request.Context(), q, page)
	if err != nil {
		respondError(c, "search accommodations", err)
		return
	}
	c.JSON(http.StatusOK, accommodationResponses(list))
}

// GetAccommodation - GET /api/accommodations/:id
func (h *Handlers) GetAccommodation(c *gin.Context) {
	accID, ok := pathID(c)
	if !ok {
		return
	}
	a, err := h.accommodations.Get(c.Request.Context(), accID)
	if err != nil {
		respondError(c, "get accommodation", err)
		return
	}
	c.JSON(http.StatusOK, models.NewAccommodationResponse(a))
}

// UpdateAccommodation - PUT /api/accommodations/:id
func (h *Handlers) UpdateAccommodation(c *gin.Context) {
	id, ok := actor(c)
	if !ok {
		return
	}
	accID, ok := pathID(c)
	if !ok {
		return
	}
	var req models.AccommodationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	a, err := h.accommodations.Update(c.Request.Context(), id, accID, &req)
	if err != nil {
		respondError(c, "update accommodation", err)
		return
	}
	c.JSON(http.StatusOK, models.NewAccommodationResponse(a))
}

// DeleteAccommodation - DELETE /api/accommodations/:id
func (h *Handlers) DeleteAccommodation(c *gin.Context) {
	id, ok := actor(c)
	if !ok {
		return
	}
	accID, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.accommodations.Delete(c.Request.Context(), id, accID); err != nil {
		respondError(c, "delete accommodation", err)
		return
	}
	c.Status(http.StatusNoContent)
}
