package handlers

import (
	"net/http"

	"lexconnect/services/geocoding"
	"lexconnect/utils"

	"github.com/gin-gonic/gin"
)

// Health reports the last dependency probe.
func Health(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

type GeoHandler struct {
	Geocoder geocoding.Geocoder
}

// Geocode handles GET /api/geocode?address=...&city=... for address
// autocompletion on the case form.
func (h *GeoHandler) Geocode(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", "address is required")
		return
	}
	if city := c.Query("city"); city != "" {
		address += ", " + city
	}
	res, err := h.Geocoder.Geocode(c.Request.Context(), address)
	if err != nil {
		respondError(c, err, "Geocoding failed")
		return
	}
	c.JSON(http.StatusOK, res)
}
