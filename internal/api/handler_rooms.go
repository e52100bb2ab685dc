package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"roomboard-gateway/internal/roomapi"
)

// GetRooms handles GET /api/rooms, the static room directory. The route is
// mounted behind the response-cache middleware; directory data changes on an
// administrative timescale, unlike availability, which is never cached.
func (h *Handler) GetRooms(c *gin.Context) {
	client := h.upstream.ForSession(c.GetHeader("Cookie"))
	rooms, err := client.FetchAllRooms(c.Request.Context())
	if err != nil {
		if roomapi.IsConnectivity(err) {
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "cannot reach the booking server"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": roomapi.Message(err, "failed to load rooms")})
		return
	}
	c.JSON(http.StatusOK, rooms)
}
