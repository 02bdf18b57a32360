package daemon

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/powerinfo/powerinfo/pkg/snapshot"
)

func getSnapshot(refresher *snapshot.Refresher) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := refresher.Latest()
		if snap == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot yet"})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

func getBattery(refresher *snapshot.Refresher) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := refresher.Latest()
		if snap == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot yet"})
			return
		}
		c.JSON(http.StatusOK, snap.Battery)
	}
}

func postRefresh(refresher *snapshot.Refresher) gin.HandlerFunc {
	return func(c *gin.Context) {
		ran := refresher.Refresh()
		c.JSON(http.StatusOK, gin.H{"ran": ran})
	}
}
