package dashboard

import "github.com/gin-gonic/gin"

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, s *server) {
	api := router.Group("/api")

	// Read side: classified views, KPI tiles, rollups, dropdown options.
	api.GET("/records", s.handleRecordList)
	api.GET("/records/:id", s.handleRecordGet)
	api.GET("/kpis", s.handleKPIs)
	api.GET("/assets", s.handleAssets)
	api.GET("/options", s.handleOptions)

	// Mutations. Each re-runs the due-point calculator before persisting.
	api.POST("/records", s.handleRecordCreate)
	api.PUT("/records/:id", s.handleRecordUpdate)
	api.DELETE("/records/:id", s.handleRecordDelete)
	api.POST("/records/:id/complete", s.handleLogCompletion)
	api.POST("/meter", s.handleBulkMeter)

	// Live threshold configuration.
	api.GET("/thresholds", s.handleThresholdsGet)
	api.PUT("/thresholds", s.handleThresholdsPut)

	// CSV interchange.
	api.POST("/import", s.handleImport)
	router.GET("/export.csv", s.handleExport)
}
