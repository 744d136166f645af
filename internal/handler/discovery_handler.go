// internal/handler/discovery_handler.go
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"motion-service/internal/discovery/tcp"
	"motion-service/internal/service"
	"motion-service/internal/utils"
)

// DiscoveryHandler handles controller discovery requests
type DiscoveryHandler struct {
	discoveryService *service.DiscoveryService
	logger           *utils.ServiceLogger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(discoveryService *service.DiscoveryService, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		discoveryService: discoveryService,
		logger:           utils.NewServiceLogger(logger, "discovery-handler"),
	}
}

// RegisterRoutes registers discovery routes
func (h *DiscoveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	discovery := router.Group("/discovery")
	{
		discovery.GET("/scan", h.ScanControllers)
		discovery.GET("/scanners", h.ListScanners)
	}
}

// ScanControllers probes configured ports and network ranges for controllers
// @Summary Scan for controllers
// @Description Probe configured ports and network ranges with the identification query
// @Tags Discovery
// @Produce json
// @Param type query string false "Scanner type (all, configured, tcp)" default(all)
// @Success 200 {object} utils.APIResponse{data=object{controllers=[]discovery.DiscoveredController,total_found=int,scan_type=string}} "Scan completed"
// @Failure 400 {object} utils.APIResponse "Invalid scan request"
// @Router /discovery/scan [get]
func (h *DiscoveryHandler) ScanControllers(c *gin.Context) {
	scanType := c.DefaultQuery("type", service.ScanAll)

	controllers, err := h.discoveryService.Scan(c.Request.Context(), scanType)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, tcp.ErrTooManyHosts) || !h.known(scanType) {
			status = http.StatusBadRequest
		}
		h.logger.Error("Controller scan failed", zap.String("type", scanType), zap.Error(err))
		utils.ErrorResponse(c, status, "Controller scan failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Controller scan completed", gin.H{
		"controllers": controllers,
		"total_found": len(controllers),
		"scan_type":   scanType,
	})
}

// ListScanners lists the scanners that can run
// @Summary List scanners
// @Tags Discovery
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{scanners=[]string}} "Scanners listed"
// @Router /discovery/scanners [get]
func (h *DiscoveryHandler) ListScanners(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Scanners listed", gin.H{
		"scanners": h.discoveryService.AvailableScanners(),
	})
}

func (h *DiscoveryHandler) known(scanType string) bool {
	if scanType == service.ScanAll {
		return true
	}
	for _, s := range h.discoveryService.AvailableScanners() {
		if s == scanType {
			return true
		}
	}
	return false
}
