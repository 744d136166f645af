// internal/handler/ports_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"motion-service/internal/protocol"
	"motion-service/internal/utils"
)

// PortRegistry lists the named ports channels can be opened on
type PortRegistry interface {
	Ports() []string
}

// PortsHandler reports configured ports and host serial devices
type PortsHandler struct {
	registry   PortRegistry
	listSerial func() ([]protocol.SerialPortInfo, error)
	logger     *utils.ServiceLogger
}

// NewPortsHandler creates a new ports handler
func NewPortsHandler(registry PortRegistry, logger *zap.Logger) *PortsHandler {
	return &PortsHandler{
		registry:   registry,
		listSerial: protocol.ListSerialPorts,
		logger:     utils.NewServiceLogger(logger, "ports-handler"),
	}
}

// RegisterRoutes registers port routes
func (h *PortsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ports", h.ListPorts)
}

// ListPorts lists configured ports and serial ports present on the host
// @Summary List ports
// @Description Configured controller ports plus serial ports found on the host
// @Tags Ports
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{configured=[]string,serial=[]protocol.SerialPortInfo}} "Ports listed"
// @Router /ports [get]
func (h *PortsHandler) ListPorts(c *gin.Context) {
	response := gin.H{
		"configured": h.registry.Ports(),
	}

	serialPorts, err := h.listSerial()
	if err != nil {
		h.logger.Warn("Serial port enumeration failed", zap.Error(err))
		response["serial"] = []protocol.SerialPortInfo{}
		response["serial_error"] = err.Error()
	} else {
		response["serial"] = serialPorts
	}

	utils.SuccessResponse(c, http.StatusOK, "Ports listed", response)
}
