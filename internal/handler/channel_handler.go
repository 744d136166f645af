// internal/handler/channel_handler.go
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"motion-service/internal/channel"
	"motion-service/internal/repository"
	"motion-service/internal/service"
	"motion-service/internal/utils"
)

// ChannelHandler handles channel-related HTTP requests
type ChannelHandler struct {
	channelService *service.ChannelService
	logger         *utils.ServiceLogger
}

// NewChannelHandler creates a new channel handler
func NewChannelHandler(channelService *service.ChannelService, logger *zap.Logger) *ChannelHandler {
	return &ChannelHandler{
		channelService: channelService,
		logger:         utils.NewServiceLogger(logger, "channel-handler"),
	}
}

// RegisterRoutes registers channel-related routes
func (h *ChannelHandler) RegisterRoutes(router *gin.RouterGroup) {
	channels := router.Group("/channels")
	{
		channels.POST("", h.OpenChannel)
		channels.GET("", h.ListChannels)
		channels.DELETE("", h.CloseAllChannels)
		channels.POST("/reset", h.ResetChannels)

		channelRoutes := channels.Group("/:index")
		{
			channelRoutes.GET("", h.GetChannel)
			channelRoutes.DELETE("", h.CloseChannel)
			channelRoutes.PUT("/timeout", h.SetTimeout)
			channelRoutes.POST("/exchange", h.Exchange)
			channelRoutes.POST("/send", h.Send)
			channelRoutes.GET("/error", h.GetLastError)
			channelRoutes.GET("/history", h.GetHistory)
		}
	}

	exchanges := router.Group("/exchanges")
	{
		exchanges.GET("", h.ListExchanges)
		exchanges.GET("/stats", h.GetExchangeStats)
	}
}

// OpenChannel opens a channel to a configured port
// @Summary Open a channel
// @Description Connect to a configured port and device address in the lowest free slot
// @Tags Channels
// @Accept json
// @Produce json
// @Param request body service.OpenChannelRequest true "Channel open request"
// @Success 201 {object} utils.APIResponse{data=model.ChannelInfo} "Channel opened"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 409 {object} utils.APIResponse "No free channel"
// @Failure 502 {object} utils.APIResponse "Connect failed"
// @Router /channels [post]
func (h *ChannelHandler) OpenChannel(c *gin.Context) {
	var req service.OpenChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	info, err := h.channelService.Open(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, "Failed to open channel", err, gin.H{"channel": -1})
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Channel opened", info)
}

// ListChannels lists the open channels
// @Summary List channels
// @Tags Channels
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{count=int,channels=[]model.ChannelInfo}} "Channels retrieved"
// @Router /channels [get]
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	channels := h.channelService.List()
	utils.SuccessResponse(c, http.StatusOK, "Channels retrieved", gin.H{
		"count":    len(channels),
		"channels": channels,
	})
}

// CloseAllChannels disconnects every open channel
// @Summary Close all channels
// @Tags Channels
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{closed=int}} "Channels closed"
// @Failure 500 {object} utils.APIResponse "Some channels failed to disconnect"
// @Router /channels [delete]
func (h *ChannelHandler) CloseAllChannels(c *gin.Context) {
	closed, err := h.channelService.CloseAll()
	if err != nil {
		utils.ErrorResponseWithData(c, http.StatusInternalServerError, "Some channels failed to disconnect", err, gin.H{"closed": closed})
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Channels closed", gin.H{"closed": closed})
}

// ResetChannels forgets every channel without disconnecting
// @Summary Reset channel table
// @Description Mark every slot free without disconnecting, after the controller rebooted
// @Tags Channels
// @Produce json
// @Success 200 {object} utils.APIResponse{data=object{released=int}} "Channel table reset"
// @Router /channels/reset [post]
func (h *ChannelHandler) ResetChannels(c *gin.Context) {
	released := h.channelService.ResetAll()
	utils.SuccessResponse(c, http.StatusOK, "Channel table reset", gin.H{"released": released})
}

// GetChannel returns one open channel
// @Summary Get channel
// @Tags Channels
// @Produce json
// @Param index path int true "Channel index"
// @Success 200 {object} utils.APIResponse{data=model.ChannelInfo} "Channel retrieved"
// @Failure 404 {object} utils.APIResponse "Channel not found"
// @Router /channels/{index} [get]
func (h *ChannelHandler) GetChannel(c *gin.Context) {
	index, ok := h.index(c)
	if !ok {
		return
	}

	info, err := h.channelService.Get(index)
	if err != nil {
		h.respondError(c, "Channel not found", err, nil)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Channel retrieved", info)
}

// CloseChannel disconnects one channel
// @Summary Close channel
// @Tags Channels
// @Produce json
// @Param index path int true "Channel index"
// @Success 200 {object} utils.APIResponse "Channel closed"
// @Failure 404 {object} utils.APIResponse "Channel not found"
// @Router /channels/{index} [delete]
func (h *ChannelHandler) CloseChannel(c *gin.Context) {
	index, ok := h.index(c)
	if !ok {
		return
	}

	if err := h.channelService.Close(index); err != nil {
		h.respondError(c, "Failed to close channel", err, nil)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Channel closed", gin.H{"channel": index})
}

// SetTimeout changes a channel's I/O timeout
// @Summary Set channel timeout
// @Tags Channels
// @Accept json
// @Produce json
// @Param index path int true "Channel index"
// @Param request body service.TimeoutRequest true "New timeout"
// @Success 200 {object} utils.APIResponse "Timeout changed"
// @Failure 400 {object} utils.APIResponse "Invalid timeout"
// @Failure 404 {object} utils.APIResponse "Channel not found"
// @Router /channels/{index}/timeout [put]
func (h *ChannelHandler) SetTimeout(c *gin.Context) {
	index, ok := h.index(c)
	if !ok {
		return
	}

	var req service.TimeoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	timeout := time.Duration(req.TimeoutMs) * time.Millisecond
	if err := h.channelService.SetTimeout(index, timeout); err != nil {
		h.respondError(c, "Failed to set timeout", err, nil)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Timeout changed", gin.H{"channel": index, "timeout_ms": req.TimeoutMs})
}

// Exchange sends a command and returns the controller's reply
// @Summary Send command and read reply
// @Description Send a command, resending while the controller answers out of step
// @Tags Channels
// @Accept json
// @Produce json
// @Param index path int true "Channel index"
// @Param request body service.CommandRequest true "Controller command"
// @Success 200 {object} utils.APIResponse{data=service.ExchangeResponse} "Exchange completed"
// @Failure 400 {object} utils.APIResponse "Command too long"
// @Failure 404 {object} utils.APIResponse "Channel not found"
// @Failure 502 {object} utils.APIResponse{data=service.ExchangeResponse} "Controller error"
// @Failure 504 {object} utils.APIResponse{data=service.ExchangeResponse} "Controller timeout"
// @Router /channels/{index}/exchange [post]
func (h *ChannelHandler) Exchange(c *gin.Context) {
	h.command(c, h.channelService.Exchange, "Exchange completed")
}

// Send writes a command without reading a reply
// @Summary Send command
// @Description Write a command, then probe until the controller settles
// @Tags Channels
// @Accept json
// @Produce json
// @Param index path int true "Channel index"
// @Param request body service.CommandRequest true "Controller command"
// @Success 200 {object} utils.APIResponse{data=service.ExchangeResponse} "Command sent"
// @Failure 400 {object} utils.APIResponse "Command too long"
// @Failure 404 {object} utils.APIResponse "Channel not found"
// @Failure 502 {object} utils.APIResponse{data=service.ExchangeResponse} "Controller error"
// @Router /channels/{index}/send [post]
func (h *ChannelHandler) Send(c *gin.Context) {
	h.command(c, h.channelService.Send, "Command sent")
}

type commandFunc func(ctx context.Context, index int, command string) (*service.ExchangeResponse, error)

func (h *ChannelHandler) command(c *gin.Context, run commandFunc, message string) {
	index, ok := h.index(c)
	if !ok {
		return
	}

	var req service.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := run(c.Request.Context(), index, req.Command)
	if err != nil {
		h.respondError(c, "Command failed", err, result)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, message, result)
}

// GetLastError returns the socket error recorded on a slot
// @Summary Get last socket error
// @Tags Channels
// @Produce json
// @Param index path int true "Channel index"
// @Success 200 {object} utils.APIResponse{data=object{channel=int,error=string}} "Last error"
// @Failure 404 {object} utils.APIResponse "Index out of range"
// @Router /channels/{index}/error [get]
func (h *ChannelHandler) GetLastError(c *gin.Context) {
	index, ok := h.index(c)
	if !ok {
		return
	}

	text, err := h.channelService.LastError(index)
	if err != nil {
		h.respondError(c, "Index out of range", err, nil)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Last error", gin.H{"channel": index, "error": text})
}

// GetHistory returns the journaled exchanges of a channel
// @Summary Channel exchange history
// @Tags Channels
// @Produce json
// @Param index path int true "Channel index"
// @Param limit query int false "Maximum entries" default(100)
// @Success 200 {object} utils.APIResponse{data=object{count=int,exchanges=[]model.Exchange}} "History retrieved"
// @Router /channels/{index}/history [get]
func (h *ChannelHandler) GetHistory(c *gin.Context) {
	index, ok := h.index(c)
	if !ok {
		return
	}

	exchanges, err := h.channelService.History(c.Request.Context(), index, queryLimit(c))
	if err != nil {
		h.logger.Error("Failed to get channel history", zap.Int("channel", index), zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get history", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "History retrieved", gin.H{
		"count":     len(exchanges),
		"exchanges": exchanges,
	})
}

// ListExchanges returns the most recent exchanges on all channels
// @Summary Recent exchanges
// @Tags Exchanges
// @Produce json
// @Param limit query int false "Maximum entries" default(100)
// @Success 200 {object} utils.APIResponse{data=object{count=int,exchanges=[]model.Exchange}} "Exchanges retrieved"
// @Router /exchanges [get]
func (h *ChannelHandler) ListExchanges(c *gin.Context) {
	exchanges, err := h.channelService.Recent(c.Request.Context(), queryLimit(c))
	if err != nil {
		h.logger.Error("Failed to list exchanges", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list exchanges", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Exchanges retrieved", gin.H{
		"count":     len(exchanges),
		"exchanges": exchanges,
	})
}

// GetExchangeStats summarizes journaled exchanges
// @Summary Exchange statistics
// @Tags Exchanges
// @Produce json
// @Param channel query int false "Filter by channel"
// @Param since query string false "RFC3339 start time"
// @Success 200 {object} utils.APIResponse{data=repository.ExchangeStats} "Statistics retrieved"
// @Failure 400 {object} utils.APIResponse "Invalid filter"
// @Router /exchanges/stats [get]
func (h *ChannelHandler) GetExchangeStats(c *gin.Context) {
	filter := &repository.ExchangeStatsFilter{}
	invalid := map[string]string{}
	if v := c.Query("channel"); v != "" {
		index, err := strconv.Atoi(v)
		if err != nil {
			invalid["channel"] = "must be an integer"
		} else {
			filter.Channel = &index
		}
	}
	if v := c.Query("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			invalid["since"] = "must be an RFC3339 timestamp"
		} else {
			filter.Since = &since
		}
	}
	if len(invalid) > 0 {
		utils.ValidationErrorResponse(c, invalid)
		return
	}

	stats, err := h.channelService.Stats(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to get exchange stats", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get statistics", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Statistics retrieved", stats)
}

// index parses the :index path parameter
func (h *ChannelHandler) index(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid channel index", err)
		return 0, false
	}
	return index, true
}

// respondError maps channel and service errors onto HTTP statuses
func (h *ChannelHandler) respondError(c *gin.Context, message string, err error, data interface{}) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrChannelNotFound), errors.Is(err, channel.ErrInvalidChannel):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidTimeout), errors.Is(err, channel.ErrMessageTooLong):
		status = http.StatusBadRequest
	case errors.Is(err, channel.ErrTableFull):
		status = http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, channel.ErrRetriesExhausted), errors.Is(err, channel.ErrTransport):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(message, zap.Int("status", status), zap.Error(err))
	}
	utils.ErrorResponseWithData(c, status, message, err, data)
}

func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		return repository.DefaultListLimit
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
