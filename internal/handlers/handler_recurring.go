package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/pfinbooks/bookkeeper_app/internal/core/ports/services"
	"github.com/pfinbooks/bookkeeper_app/internal/dto"
	"github.com/pfinbooks/bookkeeper_app/internal/middleware"
)

// recurringHandler handles HTTP requests for recurring templates.
type recurringHandler struct {
	recurringSvc portssvc.RecurringSvcFacade
}

func newRecurringHandler(recurringSvc portssvc.RecurringSvcFacade) *recurringHandler {
	return &recurringHandler{recurringSvc: recurringSvc}
}

// registerRecurringRoutes registers routes related to recurring templates.
func registerRecurringRoutes(rg *gin.RouterGroup, recurringSvc portssvc.RecurringSvcFacade) {
	h := newRecurringHandler(recurringSvc)

	recurring := rg.Group("/recurring")
	{
		recurring.POST("", h.createRecurring)
		recurring.GET("", h.listRecurring)
		recurring.POST("/tick", h.tick)
		recurring.GET("/:id", h.getRecurring)
		recurring.PUT("/:id", h.updateRecurring)
		recurring.DELETE("/:id", h.deleteRecurring)
	}
}

func (h *recurringHandler) createRecurring(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.CreateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for createRecurring", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	rec, err := h.recurringSvc.CreateRecurring(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to create recurring template")
		return
	}
	c.JSON(http.StatusCreated, dto.ToRecurringResponse(rec))
}

func (h *recurringHandler) getRecurring(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rec, err := h.recurringSvc.GetRecurringByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve recurring template")
		return
	}
	c.JSON(http.StatusOK, dto.ToRecurringResponse(rec))
}

func (h *recurringHandler) listRecurring(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var params dto.ListRecurringParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	recs, err := h.recurringSvc.ListRecurring(c.Request.Context(), userID, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list recurring templates")
		return
	}

	resp := make([]dto.RecurringResponse, len(recs))
	for i := range recs {
		resp[i] = dto.ToRecurringResponse(&recs[i])
	}
	c.JSON(http.StatusOK, gin.H{"recurring": resp})
}

func (h *recurringHandler) updateRecurring(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.UpdateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for updateRecurring", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	rec, err := h.recurringSvc.UpdateRecurring(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondError(c, logger, err, "Failed to update recurring template")
		return
	}
	c.JSON(http.StatusOK, dto.ToRecurringResponse(rec))
}

func (h *recurringHandler) deleteRecurring(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.recurringSvc.DeleteRecurring(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, logger, err, "Failed to delete recurring template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recurring template deleted"})
}

// tick runs the generator on demand for the caller's own templates. The
// background ticker runs the same operation unscoped on a schedule.
func (h *recurringHandler) tick(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.recurringSvc.Tick(c.Request.Context(), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to run recurring generation")
		return
	}
	c.JSON(http.StatusOK, result)
}
