package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/awmbw/live-mart/internal/feedback"
	"github.com/awmbw/live-mart/pkg/ctxmanage"
	"github.com/awmbw/live-mart/pkg/logkey"
)

func (h *Handler) CreateFeedback(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var nf feedback.NewFeedback
	if err := c.ShouldBindJSON(&nf); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Product and a rating between 1 and 5 are required"})
		return
	}
	if err := h.validate.Struct(nf); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Product and a rating between 1 and 5 are required"})
		return
	}

	user, err := h.u.GetUserByID(c.Request.Context(), claims.Subject)
	userName := ""
	if err == nil {
		userName = user.Name
	}

	fb, err := h.f.InsertFeedback(c.Request.Context(), nf, claims.Subject, userName)
	if err != nil {
		switch {
		case errors.Is(err, feedback.ErrProductNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		case errors.Is(err, feedback.ErrOrderMismatch):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Not authorized to provide feedback for this order"})
		default:
			slog.Error("inserting feedback", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit feedback"})
		}
		return
	}
	c.JSON(http.StatusCreated, fb)
}

func (h *Handler) FeedbackByProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	productID := c.Param("id")

	list, err := h.f.ListByProduct(c.Request.Context(), productID)
	if err != nil {
		slog.Error("listing feedback", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ProductID, productID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch feedback"})
		return
	}

	ratings := make([]int, 0, len(list))
	for _, fb := range list {
		ratings = append(ratings, fb.Rating)
	}
	c.JSON(http.StatusOK, gin.H{
		"feedback":      list,
		"averageRating": feedback.AverageRating(ratings),
	})
}
