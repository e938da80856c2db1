package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/awmbw/live-mart/internal/users"
	"github.com/awmbw/live-mart/pkg/ctxmanage"
	"github.com/awmbw/live-mart/pkg/logkey"
)

func (h *Handler) GetProfile(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.u.GetUserByID(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		slog.Error("loading profile", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var up users.ProfileUpdate
	if err := c.ShouldBindJSON(&up); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// A changed address re-resolves the coordinate unless the client sent
	// an explicit location.
	if up.Location != nil {
		up.Latitude, up.Longitude = &up.Location.Lat, &up.Location.Lng
	} else if up.Address != "" {
		loc, err := h.geocoder.Geocode(c.Request.Context(), up.Address)
		if err != nil {
			slog.Error("geocoding failed", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()))
		} else if loc != nil {
			up.Latitude, up.Longitude = &loc.Lat, &loc.Lng
		}
	}

	user, err := h.u.UpdateProfile(c.Request.Context(), claims.Subject, up)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		slog.Error("updating profile", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) PurchaseHistory(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	list, err := h.o.ListByCustomer(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("listing purchase history", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch purchase history"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// CustomerHistory lets a retailer review a customer's orders placed with
// that retailer, for offline-sale follow-ups.
func (h *Handler) CustomerHistory(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	customerID := c.Param("customerId")

	list, err := h.o.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		slog.Error("listing customer history", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, customerID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	// Only the orders involving the requesting retailer are visible.
	own := list[:0]
	for _, o := range list {
		if o.RetailerID != nil && *o.RetailerID == claims.Subject {
			own = append(own, o)
		}
	}
	c.JSON(http.StatusOK, own)
}

// RetailerHistory lets a wholesaler review a retailer's wholesale orders
// placed with that wholesaler.
func (h *Handler) RetailerHistory(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	retailerID := c.Param("retailerId")

	list, err := h.o.ListByRetailer(c.Request.Context(), retailerID)
	if err != nil {
		slog.Error("listing retailer history", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, retailerID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	own := list[:0]
	for _, o := range list {
		if o.WholesalerID != nil && *o.WholesalerID == claims.Subject {
			own = append(own, o)
		}
	}
	c.JSON(http.StatusOK, own)
}
