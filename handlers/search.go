package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/awmbw/live-mart/internal/geo"
	"github.com/awmbw/live-mart/internal/search"
	"github.com/awmbw/live-mart/pkg/ctxmanage"
	"github.com/awmbw/live-mart/pkg/logkey"
)

func parseFloatQuery(c *gin.Context, name string) (*float64, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, false
	}
	return &f, true
}

// parseLocation resolves the reference point for geo queries. Clients send
// either a combined location parameter ("lat,lng") or separate lat and lng
// parameters; an empty pair means no point was supplied.
func parseLocation(location, latStr, lngStr string) (lat, lng *float64, err error) {
	if location != "" {
		parts := strings.SplitN(location, ",", 2)
		if len(parts) != 2 {
			return nil, nil, fmt.Errorf("location must be \"lat,lng\"")
		}
		latStr, lngStr = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	if latStr == "" && lngStr == "" {
		return nil, nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, nil, fmt.Errorf("lat and lng must be given together")
	}
	latV, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("lat must be a number")
	}
	lngV, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("lng must be a number")
	}
	return &latV, &lngV, nil
}

func (h *Handler) SearchProducts(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var f search.Filter
	f.Query = c.Query("q")
	f.CategoryID = c.Query("category")
	f.InStock = c.Query("inStock") == "true"
	f.IsLocal = c.Query("isLocal") == "true"

	var ok bool
	if f.MinPrice, ok = parseFloatQuery(c, "minPrice"); !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "minPrice must be a number"})
		return
	}
	if f.MaxPrice, ok = parseFloatQuery(c, "maxPrice"); !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "maxPrice must be a number"})
		return
	}
	var err error
	f.Lat, f.Lng, err = parseLocation(c.Query("location"), c.Query("lat"), c.Query("lng"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f.MaxDistanceKm = geo.DefaultMaxDistanceKm
	if d, ok := parseFloatQuery(c, "maxDistance"); !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "maxDistance must be a number"})
		return
	} else if d != nil {
		f.MaxDistanceKm = *d
	}

	results, err := h.s.SearchProducts(c.Request.Context(), f)
	if err != nil {
		slog.Error("searching products", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) NearbyShops(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	lat, lng, err := parseLocation(c.Query("location"), c.Query("lat"), c.Query("lng"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// No explicit coordinate falls back to the caller's saved location.
	if lat == nil || lng == nil {
		user, err := h.u.GetUserByID(c.Request.Context(), claims.Subject)
		if err != nil {
			slog.Error("loading user location", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to find nearby shops"})
			return
		}
		lat, lng = user.Latitude, user.Longitude
	}
	if lat == nil || lng == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Location is required. Provide lat and lng or set your profile address."})
		return
	}

	maxKm := geo.DefaultMaxDistanceKm
	if d, ok := parseFloatQuery(c, "maxDistance"); !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "maxDistance must be a number"})
		return
	} else if d != nil {
		maxKm = *d
	}

	shops, err := h.s.NearbyShops(c.Request.Context(), *lat, *lng, maxKm)
	if err != nil {
		slog.Error("finding nearby shops", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to find nearby shops"})
		return
	}
	c.JSON(http.StatusOK, shops)
}
