package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/awmbw/live-mart/internal/products"
	"github.com/awmbw/live-mart/pkg/ctxmanage"
	"github.com/awmbw/live-mart/pkg/logkey"
)

func (h *Handler) ListProducts(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var filter products.ListFilter
	filter.CategoryID = c.Query("category")
	filter.RetailerID = c.Query("retailerId")
	filter.InStock = c.Query("inStock") == "true"
	if v := c.Query("isLocal"); v != "" {
		isLocal, err := strconv.ParseBool(v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "isLocal must be true or false"})
			return
		}
		filter.IsLocal = &isLocal
	}

	list, err := h.p.ListProducts(c.Request.Context(), filter)
	if err != nil {
		slog.Error("listing products", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	id := c.Param("id")

	product, err := h.p.GetProductByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		slog.Error("fetching product", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ProductID, id), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}

	retailer, wholesaler, err := h.p.Owners(c.Request.Context(), product)
	if err != nil {
		slog.Error("loading product owners", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ProductID, id), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product":    product,
		"retailer":   retailer,
		"wholesaler": wholesaler,
	})
}

func (h *Handler) ListCategories(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	list, err := h.p.Categories(c.Request.Context())
	if err != nil {
		slog.Error("listing categories", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ProductsByRetailer(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	retailerID := c.Param("retailerId")

	list, err := h.p.ListByRetailer(c.Request.Context(), retailerID)
	if err != nil {
		slog.Error("listing retailer products", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ProductsByWholesaler(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	wholesalerID := c.Param("wholesalerId")

	list, err := h.p.ListByWholesaler(c.Request.Context(), wholesalerID)
	if err != nil {
		slog.Error("listing wholesaler products", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var np products.NewProduct
	if err := c.ShouldBindJSON(&np); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}
	if err := h.validate.Struct(np); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	product, err := h.p.InsertProduct(c.Request.Context(), np, claims.Subject, claims.Role)
	if err != nil {
		slog.Error("inserting product", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	id := c.Param("id")

	var up products.ProductUpdate
	if err := c.ShouldBindJSON(&up); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	existing, err := h.p.GetProductByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		slog.Error("fetching product for update", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ProductID, id), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}
	if !products.OwnedBy(existing, claims.Subject, claims.Role) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Not authorized to update this product"})
		return
	}

	product, err := h.p.UpdateProduct(c.Request.Context(), id, up)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		slog.Error("updating product", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ProductID, id), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	id := c.Param("id")

	existing, err := h.p.GetProductByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		slog.Error("fetching product for delete", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ProductID, id), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	if !products.OwnedBy(existing, claims.Subject, claims.Role) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this product"})
		return
	}

	if err := h.p.DeleteProduct(c.Request.Context(), id); err != nil {
		if errors.Is(err, products.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		slog.Error("deleting product", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ProductID, id), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
