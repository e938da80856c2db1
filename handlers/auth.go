package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/awmbw/live-mart/internal/auth"
	"github.com/awmbw/live-mart/internal/otp"
	"github.com/awmbw/live-mart/internal/stores/kafka"
	"github.com/awmbw/live-mart/internal/users"
	"github.com/awmbw/live-mart/pkg/ctxmanage"
	"github.com/awmbw/live-mart/pkg/logkey"
)

func (h *Handler) Register(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if c.Request.ContentLength > 5*1024 {
		slog.Error("request body limit breached", slog.String(logkey.TraceID, traceId),
			slog.Int64("Size Received", c.Request.ContentLength))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body too large."})
		return
	}

	var newUser users.NewUser
	if err := c.ShouldBindJSON(&newUser); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}
	if err := h.validate.Struct(newUser); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}
	if !auth.ValidRole(newUser.Role) {
		slog.Error("invalid role", slog.String(logkey.TraceID, traceId), slog.String("Role", newUser.Role))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	// Resolve a coordinate: explicit location wins, then geocoded address.
	var lat, lng *float64
	if newUser.Location != nil {
		lat, lng = &newUser.Location.Lat, &newUser.Location.Lng
	} else if newUser.Address != "" {
		loc, err := h.geocoder.Geocode(c.Request.Context(), newUser.Address)
		if err != nil {
			slog.Error("geocoding failed", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()))
		} else if loc != nil {
			lat, lng = &loc.Lat, &loc.Lng
		}
	}

	user, err := h.u.InsertUser(c.Request.Context(), newUser, lat, lng)
	if err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
			return
		}
		slog.Error("error inserting user", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	code, err := otp.Generate()
	if err != nil {
		slog.Error("error generating otp", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}
	if err := h.otp.Store(c.Request.Context(), user.Email, code); err != nil {
		slog.Error("error storing otp", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	// Delivery is best-effort; a failed send never fails registration.
	go h.dispatchOTP(user, code, traceId)
	go h.produceAccountCreated(user, traceId)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful. Please verify OTP.",
		"userId":  user.ID,
		"email":   user.Email,
	})
}

func (h *Handler) dispatchOTP(user users.User, code, traceId string) {
	if err := h.n.SendOTPEmail(user.Email, code); err != nil {
		slog.Error("otp email failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
	}
	if user.Phone != "" {
		if err := h.n.SendOTPSMS(user.Phone, code); err != nil {
			slog.Error("otp sms failed", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()))
		}
	}
}

func (h *Handler) produceAccountCreated(user users.User, traceId string) {
	if h.k == nil {
		return
	}
	data, err := json.Marshal(kafka.AccountCreatedEvent{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Error("marshaling account event", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		return
	}
	if err := h.k.ProduceMessage(kafka.TopicAccountCreated, []byte(user.ID), data); err != nil {
		slog.Error("producing account event", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
	}
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Email and OTP are required"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Email and OTP are required"})
		return
	}

	if err := h.otp.Verify(c.Request.Context(), req.Email, req.OTP); err != nil {
		if errors.Is(err, otp.ErrInvalid) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired OTP"})
			return
		}
		slog.Error("otp verification failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "OTP verification failed"})
		return
	}

	user, err := h.u.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		slog.Error("loading user after otp", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "OTP verification failed"})
		return
	}
	if err := h.u.MarkVerified(c.Request.Context(), user.ID); err != nil {
		slog.Error("marking user verified", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "OTP verification failed"})
		return
	}

	token, err := h.keys.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		slog.Error("issuing token", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "OTP verification failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "OTP verified successfully",
		"token":   token,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

type resendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) ResendOTP(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req resendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	user, err := h.u.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		slog.Error("loading user for resend", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resend OTP"})
		return
	}

	code, err := otp.Generate()
	if err == nil {
		err = h.otp.Store(c.Request.Context(), user.Email, code)
	}
	if err != nil {
		slog.Error("issuing new otp", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resend OTP"})
		return
	}

	go h.dispatchOTP(user, code, traceId)

	c.JSON(http.StatusOK, gin.H{"message": "OTP resent successfully"})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	// Unknown email and wrong password answer identically so the endpoint
	// cannot be used to enumerate accounts.
	user, err := h.u.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		slog.Error("loading user for login", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}
	if !user.CheckPassword(req.Password) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if !user.IsVerified {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please verify your email first"})
		return
	}

	token, err := h.keys.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		slog.Error("issuing token", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func (h *Handler) SocialLogin(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req users.SocialUser
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	user, err := h.u.GetUserByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, users.ErrNotFound) {
		user, err = h.u.InsertSocialUser(c.Request.Context(), req)
	}
	if err != nil {
		slog.Error("social login failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Social login failed"})
		return
	}

	token, err := h.keys.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		slog.Error("issuing token", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Social login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Social login successful",
		"token":   token,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}
