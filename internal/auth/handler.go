package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/neuroscreen/internal/httputil"
	"github.com/redmonkez12/neuroscreen/internal/logging"
	"github.com/redmonkez12/neuroscreen/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service         *Service
	rateLimiter     RateLimiter
	logger          *logging.Logger
	isProduction    bool
	sessionDuration time.Duration
}

func NewHandler(service *Service, rateLimiter RateLimiter, logger *logging.Logger, isProduction bool, sessionDuration time.Duration) *Handler {
	return &Handler{
		service:         service,
		rateLimiter:     rateLimiter,
		logger:          logger,
		isProduction:    isProduction,
		sessionDuration: sessionDuration,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyEmailRequest represents the email verification request
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// ResendVerificationRequest represents the resend verification email request
type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// AuthResponse wraps a user plus a human-readable message
type AuthResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new unverified account with email and password. A verification email will be sent.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration credentials"
// @Success      201 {object} AuthResponse
// @Failure      400 {object} ErrorResponse "Invalid request or validation error"
// @Failure      409 {object} ErrorResponse "Email already exists"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Rate limit by IP
	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "register")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for register", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	// Record IP request for rate limiting
	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "register"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	// Register user
	newUser, err := h.service.Register(r.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("registration failed: email already exists")
			respondError(w, "email already registered", httputil.CodeEmailAlreadyExists, http.StatusConflict)
			return
		}
		if code, ok := validationCode(err); ok {
			logger.Warn("registration failed: validation error", "error", err.Error())
			respondError(w, err.Error(), code, http.StatusBadRequest)
			return
		}
		logger.Error("registration failed: internal error", "error", err.Error())
		respondError(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)

	respondJSON(w, AuthResponse{
		User:    UserResponse{ID: newUser.ID, Email: newUser.Email},
		Message: "Registration successful. Please check your email to verify your account.",
	}, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate user and set the authToken session cookie
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} AuthResponse
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Failure      401 {object} ErrorResponse "Invalid credentials"
// @Failure      403 {object} ErrorResponse "Email not verified"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Rate limit by IP
	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "login")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for login", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	// Record IP request for rate limiting
	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "login"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	loggedIn, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// Unknown email and wrong password produce the same response body
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			respondError(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		if errors.Is(err, ErrEmailNotVerified) {
			logger.Warn("login failed: email not verified")
			respondError(w, "email not verified, please verify your email before logging in", httputil.CodeEmailNotVerified, http.StatusForbidden)
			return
		}
		if code, ok := validationCode(err); ok {
			logger.Warn("login failed: validation error", "error", err.Error())
			respondError(w, err.Error(), code, http.StatusBadRequest)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully", "user_id", loggedIn.ID)

	SetAuthCookie(w, token, h.isProduction, h.sessionDuration)

	respondJSON(w, AuthResponse{
		User:    UserResponse{ID: loggedIn.ID, Email: loggedIn.Email},
		Message: "Login successful",
	}, http.StatusOK)
}

// Logout handles user logout
// @Summary      User logout
// @Description  Clear the authToken session cookie. Always succeeds.
// @Tags         auth
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /api/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ClearAuthCookie(w, h.isProduction)

	logger.Info("user logged out successfully")

	respondJSON(w, map[string]string{"message": "Logged out successfully"}, http.StatusOK)
}

// VerifyEmail handles email verification with the token in the JSON body
// @Summary      Verify email address
// @Description  Verify a user's email address using the verification token sent via email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body VerifyEmailRequest true "Verification token"
// @Success      200 {object} AuthResponse
// @Failure      400 {object} ErrorResponse "Invalid, expired, or already used token"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/auth/verify-email [post]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.GetLoggerFromContext(r.Context()).Warn("invalid verification request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	h.verifyEmail(w, r, req.Token)
}

// VerifyEmailLink handles email verification with the token as a query
// parameter, for clicks on the emailed link
// @Summary      Verify email address via link
// @Description  Verify a user's email address using the token query parameter
// @Tags         auth
// @Produce      json
// @Param        token query string true "Verification token"
// @Success      200 {object} AuthResponse
// @Failure      400 {object} ErrorResponse "Invalid, expired, or already used token"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/auth/verify-email [get]
func (h *Handler) VerifyEmailLink(w http.ResponseWriter, r *http.Request) {
	h.verifyEmail(w, r, r.URL.Query().Get("token"))
}

// verifyEmail is the single verification procedure; both entry points
// differ only in where the token comes from.
func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request, token string) {
	logger := logging.GetLoggerFromContext(r.Context())

	verified, err := h.service.VerifyEmail(r.Context(), token)
	if err != nil {
		if errors.Is(err, ErrVerificationTokenRequired) {
			logger.Warn("email verification failed: token missing")
			respondError(w, "verification token required", httputil.CodeVerificationTokenRequired, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrTokenExpired) {
			logger.Warn("email verification failed: token expired")
			respondError(w, "Verification token has expired. Please request a new one.", httputil.CodeTokenExpired, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrEmailAlreadyVerified) {
			logger.Warn("email verification failed: already verified")
			respondError(w, "This email is already verified. You can login now.", httputil.CodeAlreadyVerified, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrInvalidVerificationToken) {
			logger.Warn("email verification failed: invalid token")
			respondError(w, "Invalid or expired verification token.", httputil.CodeVerificationFailed, http.StatusBadRequest)
			return
		}
		logger.Error("email verification failed: internal error", "error", err.Error())
		respondError(w, "failed to verify email", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("email verified successfully", "user_id", verified.ID)

	respondJSON(w, AuthResponse{
		User:    UserResponse{ID: verified.ID, Email: verified.Email},
		Message: "Email verified successfully. You can now login.",
	}, http.StatusOK)
}

// ResendVerificationEmail handles resending verification email
// @Summary      Resend verification email
// @Description  Send a new verification email to the user. Always returns success to prevent email enumeration.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResendVerificationRequest true "Email address"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Failure      429 {object} ErrorResponse "Too many requests"
// @Router       /api/auth/resend-verification [post]
func (h *Handler) ResendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid resend verification request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	// Get client IP for rate limiting
	ip := getClientIP(r)

	// Check IP rate limit
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		// Continue despite error to avoid blocking legitimate requests
	} else if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	// Check email cooldown
	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), req.Email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
		// Continue despite error
	} else if onCooldown {
		logger.Warn("email on cooldown", "email", req.Email)
		respondError(w, "please wait before requesting another email", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return
	}

	// Record IP request for rate limiting
	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	// Set email cooldown
	if err := h.rateLimiter.SetEmailCooldown(r.Context(), req.Email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	// Process request (always returns nil for security)
	_ = h.service.ResendVerificationEmail(r.Context(), req.Email)

	// Always return success (prevent email enumeration)
	respondJSON(w, map[string]string{
		"message": "If your email is registered and not verified, a new verification link has been sent.",
	}, http.StatusOK)
}

// validationCode maps a validation sentinel to its response code
func validationCode(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrEmailRequired):
		return httputil.CodeEmailRequired, true
	case errors.Is(err, ErrPasswordRequired):
		return httputil.CodePasswordRequired, true
	case errors.Is(err, ErrConfirmPasswordRequired):
		return httputil.CodePasswordRequired, true
	case errors.Is(err, ErrPasswordTooShort):
		return httputil.CodePasswordTooShort, true
	case errors.Is(err, ErrPasswordMismatch):
		return httputil.CodePasswordMismatch, true
	case errors.Is(err, ErrInvalidEmailFormat):
		return httputil.CodeInvalidEmailFormat, true
	}
	return "", false
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (behind proxy/load balancer)
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Check X-Real-IP header
	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fallback to RemoteAddr
	ip := r.RemoteAddr
	// RemoteAddr format is "IP:port", extract just the IP
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
