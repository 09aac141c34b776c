package handler

import (
	"net/http"
	"time"

	"invoicedesk/internal/auth"
	"invoicedesk/internal/middleware"
	"invoicedesk/internal/service"
	"invoicedesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
	tokens      *auth.Tokens
	refreshTTL  time.Duration
}

// NewUserHandler sets up the routing dependencies for sign in endpoints
func NewUserHandler(userService service.UserService, tokens *auth.Tokens, refreshTTL time.Duration) *UserHandler {
	return &UserHandler{userService: userService, tokens: tokens, refreshTTL: refreshTTL}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", h.SignUp)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.RefreshToken)
		authGroup.POST("/logout", h.Logout)
		authGroup.POST("/password-reset", h.RequestPasswordReset)
		authGroup.POST("/password-reset/confirm", h.ConfirmPasswordReset)
	}

	router.GET("/me", middleware.RequireUser(h.tokens), h.GetMe)
}

func (h *UserHandler) setCookies(c *gin.Context, res *service.TokenResponse) {
	middleware.SetTokenCookies(c, res.Token, res.RefreshToken, h.tokens.TTL(), h.refreshTTL)
}

// SignUp handles POST /auth/signup
// @Summary      Sign up
// @Description  Creates an account with a default business profile and signs it in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SignUpRequest  true  "Credentials"
// @Success      201      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /auth/signup [post]
func (h *UserHandler) SignUp(c *gin.Context) {
	var req service.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.userService.SignUp(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setCookies(c, res)
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// Login handles POST /auth/login to authenticate and return a JWT token
// @Summary      Login user
// @Description  Authenticates a user by email and password, returning a JWT token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginUserRequest   true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req service.LoginUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	// Set tokens as HttpOnly cookies
	h.setCookies(c, res)
	response.OK(c, res)
}

// GetMe handles GET /me to return current authenticated user based on JWT
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      401      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, user)
}

// RefreshToken handles POST /auth/refresh to issue new access and refresh tokens
// @Summary      Refresh token
// @Description  Issues a new access token and refresh token using a valid refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RefreshTokenRequest   false  "Refresh Token"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /auth/refresh [post]
func (h *UserHandler) RefreshToken(c *gin.Context) {
	// Try reading refresh_token from cookie first, fallback to body
	var req service.RefreshTokenRequest
	if token, err := c.Cookie(middleware.RefreshTokenCookie); err == nil && token != "" {
		req.RefreshToken = token
	} else if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.userService.RefreshToken(c.Request.Context(), req)
	if err != nil {
		middleware.ClearTokenCookies(c)
		writeError(c, err)
		return
	}

	h.setCookies(c, res)
	response.OK(c, res)
}

// Logout handles POST /auth/logout
// @Summary      Logout
// @Description  Revokes the refresh token and clears the auth cookies
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /auth/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(middleware.RefreshTokenCookie)
	if refreshToken == "" {
		var req service.RefreshTokenRequest
		_ = c.ShouldBindJSON(&req)
		refreshToken = req.RefreshToken
	}

	if err := h.userService.Logout(c.Request.Context(), refreshToken); err != nil {
		writeError(c, err)
		return
	}

	middleware.ClearTokenCookies(c)
	response.OK(c, gin.H{"message": "Logged out"})
}

// RequestPasswordReset handles POST /auth/password-reset
// @Summary      Request a password reset
// @Description  Issues a one hour reset token. The response is the same whether or not the email exists.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PasswordResetRequest  true  "Email"
// @Success      202      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /auth/password-reset [post]
func (h *UserHandler) RequestPasswordReset(c *gin.Context) {
	var req service.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.userService.RequestPasswordReset(c.Request.Context(), req); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, response.Success(http.StatusAccepted, gin.H{"message": "If the email is registered, a reset link has been sent"}))
}

// ConfirmPasswordReset handles POST /auth/password-reset/confirm
// @Summary      Set a new password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ConfirmPasswordResetRequest  true  "Reset token and new password"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /auth/password-reset/confirm [post]
func (h *UserHandler) ConfirmPasswordReset(c *gin.Context) {
	var req service.ConfirmPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.userService.ResetPassword(c.Request.Context(), req); err != nil {
		writeError(c, err)
		return
	}

	response.OK(c, gin.H{"message": "Password updated"})
}
