package handler

import (
	"net/http"
	"net/url"

	"anoa.com/campusfeedback/internal/middleware"
	"anoa.com/campusfeedback/internal/modules/user/dto"
	user "anoa.com/campusfeedback/internal/modules/user/service"
	"anoa.com/campusfeedback/pkg/response"
	"anoa.com/campusfeedback/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const oauthStateCookie = "oauth_state"

type AuthHandler struct {
	authService user.AuthService
	frontendURL string
}

func NewAuthHandler(authService user.AuthService, frontendURL string) *AuthHandler {
	return &AuthHandler{authService: authService, frontendURL: frontendURL}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input dto.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	res, err := h.authService.Register(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, res, res.Message)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	res, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res, "login successful")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.CurrentPrincipal(c)); err != nil {
		response.ResponseError(c, err)
		return
	}
	response.Success(c, http.StatusOK, nil, "logged out")
}

func (h *AuthHandler) Me(c *gin.Context) {
	response.Success(c, http.StatusOK, h.authService.Me(middleware.CurrentUser(c)), "")
}

func (h *AuthHandler) UpdateDisplayName(c *gin.Context) {
	var input dto.UpdateDisplayNameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, validator.BindingError(err))
		return
	}

	res, err := h.authService.UpdateDisplayName(c.Request.Context(), middleware.CurrentUser(c), input.DisplayName)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res, "display name updated")
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 600, "/", "", c.Request.TLS != nil, true)
	c.Redirect(http.StatusTemporaryRedirect, h.authService.GoogleLoginURL(state))
}

func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	failed := h.frontendURL + "/login?error=authentication_failed"

	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		log.Warn().Msg("google callback with mismatched state")
		c.Redirect(http.StatusTemporaryRedirect, failed)
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", c.Request.TLS != nil, true)

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusTemporaryRedirect, failed)
		return
	}

	res, err := h.authService.GoogleCallback(c.Request.Context(), code)
	if err != nil {
		log.Warn().Err(err).Msg("google sign-in failed")
		c.Redirect(http.StatusTemporaryRedirect, failed)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/auth/callback?token="+url.QueryEscape(res.AccessToken))
}
