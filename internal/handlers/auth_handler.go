package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"petition/internal/middleware"
	"petition/internal/models"
	"petition/internal/services"
)

// CookieSettings controls how the admin token cookies are written.
type CookieSettings struct {
	Secure bool
	Domain string
}

type AuthHandler struct {
	authService services.AuthService
	cookies     CookieSettings
	log         *zap.Logger
}

func NewAuthHandler(authService services.AuthService, cookies CookieSettings, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{authService: authService, cookies: cookies, log: log}
}

// @Summary      Вход администратора
// @Description  Проверяет пароль и ставит cookie access_token и refresh_token
// @Tags         Auth
// @Accept       json
// @Param        login  body  models.LoginRequest  true  "Данные для входа"
// @Success      204
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindMessage(err)})
		return
	}

	_, pair, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		h.log.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	h.setTokens(c, pair)
	c.Status(http.StatusNoContent)
}

// @Summary      Обновление токенов
// @Tags         Auth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(middleware.RefreshCookie)
	if err != nil || refresh == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing refresh token"})
		return
	}

	_, pair, err := h.authService.Refresh(c.Request.Context(), refresh)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			h.clearTokens(c)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
			return
		}
		h.log.Error("refresh failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	h.setTokens(c, pair)
	c.Status(http.StatusNoContent)
}

// @Summary      Выход
// @Tags         Auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearTokens(c)
	c.Status(http.StatusNoContent)
}

// @Summary      Текущий администратор
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  models.Admin
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	v, ok := c.Get(middleware.CtxAdmin)
	admin, _ := v.(*models.Admin)
	if !ok || admin == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, admin)
}

func (h *AuthHandler) setTokens(c *gin.Context, pair *services.TokenPair) {
	h.setCookie(c, middleware.AccessCookie, pair.Access, pair.AccessExpires)
	h.setCookie(c, middleware.RefreshCookie, pair.Refresh, pair.RefreshExpires)
}

func (h *AuthHandler) clearTokens(c *gin.Context) {
	h.setCookie(c, middleware.AccessCookie, "", time.Unix(0, 0))
	h.setCookie(c, middleware.RefreshCookie, "", time.Unix(0, 0))
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if value == "" || maxAge <= 0 {
		maxAge = -1
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.cookies.Domain,
		Expires:  expires,
		MaxAge:   maxAge,
		Secure:   h.cookies.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
