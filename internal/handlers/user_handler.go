package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"petition/internal/models"
	"petition/internal/services"
)

type UserHandler struct {
	service services.UserService
	log     *zap.Logger
}

func NewUserHandler(service services.UserService, log *zap.Logger) *UserHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserHandler{service: service, log: log}
}

type UpdateUserRequest struct {
	ID        uuid.UUID `json:"id" binding:"required"`
	ValidVote *bool     `json:"valid_vote" binding:"required"`
}

// @Summary      Список подписантов
// @Tags         Admin
// @Produce      json
// @Param        valid  query     bool  false  "Фильтр по valid_vote"
// @Param        page   query     int   false  "Страница (с 1)"
// @Param        limit  query     int   false  "Размер страницы"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /vote/all_user [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	valid, ok := queryBool(c, "valid")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid valid parameter"})
		return
	}
	page, ok := queryInt(c, "page", 1)
	if !ok || page == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
		return
	}
	limit, ok := queryInt(c, "limit", 50)
	if !ok || limit == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	users, err := h.service.ListUsers(c.Request.Context(), models.UserFilter{
		ValidVote: valid,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	})
	if err != nil {
		h.log.Error("list users failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}
	total, err := h.service.CountValid(c.Request.Context())
	if err != nil {
		h.log.Error("count valid users failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":       users,
		"page":        page,
		"limit":       limit,
		"valid_total": total,
	})
}

// @Summary      Изменить valid_vote подписанта
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        body  body      UpdateUserRequest  true  "id и новое значение"
// @Success      200   {object}  models.User
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /vote/update_user [post]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindMessage(err)})
		return
	}

	user, err := h.service.SetValidVote(c.Request.Context(), req.ID, *req.ValidVote)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.log.Error("update user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	c.JSON(http.StatusOK, user)
}
