package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"petition/internal/models"
	"petition/internal/repositories"
	"petition/internal/services"
)

type VotingHandler struct {
	service *services.VotingService
	log     *zap.Logger
}

func NewVotingHandler(service *services.VotingService, log *zap.Logger) *VotingHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &VotingHandler{service: service, log: log}
}

// @Summary      Текущая кампания (полные данные)
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  models.Voting
// @Failure      404  {object}  map[string]string
// @Router       /vote/voting [get]
func (h *VotingHandler) Get(c *gin.Context) {
	v, err := h.service.Current(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary      Создать кампанию
// @Description  Новая кампания становится текущей, прежняя снимается
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        body  body      services.CreateVotingInput  true  "Параметры кампании"
// @Success      201   {object}  models.Voting
// @Failure      400   {object}  map[string]string
// @Router       /vote/voting [post]
func (h *VotingHandler) Create(c *gin.Context) {
	var in services.CreateVotingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindMessage(err)})
		return
	}
	v, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// @Summary      Обновить текущую кампанию
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        body  body      models.VotingUpdate  true  "Изменяемые поля"
// @Success      200   {object}  models.Voting
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /vote/voting [put]
func (h *VotingHandler) Update(c *gin.Context) {
	var upd models.VotingUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindMessage(err)})
		return
	}
	v, err := h.service.Update(c.Request.Context(), upd)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *VotingHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNoCurrentVoting):
		c.JSON(http.StatusNotFound, gin.H{"error": "voting not found"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidPeriod),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrNegativeQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repositories.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "voting was changed concurrently, retry"})
	default:
		h.log.Error("voting request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
