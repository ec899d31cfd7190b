package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"petition/internal/middleware"
	"petition/internal/services"
)

type VoteHandler struct {
	votes   *services.VoteService
	votings *services.VotingService
	log     *zap.Logger
}

func NewVoteHandler(votes *services.VoteService, votings *services.VotingService, log *zap.Logger) *VoteHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &VoteHandler{votes: votes, votings: votings, log: log}
}

type ValidateRequest struct {
	FullName    string `json:"full_name" binding:"max=255"`
	Email       string `json:"email" binding:"omitempty,email,max=255"`
	PhoneNumber string `json:"phone_number" binding:"required,phone"`
	Token       string `json:"token"`
}

type VerifySMSRequest struct {
	Phone string `json:"phone" binding:"required,phone"`
	Code  string `json:"code" binding:"required,otp"`
}

// @Summary      Запрос SMS-кода
// @Description  Проверяет капчу, создаёт пользователя по телефону и отправляет код подтверждения
// @Tags         Vote
// @Accept       json
// @Produce      json
// @Param        body  body      ValidateRequest  true  "Данные подписанта"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /vote/validate [post]
func (h *VoteHandler) Validate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "failed", "message": bindMessage(err)})
		return
	}

	out, err := h.votes.Submit(c.Request.Context(), services.SubmitRequest{
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        strings.TrimSpace(req.PhoneNumber),
		CaptchaToken: req.Token,
		ClientIP:     middleware.ClientIP(c.Request),
	})

	var rejected *services.CaptchaRejectedError
	switch {
	case err == nil:
	case errors.Is(err, services.ErrMissingToken):
		c.JSON(http.StatusBadRequest, gin.H{"status": "failed", "message": "captcha token is required"})
		return
	case errors.As(err, &rejected):
		c.JSON(http.StatusBadRequest, gin.H{"status": "failed", "message": rejected.Message})
		return
	case errors.Is(err, services.ErrCaptchaUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"status": "failed", "message": "captcha service error"})
		return
	case errors.Is(err, services.ErrThrottled):
		c.JSON(http.StatusTooManyRequests, gin.H{"status": "failed", "message": "too many requests, try again later"})
		return
	case errors.Is(err, services.ErrSMSProvider):
		c.JSON(http.StatusBadGateway, gin.H{"status": "failed", "message": "SMS provider error"})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"status": "failed", "message": "internal error"})
		return
	}

	if out.Status == services.OutcomeAlreadyVerified {
		c.JSON(http.StatusBadRequest, gin.H{"status": string(out.Status)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(out.Status), "host": out.Host})
}

// @Summary      Подтверждение SMS-кода
// @Tags         Vote
// @Accept       json
// @Produce      json
// @Param        body  body      VerifySMSRequest  true  "Телефон и код"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Router       /vote/verify_sms [post]
func (h *VoteHandler) VerifySMS(c *gin.Context) {
	var req VerifySMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "failed", "message": bindMessage(err)})
		return
	}

	res, err := h.votes.Verify(c.Request.Context(), strings.TrimSpace(req.Phone), req.Code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "failed", "message": "internal error"})
		return
	}
	if !res.OK {
		c.JSON(http.StatusBadRequest, gin.H{"status": "failed", "reason": string(res.Reason)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      Публичная информация о кампании
// @Tags         Vote
// @Produce      json
// @Success      200  {object}  models.VotingInfo
// @Failure      404  {object}  map[string]string
// @Router       /vote/vote_info [get]
func (h *VoteHandler) VoteInfo(c *gin.Context) {
	info, err := h.votings.PublicInfo(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoCurrentVoting) {
			c.JSON(http.StatusNotFound, gin.H{"error": "voting not found"})
			return
		}
		h.log.Error("vote info failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, info)
}
