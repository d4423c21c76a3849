package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"agendaki/internal/domain"
	"agendaki/internal/service/auth"
	"agendaki/internal/store"
)

type authService interface {
	Login(ctx context.Context, username, password string) (string, error)
	SetupAdmin(ctx context.Context, in auth.SetupAdminInput) (domain.User, error)
	VerifyToken(token string) (auth.Principal, error)
}

type AuthHandler struct {
	svc authService
	log *slog.Logger
}

func NewAuthHandler(svc authService, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		svc: svc,
		log: log.With(slog.String("component", "http.auth")),
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Corpo da requisição inválido"})
		return
	}

	token, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		var vErr *auth.ValidationError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"erro": vErr.Error()})
		case errors.Is(err, auth.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"erro": "Credenciais inválidas"})
		default:
			h.log.Error("login failed", slog.Any("err", err))
			c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro interno ao autenticar"})
		}
		return
	}

	h.log.Info("login succeeded", slog.String("username", req.Username))
	c.JSON(http.StatusOK, gin.H{
		"mensagem": "Login bem-sucedido",
		"token":    token,
	})
}

type setupAdminRequest struct {
	Name     string `json:"nome"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) SetupAdmin(c *gin.Context) {
	var req setupAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Corpo da requisição inválido"})
		return
	}

	user, err := h.svc.SetupAdmin(c.Request.Context(), auth.SetupAdminInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		var vErr *auth.ValidationError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"erro": vErr.Error()})
		case errors.Is(err, store.ErrAlreadyExists):
			c.JSON(http.StatusForbidden, gin.H{"erro": "Usuário administrador já existe. Setup não permitido."})
		default:
			h.log.Error("admin setup failed", slog.Any("err", err))
			c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro interno ao criar usuário"})
		}
		return
	}

	h.log.Info("admin user created", slog.Int64("user_id", user.ID), slog.String("username", user.Username))
	c.JSON(http.StatusCreated, gin.H{
		"mensagem": "Usuário administrador criado com sucesso. Utilize a rota /api/login.",
	})
}
