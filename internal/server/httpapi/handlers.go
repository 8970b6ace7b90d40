// Package httpapi serves the Auth API over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/sessionkeeper/internal/authapi"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

// Operation labels used in logs and metrics.
const (
	opLogin         = "login"
	opCreateAccount = "create_account"
	opCheckAuth     = "check_auth"
)

// AuthService is the business logic behind the handlers.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	CheckAuth(ctx context.Context, token string) (*models.User, error)
}

type Handler struct {
	auth    AuthService
	logger  logging.Logger
	metrics *metrics.Metrics
}

func NewHandler(s AuthService, l logging.Logger, m *metrics.Metrics) *Handler {
	return &Handler{auth: s, logger: l.With("module", "httpapi"), metrics: m}
}

// Login handles POST /api/login.
func (h *Handler) Login(c *gin.Context) {
	h.credentials(c, opLogin, h.auth.Login)
}

// CreateAccount handles POST /api/createAccount.
func (h *Handler) CreateAccount(c *gin.Context) {
	h.credentials(c, opCreateAccount, h.auth.Register)
}

func (h *Handler) credentials(c *gin.Context, op string, call func(context.Context, string, string) (*services.AuthResult, error)) {
	ctx := c.Request.Context()

	var req authapi.CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, op, common.ErrorValidation)
		return
	}

	res, err := call(ctx, req.Email, req.Password)
	if err != nil {
		h.fail(c, op, err)
		return
	}

	h.logger.Info(ctx, "auth ok", "op", op, "email", res.User.Email, "request_id", requestID(c))
	h.metrics.ObserveAuth(op, metrics.OutcomeSuccess)

	c.JSON(http.StatusOK, authapi.AuthResponse{
		Token: res.Token,
		User:  authapi.User{Email: res.User.Email},
	})
}

// CheckAuth handles POST /api/checkAuth.
func (h *Handler) CheckAuth(c *gin.Context) {
	var req authapi.CheckAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, opCheckAuth, common.ErrorValidation)
		return
	}

	user, err := h.auth.CheckAuth(c.Request.Context(), req.Token)
	if err != nil {
		h.fail(c, opCheckAuth, err)
		return
	}

	h.metrics.ObserveAuth(opCheckAuth, metrics.OutcomeSuccess)
	c.JSON(http.StatusOK, authapi.CheckAuthResponse{User: authapi.User{Email: user.Email}})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	status, outcome, msg := mapError(err)

	if status == http.StatusInternalServerError {
		h.logger.Error(c.Request.Context(), "auth failed", "op", op, "error", err, "request_id", requestID(c))
	} else {
		h.logger.Debug(c.Request.Context(), "auth rejected", "op", op, "error", err, "request_id", requestID(c))
	}
	h.metrics.ObserveAuth(op, outcome)

	c.JSON(status, authapi.ErrorResponse{Error: msg})
}

func mapError(err error) (status int, outcome, msg string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, metrics.OutcomeInvalid, err.Error()
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, metrics.OutcomeConflict, "account already exists"
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, metrics.OutcomeUnauthorized, "token expired"
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, metrics.OutcomeUnauthorized, "invalid token"
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, metrics.OutcomeUnauthorized, "invalid credentials"
	default:
		return http.StatusInternalServerError, metrics.OutcomeError, "internal error"
	}
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
