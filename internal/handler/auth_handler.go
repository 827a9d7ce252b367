package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/magazzino-io/inventario-api/internal/middleware"
	"github.com/magazzino-io/inventario-api/internal/models"
	"github.com/magazzino-io/inventario-api/internal/service"
	appErrors "github.com/magazzino-io/inventario-api/pkg/errors"
	"github.com/magazzino-io/inventario-api/pkg/response"
)

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login authenticates a user and returns an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Me returns the authenticated user's identity.
func (h *AuthHandler) Me(c *gin.Context) {
	claimsValue, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	claims, ok := claimsValue.(*models.JWTClaims)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, models.UserInfo{Username: claims.Username, Role: claims.Role}, nil)
}

// ReloadCredentials re-reads the credential table from disk.
func (h *AuthHandler) ReloadCredentials(c *gin.Context) {
	count, err := h.service.ReloadCredentials(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"entries": count}, nil)
}
