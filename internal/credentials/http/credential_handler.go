// Package http provides HTTP handlers for credential management. Tokens are sealed by the
// use case before they are persisted and are returned only by GET.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/tokenvault/internal/credentials/http/dto"
	credentialsUseCase "github.com/allisson/tokenvault/internal/credentials/usecase"
	"github.com/allisson/tokenvault/internal/httputil"
	customValidation "github.com/allisson/tokenvault/internal/validation"
)

// CredentialHandler handles HTTP requests for credential operations.
type CredentialHandler struct {
	credentialUseCase credentialsUseCase.CredentialUseCase
	logger            *slog.Logger
}

// NewCredentialHandler creates a new credential handler.
func NewCredentialHandler(
	credentialUseCase credentialsUseCase.CredentialUseCase,
	logger *slog.Logger,
) *CredentialHandler {
	return &CredentialHandler{
		credentialUseCase: credentialUseCase,
		logger:            logger,
	}
}

// StoreHandler seals and stores the token for an account, replacing any previous one.
// PUT /v1/credentials/:email
// Returns 200 OK with credential metadata.
func (h *CredentialHandler) StoreHandler(c *gin.Context) {
	var req dto.StoreCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	credential, err := h.credentialUseCase.Store(
		c.Request.Context(),
		c.Param("email"),
		req.ToToken(time.Now()),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCredentialToResponse(credential))
}

// GetHandler opens and returns the token stored for an account.
// GET /v1/credentials/:email
// Returns 503 when the stored envelope cannot be opened.
func (h *CredentialHandler) GetHandler(c *gin.Context) {
	credential, err := h.credentialUseCase.Get(c.Request.Context(), c.Param("email"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, dto.MapCredentialToGetResponse(credential))
}

// DeleteHandler removes the credential for an account.
// DELETE /v1/credentials/:email
func (h *CredentialHandler) DeleteHandler(c *gin.Context) {
	if err := h.credentialUseCase.Delete(c.Request.Context(), c.Param("email")); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListHandler returns credential metadata ordered by email.
// GET /v1/credentials?offset=0&limit=50
func (h *CredentialHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	credentials, err := h.credentialUseCase.List(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapCredentialsToListResponse(credentials))
}
