package delivery

import (
	"errors"
	"net/http"

	identitydomain "nexus-backend/internal/identity/domain"
	"nexus-backend/internal/workflow/domain"
	"nexus-backend/internal/workflow/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeError maps workflow failures to responses. Upstream rejections are
// relayed with their own status and body.
func (h *WorkflowHandler) writeError(c *gin.Context, id *identitydomain.Identity, err error) {
	var denied *domain.AccessDeniedError
	var rejected *domain.UpstreamRejectedError

	switch {
	case errors.Is(err, usecase.ErrWorkflowTypeRequired):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":               "Workflow type required",
			"code":                "WORKFLOW_TYPE_REQUIRED",
			"available_workflows": h.workflowUsecase.Available(id),
		})
	case errors.Is(err, domain.ErrUnknownWorkflow):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "UNKNOWN_WORKFLOW"})
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, gin.H{
			"error":               "Access denied",
			"code":                "ACCESS_DENIED",
			"message":             denied.Error(),
			"available_workflows": h.workflowUsecase.Available(id),
		})
	case errors.Is(err, domain.ErrThirdPartyNotConnected):
		c.JSON(http.StatusConflict, gin.H{
			"error":                       "Third-party account reconnection required",
			"code":                        "THIRD_PARTY_RECONNECT_REQUIRED",
			"connect_google_url_endpoint": "/api/oauth/google/url",
		})
	case errors.Is(err, usecase.ErrFolderNotConfigured):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "FOLDER_NOT_CONFIGURED"})
	case errors.As(err, &rejected):
		contentType := rejected.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Data(rejected.StatusCode, contentType, rejected.Body)
	case errors.Is(err, domain.ErrUpstreamUnreachable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Automation engine unreachable", "code": "UPSTREAM_UNREACHABLE"})
	case errors.Is(err, domain.ErrNotConfigured):
		h.logger.Error("workflow endpoint missing", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Workflow endpoint is not configured", "code": "NOT_CONFIGURED"})
	case errors.Is(err, domain.ErrLocalFailure):
		h.logger.Error("workflow dispatch failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Execution failed", "code": "DISPATCH_FAILED"})
	default:
		h.logger.Error("workflow request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "INTERNAL_ERROR"})
	}
}
