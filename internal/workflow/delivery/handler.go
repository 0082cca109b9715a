package delivery

import (
	"net/http"
	"strconv"
	"time"

	demousecase "nexus-backend/internal/demo/usecase"
	identitydelivery "nexus-backend/internal/identity/delivery"
	identitydomain "nexus-backend/internal/identity/domain"
	"nexus-backend/internal/workflow/dto"
	"nexus-backend/internal/workflow/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestIDKey is where the request logger stores the request id.
const RequestIDKey = "requestID"

// WorkflowHandler serves demo access, workflow execution and workflow settings.
type WorkflowHandler struct {
	workflowUsecase usecase.WorkflowUsecase
	issuer          *demousecase.Issuer
	logger          *zap.Logger
}

// NewWorkflowHandler creates a new WorkflowHandler
func NewWorkflowHandler(workflowUsecase usecase.WorkflowUsecase, issuer *demousecase.Issuer, logger *zap.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		workflowUsecase: workflowUsecase,
		issuer:          issuer,
		logger:          logger,
	}
}

// CreateDemoAccess issues a demo grant for the requested workflows
// POST /api/demo/access
func (h *WorkflowHandler) CreateDemoAccess(c *gin.Context) {
	var req dto.DemoAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Email required",
			"code":    "INVALID_REQUEST",
			"message": "Please provide your email to start the demo",
		})
		return
	}
	if len(req.WorkflowInterests) == 0 {
		req.WorkflowInterests = []string{identitydomain.CapabilityAll}
	}

	clientID := h.issuer.NewClientID()
	token, grant, err := h.issuer.Issue(clientID, req.WorkflowInterests)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_REQUEST"})
		return
	}

	h.logger.Info("demo access issued",
		zap.String("client_id", clientID),
		zap.String("company", req.Company),
		zap.Strings("workflows", grant.Capabilities),
	)

	c.JSON(http.StatusOK, dto.DemoAccessResponse{
		Success:            true,
		Message:            "Demo access created successfully!",
		DemoToken:          token,
		ClientID:           clientID,
		ExpiresIn:          "7 days",
		ExpiresAt:          grant.ExpiresAt.UTC(),
		AvailableWorkflows: h.workflowUsecase.AvailableFor(grant.Capabilities),
		Instructions:       "Send this token in the " + identitydelivery.DemoGrantHeader + " header",
	})
}

// GetClientInfo describes the calling identity and what it can run
// GET /api/workflows/client
func (h *WorkflowHandler) GetClientInfo(c *gin.Context) {
	id := identitydelivery.FromContext(c)
	available := h.workflowUsecase.Available(id)

	resp := dto.ClientInfoResponse{
		ClientID:           id.ID,
		Type:               string(id.Kind),
		AvailableWorkflows: available,
		UsageInfo:          dto.UsageInfo{WorkflowsAccessible: len(available)},
	}
	if !id.IssuedAt.IsZero() {
		issued := id.IssuedAt.UTC()
		resp.CreatedAt = &issued
	}
	if id.ExpiresAt != nil {
		expires := id.ExpiresAt.UTC()
		resp.ExpiresAt = &expires
		remaining := max(time.Until(expires).Milliseconds(), 0)
		resp.UsageInfo.DemoPeriodRemaining = &remaining
	}

	c.JSON(http.StatusOK, resp)
}

// Execute runs a workflow for the calling identity
// POST /api/workflows/execute
func (h *WorkflowHandler) Execute(c *gin.Context) {
	id := identitydelivery.FromContext(c)

	var req dto.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_REQUEST"})
		return
	}

	resp, err := h.workflowUsecase.Execute(c.Request.Context(), id, &req, c.GetString(RequestIDKey))
	if err != nil {
		h.writeError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ProcessInvoice forwards an invoice payload to the processor webhook
// POST /api/process-invoice
func (h *WorkflowHandler) ProcessInvoice(c *gin.Context) {
	id := identitydelivery.FromContext(c)

	body := map[string]any{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_REQUEST"})
		return
	}

	data, err := h.workflowUsecase.ProcessInvoice(c.Request.Context(), id, c.GetHeader("X-Tenant-ID"), body, c.GetString(RequestIDKey))
	if err != nil {
		h.writeError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// ListWorkflows returns the workflow catalogue with connection state
// GET /api/workflows
func (h *WorkflowHandler) ListWorkflows(c *gin.Context) {
	id := identitydelivery.FromContext(c)

	workflows, err := h.workflowUsecase.ListForUser(c.Request.Context(), id.UserID)
	if err != nil {
		h.writeError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"workflows": workflows})
}

// GetInvoicePreferences returns the stored invoice workflow settings
// GET /api/workflows/invoice/preferences
func (h *WorkflowHandler) GetInvoicePreferences(c *gin.Context) {
	id := identitydelivery.FromContext(c)

	prefs, err := h.workflowUsecase.GetInvoicePreferences(c.Request.Context(), id.UserID)
	if err != nil {
		h.writeError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, prefs)
}

// SaveInvoicePreferences updates the invoice workflow settings
// PUT /api/workflows/invoice/preferences
func (h *WorkflowHandler) SaveInvoicePreferences(c *gin.Context) {
	id := identitydelivery.FromContext(c)

	var req dto.InvoicePreferences
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_REQUEST"})
		return
	}

	prefs, err := h.workflowUsecase.SaveInvoicePreferences(c.Request.Context(), id.UserID, &req)
	if err != nil {
		h.writeError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "prefs": prefs})
}

// ListInvoiceFiles lists the configured Drive folder
// GET /api/workflows/invoice/files?limit=50
func (h *WorkflowHandler) ListInvoiceFiles(c *gin.Context) {
	id := identitydelivery.FromContext(c)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	files, err := h.workflowUsecase.ListInvoiceFiles(c.Request.Context(), id.UserID, limit)
	if err != nil {
		h.writeError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}
