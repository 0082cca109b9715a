package dto

import (
	"encoding/json"
	"time"
)

type DemoAccessRequest struct {
	Email             string   `json:"email" binding:"required,email"`
	Company           string   `json:"company"`
	WorkflowInterests []string `json:"workflow_interests"`
}

type DemoAccessResponse struct {
	Success            bool           `json:"success"`
	Message            string         `json:"message"`
	DemoToken          string         `json:"demo_token"`
	ClientID           string         `json:"client_id"`
	ExpiresIn          string         `json:"expires_in"`
	ExpiresAt          time.Time      `json:"expires_at"`
	AvailableWorkflows []WorkflowInfo `json:"available_workflows"`
	Instructions       string         `json:"instructions"`
}

// WorkflowInfo is the public description of a registered workflow.
type WorkflowInfo struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Requires    []string `json:"requires,omitempty"`
}

type ExecuteRequest struct {
	WorkflowType string          `json:"workflow_type"`
	Data         json.RawMessage `json:"data"`
}

type ExecuteResponse struct {
	Success       bool            `json:"success"`
	Data          json.RawMessage `json:"data"`
	WorkflowType  string          `json:"workflow_type"`
	ClientID      string          `json:"client_id"`
	ExecutionTime time.Time       `json:"execution_time"`
}

type ClientInfoResponse struct {
	ClientID           string         `json:"client_id"`
	Type               string         `json:"type"`
	CreatedAt          *time.Time     `json:"created_at"`
	ExpiresAt          *time.Time     `json:"expires_at"`
	AvailableWorkflows []WorkflowInfo `json:"available_workflows"`
	UsageInfo          UsageInfo      `json:"usage_info"`
}

type UsageInfo struct {
	// DemoPeriodRemaining is in milliseconds; nil when the identity never expires.
	DemoPeriodRemaining *int64 `json:"demo_period_remaining"`
	WorkflowsAccessible int    `json:"workflows_accessible"`
}

type InvoicePreferences struct {
	DriveFolderID *string `json:"drive_folder_id"`
	SpreadsheetID *string `json:"spreadsheet_id"`
	Range         *string `json:"range"`
}

// UserWorkflow is one catalogue entry for an authenticated user.
type UserWorkflow struct {
	Key         string              `json:"key"`
	Description string              `json:"description"`
	Requires    []string            `json:"requires"`
	Connected   bool                `json:"connected"`
	Prefs       *InvoicePreferences `json:"prefs,omitempty"`
	Actions     map[string]string   `json:"actions,omitempty"`
}
