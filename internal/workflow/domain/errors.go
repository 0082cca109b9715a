package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownWorkflow        = errors.New("unknown workflow type")
	ErrAccessDenied           = errors.New("no access to workflow")
	ErrThirdPartyNotConnected = errors.New("third-party account reconnection required")
	ErrUpstreamUnreachable    = errors.New("automation engine unreachable")
	ErrLocalFailure           = errors.New("workflow dispatch failed")
	ErrNotConfigured          = errors.New("workflow endpoint not configured")
)

// AccessDeniedError carries the workflows the caller may use instead.
type AccessDeniedError struct {
	WorkflowType string
	Available    []Config
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("no access to workflow: %s", e.WorkflowType)
}

func (e *AccessDeniedError) Unwrap() error { return ErrAccessDenied }

// UpstreamRejectedError is a non-2xx answer from the automation engine.
type UpstreamRejectedError struct {
	StatusCode  int
	Body        []byte
	ContentType string
}

func (e *UpstreamRejectedError) Error() string {
	return fmt.Sprintf("automation engine responded with status %d", e.StatusCode)
}
