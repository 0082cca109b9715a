package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"nexus-backend/internal/workflow/domain"

	"go.uber.org/zap"
)

const (
	userAgent       = "Nexus-AutoMate-Backend/1.0"
	defaultTimeout  = 30 * time.Second
	maxResponseBody = 10 << 20
)

// Call is one outbound workflow execution.
type Call struct {
	Config    domain.Config
	Payload   any
	ClientID  string
	RequestID string
}

// Result is a 2xx answer from the automation engine, body untouched.
type Result struct {
	StatusCode  int
	Body        []byte
	ContentType string
}

// Dispatcher sends a call to the automation engine. Failures are
// ErrLocalFailure, ErrUpstreamUnreachable or *UpstreamRejectedError.
type Dispatcher interface {
	Dispatch(ctx context.Context, call Call) (*Result, error)
}

// HTTPDispatcher posts JSON payloads to webhook endpoints. It never retries.
type HTTPDispatcher struct {
	client  *http.Client
	logger  *zap.Logger
	maxBody int64
}

// NewHTTPDispatcher uses client for transport; per-call deadlines come from
// the workflow config.
func NewHTTPDispatcher(client *http.Client, logger *zap.Logger) *HTTPDispatcher {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPDispatcher{client: client, logger: logger, maxBody: maxResponseBody}
}

func (d *HTTPDispatcher) Dispatch(ctx context.Context, call Call) (*Result, error) {
	cfg := call.Config
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: %w: %s", domain.ErrLocalFailure, domain.ErrNotConfigured, cfg.Type)
	}

	body, err := json.Marshal(call.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode payload: %v", domain.ErrLocalFailure, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrLocalFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if call.ClientID != "" {
		req.Header.Set("X-Client-ID", call.ClientID)
	}
	if cfg.Token != "" {
		req.Header.Set("X-Demo-Token", cfg.Token)
	}
	if cfg.Source != "" {
		req.Header.Set("X-Request-Source", cfg.Source)
	}
	if call.RequestID != "" {
		req.Header.Set("X-Request-ID", call.RequestID)
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn("workflow dispatch unreachable",
			zap.String("workflow_type", cfg.Type),
			zap.String("client_id", call.ClientID),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnreachable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrUpstreamUnreachable, err)
	}
	if int64(len(respBody)) > d.maxBody {
		d.logger.Warn("workflow response too large",
			zap.String("workflow_type", cfg.Type),
			zap.Int("status", resp.StatusCode),
			zap.Int64("limit", d.maxBody),
		)
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", domain.ErrLocalFailure, d.maxBody)
	}

	fields := []zap.Field{
		zap.String("workflow_type", cfg.Type),
		zap.String("client_id", call.ClientID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.logger.Warn("workflow dispatch rejected", fields...)
		return nil, &domain.UpstreamRejectedError{
			StatusCode:  resp.StatusCode,
			Body:        respBody,
			ContentType: resp.Header.Get("Content-Type"),
		}
	}
	d.logger.Info("workflow dispatched", fields...)

	return &Result{
		StatusCode:  resp.StatusCode,
		Body:        respBody,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
