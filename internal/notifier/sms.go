package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"ComplaintDesk/internal/pkg/logger"
)

// GatewaySMSSender posts SMS to a JSON HTTP gateway.
type GatewaySMSSender struct {
	url    string
	apiKey string
	client *http.Client
}

type smsRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// NewGatewaySMSSender creates an HTTP gateway backend. client may be nil.
func NewGatewaySMSSender(url, apiKey string, client *http.Client) *GatewaySMSSender {
	if client == nil {
		client = &http.Client{}
	}
	return &GatewaySMSSender{url: url, apiKey: apiKey, client: client}
}

func (s *GatewaySMSSender) Name() string { return "gateway" }

func (s *GatewaySMSSender) Send(ctx context.Context, phone, text string) error {
	payload, err := json.Marshal(smsRequest{To: phone, Message: text})
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sms gateway status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

// LogSMSSender only logs the message.
type LogSMSSender struct{}

func (LogSMSSender) Name() string { return "log" }

func (LogSMSSender) Send(_ context.Context, phone, text string) error {
	logger.Info("sms not sent, no gateway configured",
		zap.String("to", phone),
		zap.Int("length", len(text)),
	)
	return nil
}
