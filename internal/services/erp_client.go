// internal/services/erp_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/serramalhas/malhas-backend/internal/config"
)

// ERPClient posts orders to the ERP intake endpoint.
type ERPClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

type ERPOrderItem struct {
	Cor          string  `json:"cor"`
	QuantidadeKg float64 `json:"quantidade_kg"`
	ValorKg      float64 `json:"valor_kg"`
	ValorTotal   float64 `json:"valor_total"`
}

type ERPProduct struct {
	Codigo string `json:"codigo"`
	Nome   string `json:"nome"`
}

// ERPOrderPayload is the order summary the ERP expects. Field names follow
// the ERP contract.
type ERPOrderPayload struct {
	IdempotencyKey    string         `json:"idempotency_key"`
	NumeroOrcamento   int64          `json:"numero_orcamento"`
	Cliente           string         `json:"cliente"`
	Produto           ERPProduct     `json:"produto"`
	Itens             []ERPOrderItem `json:"itens"`
	TotalKg           float64        `json:"total_kg"`
	ValorTotal        float64        `json:"valor_total"`
	CondicaoPagamento string         `json:"condicao_pagamento"`
	Observacao        string         `json:"observacao"`
	Data              string         `json:"data"`
}

type ERPResponse struct {
	Success bool        `json:"success"`
	Numero  interface{} `json:"numero,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ERPSendError describes a failed send. Ambiguous means the request may
// have reached the ERP, so a retry could duplicate the order.
type ERPSendError struct {
	Ambiguous bool
	Err       error
}

func (e *ERPSendError) Error() string {
	return e.Err.Error()
}

func (e *ERPSendError) Unwrap() error {
	return e.Err
}

func NewERPClient(cfg config.ERPConfig) *ERPClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &ERPClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *ERPClient) Configured() bool {
	return c.endpoint != ""
}

// Send posts payload once. There is no retry.
func (c *ERPClient) Send(ctx context.Context, payload *ERPOrderPayload) (*ERPResponse, error) {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, &ERPSendError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return nil, &ERPSendError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", payload.IdempotencyKey)
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	logrus.WithFields(logrus.Fields{
		"order_number":    payload.NumeroOrcamento,
		"idempotency_key": payload.IdempotencyKey,
		"items":           len(payload.Itens),
	}).Info("sending order to ERP")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &ERPSendError{Ambiguous: !isDialError(err), Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ERPSendError{Ambiguous: true, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var erpResp ERPResponse
	parseErr := json.Unmarshal(body, &erpResp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(body)
		if parseErr == nil && erpResp.Error != "" {
			msg = erpResp.Error
		}
		// 5xx may have been applied before failing
		return nil, &ERPSendError{
			Ambiguous: resp.StatusCode >= 500,
			Err:       fmt.Errorf("ERP error (status %d): %s", resp.StatusCode, truncateText(msg, 500)),
		}
	}

	if parseErr != nil {
		return nil, &ERPSendError{Ambiguous: true, Err: fmt.Errorf("failed to parse response: %w", parseErr)}
	}
	if !erpResp.Success {
		msg := erpResp.Error
		if msg == "" {
			msg = "ERP rejected the order"
		}
		return nil, &ERPSendError{Err: errors.New(msg)}
	}
	return &erpResp, nil
}

// isDialError reports errors raised before any byte was written.
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
