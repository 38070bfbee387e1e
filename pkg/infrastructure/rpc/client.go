package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/repositories"
)

// Procedures names the remote procedures and their order id parameter
type Procedures struct {
	Allocate     string
	Production   string
	Purchase     string
	OrderIDParam string
}

// DefaultProcedures are the procedure names used by the hosted backend
var DefaultProcedures = Procedures{
	Allocate:     "allocate_order_materials",
	Production:   "generate_production_coverage",
	Purchase:     "generate_purchase_requisitions",
	OrderIDParam: "p_order_id",
}

// Error is a non-2xx response from a remote procedure
type Error struct {
	Procedure  string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("procedure %s returned %d: %s", e.Procedure, e.StatusCode, e.Body)
}

// Client calls remote procedures over POST {base}/rest/v1/rpc/{procedure}
type Client struct {
	baseURL    string
	apiKey     string
	procedures Procedures
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithProcedures(p Procedures) Option {
	return func(c *Client) {
		if p.Allocate != "" {
			c.procedures.Allocate = p.Allocate
		}
		if p.Production != "" {
			c.procedures.Production = p.Production
		}
		if p.Purchase != "" {
			c.procedures.Purchase = p.Purchase
		}
		if p.OrderIDParam != "" {
			c.procedures.OrderIDParam = p.OrderIDParam
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a procedure client. apiKey may be empty.
func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		procedures: DefaultProcedures,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ repositories.AllocationGateway  = (*Client)(nil)
	_ repositories.RemediationGateway = (*Client)(nil)
)

// AllocateOrder calls the allocation procedure. A bare array response is
// returned as {"lines": [...]} so the normalizer sees one shape.
func (c *Client) AllocateOrder(ctx context.Context, orderID string) (map[string]interface{}, error) {
	body, err := c.call(ctx, c.procedures.Allocate, orderID)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]interface{}{}, nil
	}

	if trimmed[0] == '[' {
		var lines []interface{}
		if err := json.Unmarshal(trimmed, &lines); err != nil {
			return nil, fmt.Errorf("failed to decode %s response: %w", c.procedures.Allocate, err)
		}
		return map[string]interface{}{"lines": lines}, nil
	}

	var response map[string]interface{}
	if err := json.Unmarshal(trimmed, &response); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", c.procedures.Allocate, err)
	}
	return response, nil
}

// GenerateProductionCoverage calls the production coverage procedure
func (c *Client) GenerateProductionCoverage(ctx context.Context, orderID string) error {
	_, err := c.call(ctx, c.procedures.Production, orderID)
	return err
}

// GeneratePurchaseRequisitions calls the purchase requisition procedure
func (c *Client) GeneratePurchaseRequisitions(ctx context.Context, orderID string) error {
	_, err := c.call(ctx, c.procedures.Purchase, orderID)
	return err
}

func (c *Client) call(ctx context.Context, procedure, orderID string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{c.procedures.OrderIDParam: orderID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s arguments: %w", procedure, err)
	}

	url := fmt.Sprintf("%s/rest/v1/rpc/%s", c.baseURL, procedure)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", procedure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", procedure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", procedure, err)
	}

	c.logger.Debug("remote procedure called",
		zap.String("procedure", procedure),
		zap.String("order", orderID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Procedure: procedure, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
