package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bot-dashboard/internal/config"

	"go.uber.org/zap"
)

// CheckResult reports whether a number is known to the registry
type CheckResult struct {
	Exists       bool       `json:"exists"`
	PhoneNumber  string     `json:"phone_number"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
}

// RegisterResult is the outcome of registering one number
type RegisterResult struct {
	Success     bool   `json:"success"`
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message,omitempty"`
}

// BulkRegisterResult is the outcome of registering a batch of numbers
type BulkRegisterResult struct {
	Success         bool     `json:"success"`
	RegisteredCount int      `json:"registered_count"`
	FailedCount     int      `json:"failed_count"`
	FailedNumbers   []string `json:"failed_numbers,omitempty"`
}

// CleanupResult is the outcome of purging old registry records
type CleanupResult struct {
	Success      bool   `json:"success"`
	DeletedCount int    `json:"deleted_count"`
	Message      string `json:"message,omitempty"`
}

// PhoneRegistryClient talks to the external phone registry. Calls never return
// errors: transport failures, non-2xx responses and undecodable bodies are
// logged and turned into a negative result.
type PhoneRegistryClient interface {
	CheckPhone(ctx context.Context, phoneNumber string) *CheckResult
	RegisterPhone(ctx context.Context, phoneNumber string, metadata map[string]interface{}) *RegisterResult
	BulkRegisterPhones(ctx context.Context, phoneNumbers []string, metadata map[string]interface{}) *BulkRegisterResult
	CleanupOldRecords(ctx context.Context, days int) *CleanupResult
}

type phoneRegistryClient struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	checkTimeout   time.Duration
	bulkTimeout    time.Duration
	cleanupTimeout time.Duration
	logger         *zap.Logger
}

// NewPhoneRegistryClient creates a registry client from configuration
func NewPhoneRegistryClient(cfg config.PhoneRegistryConfig, logger *zap.Logger) PhoneRegistryClient {
	return &phoneRegistryClient{
		baseURL:        cfg.URL,
		apiKey:         cfg.APIKey,
		httpClient:     &http.Client{},
		checkTimeout:   cfg.CheckTimeout,
		bulkTimeout:    cfg.BulkTimeout,
		cleanupTimeout: cfg.CleanupTimeout,
		logger:         logger.Named("phone_registry"),
	}
}

// StatusError is returned for non-2xx registry responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("registry returned %d: %s", e.StatusCode, e.Body)
}

// do sends one request with the given timeout and decodes a 2xx JSON body into out
func (c *phoneRegistryClient) do(ctx context.Context, timeout time.Duration, method, path string, payload, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Encode request body
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Keep a short body snippet for the log
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *phoneRegistryClient) CheckPhone(ctx context.Context, phoneNumber string) *CheckResult {
	var result CheckResult
	payload := map[string]string{"phone_number": phoneNumber}

	if err := c.do(ctx, c.checkTimeout, http.MethodPost, "/api/phone/check", payload, &result); err != nil {
		c.logger.Warn("Phone check failed", zap.String("phone_number", phoneNumber), zap.Error(err))
		return &CheckResult{Exists: false, PhoneNumber: phoneNumber}
	}

	if result.PhoneNumber == "" {
		result.PhoneNumber = phoneNumber
	}
	return &result
}

func (c *phoneRegistryClient) RegisterPhone(ctx context.Context, phoneNumber string, metadata map[string]interface{}) *RegisterResult {
	var result RegisterResult
	payload := map[string]interface{}{"phone_number": phoneNumber}
	if metadata != nil {
		payload["metadata"] = metadata
	}

	if err := c.do(ctx, c.checkTimeout, http.MethodPost, "/api/phone/register", payload, &result); err != nil {
		c.logger.Warn("Phone registration failed", zap.String("phone_number", phoneNumber), zap.Error(err))
		return &RegisterResult{
			Success:     false,
			PhoneNumber: phoneNumber,
			Message:     fmt.Sprintf("Failed to register: %v", err),
		}
	}

	if result.PhoneNumber == "" {
		result.PhoneNumber = phoneNumber
	}
	return &result
}

func (c *phoneRegistryClient) BulkRegisterPhones(ctx context.Context, phoneNumbers []string, metadata map[string]interface{}) *BulkRegisterResult {
	var result BulkRegisterResult
	payload := map[string]interface{}{"phone_numbers": phoneNumbers}
	if metadata != nil {
		payload["metadata"] = metadata
	}

	if err := c.do(ctx, c.bulkTimeout, http.MethodPost, "/api/phone/bulk-register", payload, &result); err != nil {
		c.logger.Warn("Bulk phone registration failed", zap.Int("count", len(phoneNumbers)), zap.Error(err))
		failed := make([]string, len(phoneNumbers))
		copy(failed, phoneNumbers)
		return &BulkRegisterResult{
			Success:         false,
			RegisteredCount: 0,
			FailedCount:     len(phoneNumbers),
			FailedNumbers:   failed,
		}
	}

	return &result
}

func (c *phoneRegistryClient) CleanupOldRecords(ctx context.Context, days int) *CleanupResult {
	var result CleanupResult
	query := url.Values{"days": []string{strconv.Itoa(days)}}

	if err := c.do(ctx, c.cleanupTimeout, http.MethodDelete, "/api/phone/cleanup?"+query.Encode(), nil, &result); err != nil {
		c.logger.Warn("Registry cleanup failed", zap.Int("days", days), zap.Error(err))
		return &CleanupResult{
			Success:      false,
			DeletedCount: 0,
			Message:      fmt.Sprintf("Cleanup failed: %v", err),
		}
	}

	return &result
}
