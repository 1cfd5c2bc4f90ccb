package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SMSGatewayConfig holds the settings for the hosted verification-SMS API.
type SMSGatewayConfig struct {
	BaseURL  string
	APIKey   string
	SenderID string
}

// GatewaySMSSender delivers login OTPs through the provider's
// verification/create endpoint.
type GatewaySMSSender struct {
	cfg    SMSGatewayConfig
	client *http.Client
}

// NewGatewaySMSSender builds an HTTP-backed SMS sender.
func NewGatewaySMSSender(cfg SMSGatewayConfig) *GatewaySMSSender {
	return &GatewaySMSSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type gatewayOTPRequest struct {
	Channel        string         `json:"channel"`
	Sender         string         `json:"sender"`
	TokenType      string         `json:"token_type"`
	TokenLength    int            `json:"token_length"`
	ExpirationTime int            `json:"expiration_time"`
	MobileNumber   string         `json:"customer_mobile_number"`
	MetaData       gatewayOTPMeta `json:"meta_data"`
	Token          string         `json:"token"`
}

type gatewayOTPMeta struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// SendOTP posts the pre-generated code to the gateway for SMS delivery.
func (s *GatewaySMSSender) SendOTP(ctx context.Context, phoneNumber string, meta OTPMetadata, code string) error {
	payload := gatewayOTPRequest{
		Channel:        "sms",
		Sender:         s.cfg.SenderID,
		TokenType:      "numeric",
		TokenLength:    len(code),
		ExpirationTime: 1,
		MobileNumber:   phoneNumber,
		MetaData:       gatewayOTPMeta{FirstName: meta.FirstName, LastName: meta.LastName},
		Token:          code,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode otp request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/verification/create", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build otp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) // nolint:errcheck

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("send otp: gateway returned %d", resp.StatusCode)
	}
	return nil
}
