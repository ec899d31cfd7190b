package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultSMSAeroURL = "https://gate.smsaero.ru/v2"

var ErrSMSGateway = errors.New("sms gateway error")

type SMSAeroResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		ID     int64  `json:"id"`
		Status int    `json:"status"`
		Number string `json:"number"`
	} `json:"data"`
}

// SMSAeroClient sends messages through the SMS Aero v2 gateway. With DryRun
// set nothing leaves the process and the message is logged instead.
type SMSAeroClient struct {
	Email   string
	APIKey  string
	Sign    string
	Channel string
	BaseURL string
	DryRun  bool

	HTTP *http.Client
	Log  *zap.Logger
}

func NewSMSAeroClient(email, apiKey, sign, channel, baseURL string, timeout time.Duration, dryRun bool, log *zap.Logger) *SMSAeroClient {
	if baseURL == "" {
		baseURL = DefaultSMSAeroURL
	}
	if channel == "" {
		channel = "DIRECT"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SMSAeroClient{
		Email:   email,
		APIKey:  apiKey,
		Sign:    sign,
		Channel: channel,
		BaseURL: strings.TrimRight(baseURL, "/"),
		DryRun:  dryRun,
		HTTP:    &http.Client{Timeout: timeout},
		Log:     log,
	}
}

// Send delivers text to phone. The gateway wants the number without "+".
func (c *SMSAeroClient) Send(ctx context.Context, phone, text string) error {
	number := strings.TrimPrefix(phone, "+")

	if c.DryRun || c.APIKey == "" || c.APIKey == "dry-run" {
		c.Log.Info("sms dry-run", zap.String("number", number), zap.String("sign", c.Sign), zap.String("text", text))
		return nil
	}

	q := url.Values{
		"number":  {number},
		"sign":    {c.Sign},
		"channel": {c.Channel},
		"text":    {text},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/sms/send?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrSMSGateway, err)
	}
	req.SetBasicAuth(c.Email, c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSMSGateway, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrSMSGateway, resp.StatusCode)
	}

	var result SMSAeroResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("%w: parse response: %v", ErrSMSGateway, err)
	}
	if !result.Success {
		return fmt.Errorf("%w: %s", ErrSMSGateway, result.Message)
	}

	c.Log.Debug("sms sent", zap.Int64("message_id", result.Data.ID), zap.Int("gateway_status", result.Data.Status))
	return nil
}
