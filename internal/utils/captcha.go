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
)

const DefaultCaptchaURL = "https://smartcaptcha.yandexcloud.net/validate"

// ErrCaptchaUnavailable covers transport failures and non-200 answers.
var ErrCaptchaUnavailable = errors.New("captcha service error")

// CaptchaResult mirrors the SmartCaptcha validate response.
type CaptchaResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Host    string `json:"host"`
}

func (r *CaptchaResult) OK() bool {
	return r != nil && r.Status == "ok"
}

// CaptchaClient talks to Yandex SmartCaptcha.
type CaptchaClient struct {
	ServerKey string
	URL       string
	HTTP      *http.Client
}

func NewCaptchaClient(serverKey, endpoint string, timeout time.Duration) *CaptchaClient {
	if endpoint == "" {
		endpoint = DefaultCaptchaURL
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &CaptchaClient{
		ServerKey: serverKey,
		URL:       endpoint,
		HTTP:      &http.Client{Timeout: timeout},
	}
}

// Validate checks token. A non-ok verdict is returned as a result, not an
// error; errors always wrap ErrCaptchaUnavailable.
func (c *CaptchaClient) Validate(ctx context.Context, token, ip string) (*CaptchaResult, error) {
	form := url.Values{
		"secret": {c.ServerKey},
		"token":  {token},
	}
	if ip != "" {
		form.Set("ip", ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrCaptchaUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptchaUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrCaptchaUnavailable, resp.StatusCode)
	}

	var result CaptchaResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrCaptchaUnavailable, err)
	}
	return &result, nil
}
