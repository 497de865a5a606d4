package turnstile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultEndpoint Cloudflare Turnstile siteverify 接口
const DefaultEndpoint = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

type Client struct {
	endpoint  string
	secretKey string
	httpCli   *http.Client
}

type Option func(*Client)

func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

func WithHTTPClient(cli *http.Client) Option {
	return func(c *Client) {
		c.httpCli = cli
	}
}

func NewClient(secretKey string, opts ...Option) *Client {
	c := &Client{
		endpoint:  DefaultEndpoint,
		secretKey: secretKey,
		httpCli:   &http.Client{Timeout: time.Second * 3},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type verifyRequest struct {
	Secret   string `json:"secret"`
	Response string `json:"response"`
	RemoteIP string `json:"remoteip"`
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify 校验访客提交的 token，任何传输层失败都视为验证未通过并返回错误
func (c *Client) Verify(ctx context.Context, token, ip string) (bool, error) {
	body, err := json.Marshal(verifyRequest{
		Secret:   c.secretKey,
		Response: token,
		RemoteIP: ip,
	})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("turnstile siteverify status %d", resp.StatusCode)
	}

	var result verifyResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, err
	}

	return result.Success, nil
}
