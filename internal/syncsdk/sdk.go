package syncsdk

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"github.com/openmined/dirsync/internal/version"
)

const (
	retryMinWait = 500 * time.Millisecond
	retryMaxWait = 5 * time.Second
)

// Client talks to a dirsync server
type Client struct {
	client *req.Client
	config *Config
}

// New creates a new Client
func New(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	client := req.C().
		SetBaseURL(strings.TrimRight(config.BaseURL, "/")).
		SetTimeout(timeout).
		SetUserAgent(version.UserAgent()).
		SetCommonHeader(HeaderDirsyncVersion, version.Version).
		SetCommonErrorResult(&APIError{}).
		SetCommonRetryCount(config.RetryCount).
		SetCommonRetryBackoffInterval(retryMinWait, retryMaxWait).
		SetCommonRetryCondition(shouldRetry).
		AddCommonRetryHook(func(resp *req.Response, err error) {
			slog.Debug("sdk retry", "url", resp.Request.RawURL, "status", resp.GetStatusCode(), "error", err)
		}).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	return &Client{
		client: client,
		config: config,
	}, nil
}

// ChunkSize returns the configured chunk size
func (c *Client) ChunkSize() int {
	return c.config.ChunkSize
}

// shouldRetry retries transport errors, rate limits and server failures,
// unless the caller gave up
func shouldRetry(resp *req.Response, err error) bool {
	if resp != nil && resp.Request != nil && resp.Request.Context().Err() != nil {
		return false
	}
	if err != nil {
		return true
	}
	status := resp.GetStatusCode()
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
