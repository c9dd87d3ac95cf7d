package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	BlogsPath       = "/api/blogs"
	UseCasesPath    = "/api/usecases"
	CaseStudiesPath = "/api/casestudies"

	maxBodyBytes = 32 << 20
)

// StatusError 上游返回了非 2xx
type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.Path, e.StatusCode)
}

// Client 主站内容服务的 HTTP 客户端
type Client struct {
	baseURL         string
	http            *http.Client
	retryMaxElapsed time.Duration
}

type Option func(*Client)

// WithHTTPClient 替换底层 http.Client (测试用)
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithRetry 开启指数退避重试，maxElapsed 为 0 时只请求一次
func WithRetry(maxElapsed time.Duration) Option {
	return func(cl *Client) { cl.retryMaxElapsed = maxElapsed }
}

// NewClient 创建客户端，timeout 作用于每一次请求
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Blogs(ctx context.Context) ([]Blog, error) {
	var out []Blog
	if err := c.getList(ctx, BlogsPath, func(b []byte) error { return decodeList(b, &out) }); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UseCases(ctx context.Context) ([]UseCase, error) {
	var out []UseCase
	if err := c.getList(ctx, UseCasesPath, func(b []byte) error { return decodeList(b, &out) }); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CaseStudies(ctx context.Context) ([]CaseStudy, error) {
	var out []CaseStudy
	if err := c.getList(ctx, CaseStudiesPath, func(b []byte) error { return decodeList(b, &out) }); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getList(ctx context.Context, path string, decode func([]byte) error) error {
	op := func() error {
		body, err := c.get(ctx, path)
		if err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		if err := decode(body); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding %s: %w", path, err))
		}
		return nil
	}

	if c.retryMaxElapsed <= 0 {
		err := op()
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return perm.Err
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.retryMaxElapsed
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Path: path, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return body, nil
}

// isRetryable 4xx 视为永久错误，其余 (网络错误、5xx) 允许重试
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 || se.StatusCode == http.StatusTooManyRequests
	}
	return true
}
