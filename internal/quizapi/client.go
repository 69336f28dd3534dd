// Package quizapi is the HTTP client for the quiz service. It attaches bearer tokens,
// maps transport and HTTP failures into the error taxonomy and holds no session state.
package quizapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	"github.com/SAP-F-2025/classroom-session/internal/utils"
	"golang.org/x/oauth2"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 1 << 20

// Request describes one call. Token is attached as a bearer credential when non-empty.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	Token  string
	// Operation names the call in errors and logs; defaults to "METHOD path".
	Operation string
}

// ErrorBody is the structured failure the quiz service returns on non-2xx.
type ErrorBody struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  utils.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger utils.Logger) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout}, logger)
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client, logger utils.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

// Do performs req and decodes a 2xx body into out (skipped when out is nil).
func (c *Client) Do(ctx context.Context, req Request, out interface{}) error {
	operation := req.Operation
	if operation == "" {
		operation = req.Method + " " + req.Path
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	start := time.Now()
	resp, err := c.clientFor(req.Token).Do(httpReq)
	if err != nil {
		c.logger.LogRequest(ctx, req.Method, req.Path, 0, time.Since(start).String(), "error", err)
		return apperrors.FromTransport(err)
	}
	defer resp.Body.Close()
	c.logger.LogRequest(ctx, req.Method, req.Path, resp.StatusCode, time.Since(start).String())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeFailure(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if mapped := apperrors.FromTransport(err); apperrors.IsNetwork(mapped) || ctx.Err() != nil {
			return mapped
		}
		return &apperrors.DecodeError{Operation: operation, Err: err}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Token != "" || req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

// clientFor wraps the shared transport with a bearer token for a single call.
func (c *Client) clientFor(token string) *http.Client {
	if token == "" {
		return c.http
	}
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   base,
		},
		Timeout:       c.http.Timeout,
		CheckRedirect: c.http.CheckRedirect,
		Jar:           c.http.Jar,
	}
}

func decodeFailure(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		if mapped := apperrors.FromTransport(err); apperrors.IsNetwork(mapped) {
			return mapped
		}
	}

	var body ErrorBody
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		status := body.Status
		if status == 0 {
			status = resp.StatusCode
		}
		return apperrors.API(status, body.Error)
	}
	return apperrors.API(resp.StatusCode, http.StatusText(resp.StatusCode))
}
