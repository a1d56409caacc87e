// Package transport sends requests to the CortexDesk backend and classifies
// failures into a stable error taxonomy. It never retries.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout is the default ceiling for a request. Backend operations
// include document parsing and model inference, so it is minutes long.
const DefaultTimeout = 5 * time.Minute

// Part is one file in a multipart request.
type Part struct {
	Field    string
	Filename string
	Content  io.Reader
}

// Request describes a single backend call.
type Request struct {
	Method string
	// BaseURL overrides the client's base URL for this request.
	BaseURL string
	Path    string
	Query   url.Values
	// JSON is encoded as the request body. Mutually exclusive with Parts.
	JSON  any
	Parts []Part
	// Credential is sent as a bearer token when non-empty.
	Credential string
	// Timeout overrides the client's ceiling when positive.
	Timeout time.Duration
}

// Response is a successful (2xx/3xx) backend response.
type Response struct {
	Status int
	Body   []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Client wraps HTTP calls to the backend.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a client rooted at baseURL. A non-positive timeout
// selects DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.httpClient = h
	return c
}

// BaseURL returns the client's base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send performs req. Non-2xx/3xx responses and transport failures are
// returned as *Error. Cancellation of ctx by the caller is returned as the
// context's error.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	timeout := c.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	base := c.baseURL
	if req.BaseURL != "" {
		base = strings.TrimRight(req.BaseURL, "/")
	}
	u := base + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, req.Method, u, body)
	if err != nil {
		if rc, ok := body.(io.Closer); ok {
			rc.Close()
		}
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.New().String())
	if req.Credential != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Credential)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
			return nil, ctxErr
		}
		return nil, c.classify(req, base, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
			return nil, ctxErr
		}
		return nil, c.classify(req, base, err)
	}

	if resp.StatusCode >= 400 {
		detail := extractDetail(data)
		kind := KindClient
		sentinel := ErrClient
		if resp.StatusCode >= 500 {
			kind = KindServer
			sentinel = ErrServer
		}
		return nil, &Error{
			Kind:    kind,
			Method:  req.Method,
			Path:    req.Path,
			Status:  resp.StatusCode,
			Detail:  detail,
			Message: statusMessage(resp.StatusCode, detail),
			Err:     sentinel,
		}
	}

	return &Response{Status: resp.StatusCode, Body: data}, nil
}

// classify maps a failure with no HTTP response onto the taxonomy.
func (c *Client) classify(req *Request, base string, err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{
			Kind:    KindTimeout,
			Method:  req.Method,
			Path:    req.Path,
			Message: "request timeout - the server took too long to respond, please try again",
			Err:     err,
		}
	}
	return &Error{
		Kind:    KindUnreachable,
		Method:  req.Method,
		Path:    req.Path,
		Message: fmt.Sprintf("cannot connect to backend server at %s", base),
		Err:     err,
	}
}

func encodeBody(req *Request) (io.Reader, string, error) {
	switch {
	case len(req.Parts) > 0:
		return multipartBody(req.Parts)
	case req.JSON != nil:
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("encode body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	default:
		return nil, "", nil
	}
}

// multipartBody streams parts through a pipe so large files are not
// buffered in memory. The writer goroutine starts on the first Read, so a
// body that is never sent leaks nothing.
func multipartBody(parts []Part) (io.Reader, string, error) {
	for _, p := range parts {
		if p.Content == nil {
			return nil, "", fmt.Errorf("part %q has no content", p.Filename)
		}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	body := &multipartReader{pr: pr, write: func() {
		for _, p := range parts {
			w, err := mw.CreateFormFile(p.Field, p.Filename)
			if err != nil {
				pw.CloseWithError(err)
				return
			}
			if _, err := io.Copy(w, p.Content); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		pw.CloseWithError(mw.Close())
	}}
	return body, mw.FormDataContentType(), nil
}

type multipartReader struct {
	pr    *io.PipeReader
	write func()
	once  sync.Once
}

func (m *multipartReader) Read(p []byte) (int, error) {
	m.once.Do(func() { go m.write() })
	return m.pr.Read(p)
}

// Close unblocks a running writer; its next write fails with ErrClosedPipe.
func (m *multipartReader) Close() error {
	return m.pr.Close()
}

// extractDetail pulls a human-readable message from a structured error
// body: {"detail": "..."}, FastAPI validation lists, or {"error": "..."}.
func extractDetail(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
