// Package netx is the JSON-over-HTTP plumbing shared by the journal's remote
// backends.
package netx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Racej255/CrosslandApocalypse/internal/common"
)

// maxErrorBody caps how much of a failed response is kept for the error.
const maxErrorBody = 4 << 10

// Request describes one JSON call.
type Request struct {
	Method string
	URL    string
	Header http.Header

	// Body is JSON-encoded when non-nil.
	Body any
}

// Response is a decoded-on-demand JSON response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the response body into v. Malformed JSON is reported
// as *common.ParseError.
func (r *Response) Decode(source string, v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &common.ParseError{Source: source, Err: err}
	}
	return nil
}

// Do sends req and reads the whole response. Network failures and non-2xx
// statuses come back as *common.TransportError; for the latter the response
// is returned as well so callers can look at the status.
func Do(ctx context.Context, hc *http.Client, op string, req Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, &common.TransportError{Op: op, Err: err}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, &common.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		out.Body, _ = io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return out, &common.TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(out.Body)),
		}
	}

	out.Body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, &common.TransportError{Op: op, Err: err}
	}
	return out, nil
}
