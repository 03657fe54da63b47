package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-logr/logr"
)

type streamState int

const (
	// stateIdle: no request sent; a payload may be buffered
	stateIdle streamState = iota
	// stateExecuted: response validated, body open
	stateExecuted
	// stateClosed: body drained or stream closed
	stateClosed
	// stateFailed: the exchange failed; err holds the reason
	stateFailed
)

var errNotAbsolute = errors.New("url is not absolute")

// Stream is the duplex byte stream for one action. The request is deferred
// until the first Read and is sent at most once, carrying the single payload
// passed to Write, if any.
//
// A Stream is not safe for concurrent use.
type Stream struct {
	ctx       context.Context
	route     Route
	base      *baseURL
	client    Doer
	logger    logr.Logger
	metrics   *Metrics
	userAgent string

	state    streamState
	executed bool
	written  bool
	payload  []byte
	url      string
	body     io.ReadCloser
	err      error
}

// Write buffers p as the request body. Only one write is accepted, and only
// before the request has been sent.
func (s *Stream) Write(p []byte) (int, error) {
	if s.executed {
		return 0, newAlreadyExecutedError(s.url)
	}
	if s.state == stateClosed {
		return 0, newClosedError(s.url)
	}
	if s.written {
		return 0, newAlreadyExecutedError(s.url)
	}
	s.payload = append([]byte(nil), p...)
	s.written = true
	return len(p), nil
}

// Read sends the request on first use, then reads the response body.
// It returns io.EOF once the body is exhausted.
func (s *Stream) Read(p []byte) (int, error) {
	if s.state == stateIdle {
		if err := s.execute(); err != nil {
			return 0, err
		}
	}

	switch s.state {
	case stateFailed:
		return 0, s.err
	case stateClosed:
		return 0, io.EOF
	}

	n, err := s.body.Read(p)
	if err == io.EOF {
		s.release()
		s.state = stateClosed
	}
	return n, err
}

// Flush is a no-op; the payload is sent as a whole on the first Read
func (*Stream) Flush() error {
	return nil
}

// Close releases the response body. It is safe to call more than once.
func (s *Stream) Close() error {
	s.release()
	if s.state != stateFailed {
		s.state = stateClosed
	}
	return nil
}

func (s *Stream) release() {
	if s.body != nil {
		_ = s.body.Close()
		s.body = nil
	}
}

// execute sends the request and validates the response headers
func (s *Stream) execute() error {
	if s.executed {
		return newAlreadyExecutedError(s.url)
	}
	if s.state == stateClosed {
		return newClosedError(s.url)
	}
	s.executed = true

	start := time.Now()
	body, err := s.exchange()
	s.metrics.observe(s.route, err, time.Since(start))
	if err != nil {
		s.state = stateFailed
		s.err = err
		s.logger.Error(err, "request failed", "method", s.route.Method, "url", s.url, "kind", KindOf(err))
		return err
	}

	s.body = body
	s.state = stateExecuted
	return nil
}

func (s *Stream) exchange() (io.ReadCloser, error) {
	s.url = s.base.get() + s.route.Path

	// Parse the URL to figure out the host
	parsed, err := url.Parse(s.url)
	if err != nil {
		return nil, newInvalidURLError(s.url, err)
	}
	if !parsed.IsAbs() {
		return nil, newInvalidURLError(s.url, errNotAbsolute)
	}
	// "http://:8080" has a Host but no hostname
	if parsed.Hostname() == "" {
		return nil, newMissingHostError(s.url)
	}

	body := io.Reader(http.NoBody)
	if len(s.payload) > 0 {
		body = bytes.NewReader(s.payload)
	}

	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, s.route.Method, s.url, body)
	if err != nil {
		return nil, newInvalidURLError(s.url, err)
	}

	req.Host = parsed.Host
	req.Header.Set("User-Agent", s.userAgent)
	// The body is already in memory; skip 100-continue
	req.Header.Set("Expect", "")
	if len(s.payload) == 0 {
		req.Header.Set("Accept", "*/*")
	} else {
		req.Header.Set("Accept", s.route.resultType())
		req.Header.Set("Content-Type", s.route.requestType())
	}

	s.logger.V(1).Info("request", "method", s.route.Method, "url", s.url, "bytes", len(s.payload))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		closeBody(resp)
		return nil, newUnexpectedStatusError(s.url, resp.StatusCode)
	}

	// Check returned headers
	expected := s.route.responseType()
	contentType := resp.Header.Values("Content-Type")
	if len(contentType) == 0 {
		closeBody(resp)
		return nil, newMissingContentTypeError(s.url, expected)
	}
	if contentType[0] != expected {
		closeBody(resp)
		return nil, newContentTypeMismatchError(s.url, expected, contentType[0])
	}

	return resp.Body, nil
}

func closeBody(resp *http.Response) {
	if resp.Body != nil {
		_ = resp.Body.Close()
	}
}
