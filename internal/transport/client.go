package transport

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

//go:generate mockgen -destination=mocks/mock_doer.go -package=mocks -source=client.go Doer

// Version is reported in the User-Agent header
var Version = "0.1.0"

// Doer sends a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// UserAgent returns the User-Agent sent with every request
func UserAgent() string {
	return fmt.Sprintf("git/1.0 (smarthttp %s)", Version)
}

// NewHTTPClient returns a client with its own transport and keep-alives off,
// so every exchange runs on a fresh connection
func NewHTTPClient() *http.Client {
	return cleanhttp.DefaultClient()
}

// NewHTTPClientWithHeaderTimeout is NewHTTPClient with a bound on the wait for
// response headers. Reading the body is not bounded: pack responses are read
// incrementally by the caller and may stream for a long time. Zero disables it.
func NewHTTPClientWithHeaderTimeout(timeout time.Duration) *http.Client {
	t := cleanhttp.DefaultTransport()
	t.ResponseHeaderTimeout = timeout
	return &http.Client{Transport: t}
}
