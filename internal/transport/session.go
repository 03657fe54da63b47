package transport

import (
	"context"
	"sync"

	"github.com/go-logr/logr"
)

// baseURL is the remote origin shared by every stream of a session.
// It is set once, by the first action.
type baseURL struct {
	mu  sync.Mutex
	url string
}

// resolve stores candidate if nothing is stored yet and returns the stored value
func (b *baseURL) resolve(candidate string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.url == "" {
		b.url = candidate
	}
	return b.url
}

func (b *baseURL) get() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.url
}

// Session is one logical connection to a remote repository
type Session struct {
	client    Doer
	logger    logr.Logger
	metrics   *Metrics
	userAgent string
	base      *baseURL
}

// Option configures a Session
type Option func(*Session)

// WithHTTPClient sets the client used to send requests
func WithHTTPClient(client Doer) Option {
	return func(s *Session) {
		if client != nil {
			s.client = client
		}
	}
}

// WithLogger sets the session logger
func WithLogger(logger logr.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithMetrics records every exchange in m
func WithMetrics(m *Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(s *Session) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// NewSession creates a session with an empty base URL
func NewSession(opts ...Option) *Session {
	s := &Session{
		logger:    logr.Discard(),
		userAgent: UserAgent(),
		base:      &baseURL{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = NewHTTPClient()
	}
	return s
}

// Perform returns a new stream for action. The first call fixes the session's
// base URL to rawURL; later calls ignore rawURL and reuse it.
// ctx is attached to the request the stream eventually sends.
func (s *Session) Perform(ctx context.Context, rawURL string, action Action) *Stream {
	base := s.base.resolve(rawURL)
	route := action.Route()

	s.logger.Info("action", "service", route.Service, "path", route.Path, "base", base)

	return &Stream{
		ctx:       ctx,
		route:     route,
		base:      s.base,
		client:    s.client,
		logger:    s.logger,
		metrics:   s.metrics,
		userAgent: s.userAgent,
	}
}

// BaseURL returns the resolved base URL, empty before the first action
func (s *Session) BaseURL() string {
	return s.base.get()
}

// Close releases nothing; streams own their response bodies
func (*Session) Close() error {
	return nil
}
