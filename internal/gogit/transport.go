// Package gogit plugs the smart HTTP streams into go-git as a
// plumbing/transport.Transport, so go-git's fetch, clone and push run their
// HTTP exchanges through a transport.Session.
package gogit

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gittransport "github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/protocol/packp"

	"github.com/fenilsonani/smarthttp/internal/transport"
)

var _ gittransport.Transport = (*Transport)(nil)

// Transport is a go-git transport backed by smart HTTP sessions
type Transport struct {
	options func() []transport.Option
}

// NewTransport creates a Transport; opts are applied to every session it opens
func NewTransport(opts ...transport.Option) *Transport {
	return NewTransportFunc(func() []transport.Option { return opts })
}

// NewTransportFunc creates a Transport that asks options for the session
// options each time it opens a session
func NewTransportFunc(options func() []transport.Option) *Transport {
	return &Transport{options: options}
}

// NewUploadPackSession opens a fetch session. Credentials are not used.
func (t *Transport) NewUploadPackSession(ep *gittransport.Endpoint, _ gittransport.AuthMethod) (gittransport.UploadPackSession, error) {
	return &upSession{session: t.newSession(ep)}, nil
}

// NewReceivePackSession opens a push session. Credentials are not used.
func (t *Transport) NewReceivePackSession(ep *gittransport.Endpoint, _ gittransport.AuthMethod) (gittransport.ReceivePackSession, error) {
	return &rpSession{session: t.newSession(ep)}, nil
}

func (t *Transport) newSession(ep *gittransport.Endpoint) *session {
	return &session{
		smart:    transport.NewSession(t.options()...),
		endpoint: ep,
	}
}

// session holds what upload-pack and receive-pack sessions share
type session struct {
	smart    *transport.Session
	endpoint *gittransport.Endpoint
	advRefs  *packp.AdvRefs
}

func (s *session) url() string {
	return s.endpoint.String()
}

// advertisedReferences fetches and decodes the ref advertisement once per session
func (s *session) advertisedReferences(ctx context.Context, action transport.Action) (*packp.AdvRefs, error) {
	if s.advRefs != nil {
		return s.advRefs, nil
	}

	stream := s.smart.Perform(ctx, s.url(), action)
	defer stream.Close()

	ar := packp.NewAdvRefs()
	if err := ar.Decode(stream); err != nil {
		if errors.Is(err, packp.ErrEmptyAdvRefs) {
			return nil, gittransport.ErrEmptyRemoteRepository
		}
		return nil, translate(err)
	}

	// Git 2.41+ answers an empty repository with a zero id plus capabilities.
	// That is still a valid target for a push.
	if ar.IsEmpty() && action == transport.AdvertiseUploadPack {
		return nil, gittransport.ErrEmptyRemoteRepository
	}

	gittransport.FilterUnsupportedCapabilities(ar.Capabilities)
	s.advRefs = ar
	return ar, nil
}

func (s *session) Close() error {
	return s.smart.Close()
}

// translate attaches go-git's well-known errors to status failures so that
// callers such as git.PlainClone recognise them
func translate(err error) error {
	switch transport.StatusCode(err) {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", gittransport.ErrAuthenticationRequired, err)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %w", gittransport.ErrAuthorizationFailed, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", gittransport.ErrRepositoryNotFound, err)
	}
	return err
}
