package gogit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	gittransport "github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/format/pktline"
	"github.com/go-git/go-git/v5/plumbing/protocol/packp"
	"github.com/go-git/go-git/v5/utils/ioutil"

	"github.com/fenilsonani/smarthttp/internal/transport"
)

type upSession struct {
	*session
}

func (s *upSession) AdvertisedReferences() (*packp.AdvRefs, error) {
	return s.AdvertisedReferencesContext(context.TODO())
}

func (s *upSession) AdvertisedReferencesContext(ctx context.Context) (*packp.AdvRefs, error) {
	return s.advertisedReferences(ctx, transport.AdvertiseUploadPack)
}

// UploadPack sends wants, haves and "done" in a single request and returns
// the decoded server response, positioned at the start of the packfile
func (s *upSession) UploadPack(ctx context.Context, req *packp.UploadPackRequest) (*packp.UploadPackResponse, error) {
	if req.IsEmpty() {
		return nil, gittransport.ErrEmptyUploadPackRequest
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload, err := encodeUploadPackRequest(req)
	if err != nil {
		return nil, err
	}

	stream := s.smart.Perform(ctx, s.url(), transport.ExecuteUploadPack)
	if _, err := stream.Write(payload); err != nil {
		stream.Close()
		return nil, err
	}

	r, err := ioutil.NonEmptyReader(stream)
	if err != nil {
		stream.Close()
		if errors.Is(err, ioutil.ErrEmptyReader) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, gittransport.ErrEmptyUploadPackRequest
		}
		return nil, translate(err)
	}

	res := packp.NewUploadPackResponse(req)
	if err := res.Decode(ioutil.NewReadCloser(r, stream)); err != nil {
		stream.Close()
		return nil, fmt.Errorf("error decoding upload-pack response: %w", err)
	}
	return res, nil
}

func encodeUploadPackRequest(req *packp.UploadPackRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := req.UploadRequest.Encode(&buf); err != nil {
		return nil, fmt.Errorf("sending upload-req message: %w", err)
	}
	if err := req.UploadHaves.Encode(&buf, false); err != nil {
		return nil, fmt.Errorf("sending haves message: %w", err)
	}
	if err := pktline.NewEncoder(&buf).EncodeString("done\n"); err != nil {
		return nil, fmt.Errorf("sending done message: %w", err)
	}
	return buf.Bytes(), nil
}
