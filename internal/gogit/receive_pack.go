package gogit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-git/go-git/v5/plumbing/protocol/packp"
	"github.com/go-git/go-git/v5/plumbing/protocol/packp/capability"
	"github.com/go-git/go-git/v5/plumbing/protocol/packp/sideband"
	"github.com/go-git/go-git/v5/utils/ioutil"

	"github.com/fenilsonani/smarthttp/internal/transport"
)

type rpSession struct {
	*session
}

func (s *rpSession) AdvertisedReferences() (*packp.AdvRefs, error) {
	return s.AdvertisedReferencesContext(context.TODO())
}

func (s *rpSession) AdvertisedReferencesContext(ctx context.Context) (*packp.AdvRefs, error) {
	return s.advertisedReferences(ctx, transport.AdvertiseReceivePack)
}

// ReceivePack sends the ref update commands and packfile in one request.
// A server that does not report status answers with an empty body, in which
// case the returned report is nil.
func (s *rpSession) ReceivePack(ctx context.Context, req *packp.ReferenceUpdateRequest) (*packp.ReportStatus, error) {
	var buf bytes.Buffer
	if err := req.Encode(&buf); err != nil {
		return nil, err
	}

	stream := s.smart.Perform(ctx, s.url(), transport.ExecuteReceivePack)
	defer stream.Close()

	if _, err := stream.Write(buf.Bytes()); err != nil {
		return nil, err
	}

	r, err := ioutil.NonEmptyReader(stream)
	if errors.Is(err, ioutil.ErrEmptyReader) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}

	r = demux(req, r)

	report := packp.NewReportStatus()
	if err := report.Decode(r); err != nil {
		return nil, fmt.Errorf("error decoding report-status: %w", err)
	}
	return report, report.Error()
}

// demux strips the sideband framing negotiated in the request, if any
func demux(req *packp.ReferenceUpdateRequest, r io.Reader) io.Reader {
	var d *sideband.Demuxer
	switch {
	case req.Capabilities.Supports(capability.Sideband64k):
		d = sideband.NewDemuxer(sideband.Sideband64k, r)
	case req.Capabilities.Supports(capability.Sideband):
		d = sideband.NewDemuxer(sideband.Sideband, r)
	default:
		return r
	}
	d.Progress = req.Progress
	return d
}
