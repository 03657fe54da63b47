package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestNewSession(t *testing.T) {
	session := NewSession()

	assert.NotNil(t, session)
	assert.NotNil(t, session.client)
	assert.Equal(t, UserAgent(), session.userAgent)
	assert.Empty(t, session.BaseURL())
	assert.NoError(t, session.Close())
}

func TestSession_BaseURLFixedByFirstAction(t *testing.T) {
	session, doer := newMockSession(t)

	gomock.InOrder(
		doer.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "https://first.example/team/repo.git/info/refs?service=git-upload-pack", req.URL.String())
			return response(http.StatusOK, "application/x-git-upload-pack-advertisement", "0000"), nil
		}),
		doer.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "https://first.example/team/repo.git/git-upload-pack", req.URL.String())
			assert.Equal(t, "first.example", req.Host)
			return response(http.StatusOK, "application/x-git-upload-pack-result", "0008NAK\n"), nil
		}),
	)

	ctx := context.Background()
	first := session.Perform(ctx, "https://first.example/team/repo.git", AdvertiseUploadPack)
	_, err := io.ReadAll(first)
	require.NoError(t, err)
	assert.Equal(t, "https://first.example/team/repo.git", session.BaseURL())

	second := session.Perform(ctx, "https://second.example/other.git", ExecuteUploadPack)
	_, err = second.Write([]byte("0009done\n"))
	require.NoError(t, err)
	_, err = io.ReadAll(second)
	require.NoError(t, err)

	assert.Equal(t, "https://first.example/team/repo.git", session.BaseURL())
}

func TestSession_BaseURLResolvedBeforeExecution(t *testing.T) {
	session, _ := newMockSession(t)

	// Perform alone fixes the base URL; no request is sent
	session.Perform(context.Background(), "https://example.test/a.git", AdvertiseReceivePack)
	session.Perform(context.Background(), "https://example.test/b.git", ExecuteReceivePack)

	assert.Equal(t, "https://example.test/a.git", session.BaseURL())
}

func TestSession_ConcurrentFirstActions(t *testing.T) {
	session, _ := newMockSession(t)

	const workers = 16
	candidates := make(map[string]bool, workers)
	for i := 0; i < workers; i++ {
		candidates[fmt.Sprintf("https://example.test/repo-%d.git", i)] = true
	}

	var wg sync.WaitGroup
	streams := make([]*Stream, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			streams[i] = session.Perform(context.Background(), fmt.Sprintf("https://example.test/repo-%d.git", i), AdvertiseUploadPack)
		}(i)
	}
	wg.Wait()

	resolved := session.BaseURL()
	assert.True(t, candidates[resolved], "resolved base %q must be one of the candidates", resolved)
	for _, stream := range streams {
		assert.Same(t, session.base, stream.base)
	}
}

// A redirect on the first exchange does not move the session: the base URL is
// captured once from the first action and never revised.
func TestSession_RedirectDoesNotMoveBaseURL(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()

		switch {
		case r.URL.Path == "/old/info/refs":
			http.Redirect(w, r, "/new/info/refs?"+r.URL.RawQuery, http.StatusMovedPermanently)
		case r.URL.Path == "/new/info/refs":
			w.Header().Set("Content-Type", "application/x-git-upload-pack-advertisement")
			w.Write([]byte("001e# service=git-upload-pack\n0000"))
		case strings.HasSuffix(r.URL.Path, "/git-upload-pack"):
			w.Header().Set("Content-Type", "application/x-git-upload-pack-result")
			w.Write([]byte("0008NAK\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	session := NewSession()
	ctx := context.Background()

	advert := session.Perform(ctx, server.URL+"/old", AdvertiseUploadPack)
	got, err := io.ReadAll(advert)
	require.NoError(t, err)
	assert.Equal(t, "001e# service=git-upload-pack\n0000", string(got))

	pack := session.Perform(ctx, server.URL+"/new", ExecuteUploadPack)
	_, err = pack.Write([]byte("0009done\n"))
	require.NoError(t, err)
	_, err = io.ReadAll(pack)
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/old", session.BaseURL())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"GET /old/info/refs",
		"GET /new/info/refs",
		"POST /old/git-upload-pack",
	}, paths)
}

func TestSession_LogsActions(t *testing.T) {
	var (
		mu    sync.Mutex
		lines []string
	)
	logger := funcr.New(func(prefix, args string) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, args)
	}, funcr.Options{Verbosity: 1})

	session, doer := newMockSession(t, WithLogger(logger))
	doer.EXPECT().Do(gomock.Any()).Return(response(http.StatusNotFound, "", ""), nil)

	stream := session.Perform(context.Background(), "https://example.test/repo.git", AdvertiseUploadPack)
	_, err := stream.Read(make([]byte, 4))
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"msg"="action"`)
	assert.Contains(t, lines[0], `"service"="upload-pack"`)
	assert.Contains(t, lines[1], `"msg"="request"`)
	assert.Contains(t, lines[2], `"msg"="request failed"`)
	assert.Contains(t, lines[2], `"kind"="unexpected_status"`)
}
