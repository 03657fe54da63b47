package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/pktline"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mainHash = "6ecf0ef2c2dffb796033e5a02219af86ec6584e5"
	tagHash  = "1a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d"
	zeroHash = "0000000000000000000000000000000000000000"

	uploadPackAdvertisement  = "application/x-git-upload-pack-advertisement"
	receivePackAdvertisement = "application/x-git-receive-pack-advertisement"
	receivePackResult        = "application/x-git-receive-pack-result"
)

// route is a canned answer for one "METHOD /path?query" of the fake server
type route struct {
	status      int
	contentType string
	body        []byte
	check       func(t *testing.T, r *http.Request, body []byte)
}

type gitServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
}

func newGitServer(t *testing.T, routes map[string]route) *gitServer {
	t.Helper()
	s := &gitServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.RequestURI()
		s.mu.Lock()
		s.requests = append(s.requests, key)
		s.mu.Unlock()

		rt, ok := routes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		if rt.check != nil {
			rt.check(t, r, body)
		}

		status := rt.status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", rt.contentType)
		w.WriteHeader(status)
		w.Write(rt.body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *gitServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// pkt frames lines as pkt-lines; an empty string becomes a flush-pkt
func pkt(t *testing.T, lines ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	e := pktline.NewEncoder(&buf)
	for _, line := range lines {
		if line == "" {
			require.NoError(t, e.Flush())
			continue
		}
		require.NoError(t, e.EncodeString(line))
	}
	return buf.Bytes()
}

func advertisement(t *testing.T, service string, refs ...string) []byte {
	t.Helper()
	lines := append([]string{"# service=git-" + service + "\n", ""}, refs...)
	return pkt(t, append(lines, "")...)
}

// execute runs the CLI in-process with an isolated HOME and returns stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SMARTHTTP_CONFIG", "")

	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

// initRepo creates a repository on main with a single commit
func initRepo(t *testing.T) (*git.Repository, string, plumbing.Hash) {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# demo\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)

	hash, err := wt.Commit("initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(t, err)

	return repo, dir, hash
}
