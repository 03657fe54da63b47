package smarthttp

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/pktline"
	"github.com/go-git/go-git/v5/plumbing/transport/client"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/smarthttp/internal/gogit"
	"github.com/fenilsonani/smarthttp/internal/transport"
)

const mainHash = "6ecf0ef2c2dffb796033e5a02219af86ec6584e5"

// Register mutates go-git's global protocol table, so it runs once for the
// whole package and every test checks the same state.
var (
	registerOnce sync.Once
	userAgent    = "smarthttp-test/1.0"
)

func register(t *testing.T) {
	t.Helper()
	registerOnce.Do(func() {
		require.True(t, Register(transport.WithUserAgent(userAgent)))
	})
}

func TestRegister_Idempotent(t *testing.T) {
	register(t)

	assert.True(t, Registered())
	assert.False(t, Register())
	assert.False(t, Register(transport.WithUserAgent("ignored")))

	for _, scheme := range Schemes {
		assert.IsType(t, &gogit.Transport{}, client.Protocols[scheme], scheme)
	}
}

func TestRegister_Concurrent(t *testing.T) {
	register(t)

	var wg sync.WaitGroup
	var installed atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if Register() {
				installed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(0), installed.Load())
}

func uploadPackAdvertisement(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	e := pktline.NewEncoder(&buf)
	require.NoError(t, e.EncodeString("# service=git-upload-pack\n"))
	require.NoError(t, e.Flush())
	require.NoError(t, e.EncodeString(mainHash+" HEAD\x00side-band-64k ofs-delta symref=HEAD:refs/heads/main\n"))
	require.NoError(t, e.EncodeString(mainHash+" refs/heads/main\n"))
	require.NoError(t, e.Flush())
	return buf.Bytes()
}

func listRemote(t *testing.T, url string) []*plumbing.Reference {
	t.Helper()
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})
	refs, err := remote.ListContext(context.Background(), &git.ListOptions{})
	require.NoError(t, err)
	return refs
}

func TestRegister_ListRemote(t *testing.T) {
	register(t)
	body := uploadPackAdvertisement(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repo.git/info/refs", r.URL.Path)
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/x-git-upload-pack-advertisement")
		w.Write(body)
	}))
	defer server.Close()

	refs := listRemote(t, server.URL+"/repo.git")

	byName := make(map[plumbing.ReferenceName]*plumbing.Reference)
	for _, ref := range refs {
		byName[ref.Name()] = ref
	}
	require.Contains(t, byName, plumbing.NewBranchReferenceName("main"))
	assert.Equal(t, plumbing.NewHash(mainHash), byName[plumbing.NewBranchReferenceName("main")].Hash())
}

func TestConfigure_AppliesToLaterSessions(t *testing.T) {
	register(t)
	t.Cleanup(func() { Configure(transport.WithUserAgent(userAgent)) })
	body := uploadPackAdvertisement(t)

	var (
		mu     sync.Mutex
		agents []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.Header.Get("User-Agent"))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/x-git-upload-pack-advertisement")
		w.Write(body)
	}))
	defer server.Close()

	Configure(transport.WithUserAgent("first/1.0"))
	listRemote(t, server.URL+"/repo.git")

	// a second Register must not touch the options
	assert.False(t, Register(transport.WithUserAgent("ignored")))

	Configure(transport.WithUserAgent("second/2.0"))
	listRemote(t, server.URL+"/repo.git")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first/1.0", "second/2.0"}, agents)
}
