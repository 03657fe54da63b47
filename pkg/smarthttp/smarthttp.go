// Package smarthttp registers the smart HTTP adapter with go-git.
//
// After Register, every go-git operation against an http:// or https://
// remote (clone, fetch, push, ls-remote) runs through this module's
// transport instead of go-git's built-in HTTP client:
//
//	smarthttp.Register()
//	repo, err := git.PlainClone(dir, false, &git.CloneOptions{URL: "https://example.com/repo.git"})
package smarthttp

import (
	"sync"

	"github.com/go-git/go-git/v5/plumbing/transport/client"

	"github.com/fenilsonani/smarthttp/internal/gogit"
	"github.com/fenilsonani/smarthttp/internal/transport"
)

// Schemes are the URL schemes the adapter is installed for
var Schemes = []string{"http", "https"}

var (
	mu         sync.Mutex
	registered bool
	current    []transport.Option
)

// Register installs the adapter for http and https. Only the first call in a
// process takes effect; it reports whether this call did the installation.
// The first call's opts become the session options. Later calls leave them
// alone; Configure replaces them.
func Register(opts ...transport.Option) bool {
	mu.Lock()
	defer mu.Unlock()

	if registered {
		return false
	}

	current = opts
	t := gogit.NewTransportFunc(options)
	for _, scheme := range Schemes {
		client.InstallProtocol(scheme, t)
	}
	registered = true
	return true
}

// Configure replaces the options applied to sessions the adapter opens from
// now on. Sessions already open keep the options they were created with.
func Configure(opts ...transport.Option) {
	mu.Lock()
	defer mu.Unlock()
	current = opts
}

func options() []transport.Option {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// Registered reports whether Register has run
func Registered() bool {
	mu.Lock()
	defer mu.Unlock()
	return registered
}
