package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5"
)

// normalizeURL turns the accepted remote spellings into an http(s) URL:
//
//	https://example.com/user/repo.git  -> unchanged
//	git@example.com:user/repo.git      -> https://example.com/user/repo.git
//	user/repo                          -> https://github.com/user/repo
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "git@") {
		host, path, ok := strings.Cut(strings.TrimPrefix(raw, "git@"), ":")
		if !ok || host == "" || path == "" {
			return "", fmt.Errorf("invalid SSH URL format: %s", raw)
		}
		return fmt.Sprintf("https://%s/%s", host, strings.TrimPrefix(path, "/")), nil
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		if u.Host == "" {
			return "", fmt.Errorf("invalid URL %q: missing host", raw)
		}
		return u.String(), nil
	}

	// GitHub shorthand
	if strings.Count(raw, "/") == 1 && !strings.Contains(raw, ":") && !strings.HasPrefix(raw, "/") {
		return "https://github.com/" + raw, nil
	}

	return "", fmt.Errorf("unsupported URL format: %s", raw)
}

// directoryFromURL picks the clone directory the way git does:
// "https://example.com/user/repo.git" -> "repo", "git@example.com:repo" -> "repo"
func directoryFromURL(rawURL string) string {
	name := strings.TrimRight(rawURL, "/")
	name = strings.TrimSuffix(name, ".git")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "repository"
	}
	return name
}

// openRepository finds the repository containing dir, walking up like git
func openRepository(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	return repo, nil
}

// remoteURL returns the first URL configured for the named remote
func remoteURL(repo *git.Repository, name string) (string, error) {
	remote, err := repo.Remote(name)
	if err != nil {
		return "", fmt.Errorf("remote '%s' does not exist", name)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote '%s' has no URL", name)
	}
	return urls[0], nil
}
