package utils

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"github.com/zotexmedia/verification/verifier"
)

// ListFeedConfig names the upstream reference feeds.
type ListFeedConfig struct {
	DisposableURL string
	RoleURL       string
	TypoURL       string
	FetchTimeout  time.Duration
}

// ListFeed serves the classifier's reference lists and refreshes them from
// public feeds. A failed fetch keeps whatever was served before (the
// built-in lists at worst), so refresh trouble never blocks verification.
type ListFeed struct {
	config ListFeedConfig
	client *fasthttp.Client
	logger *logrus.Logger

	mu      sync.RWMutex
	current *verifier.Lists
}

func NewListFeed(cfg ListFeedConfig, logger *logrus.Logger) *ListFeed {
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ListFeed{
		config: cfg,
		client: &fasthttp.Client{
			ReadTimeout:  cfg.FetchTimeout,
			WriteTimeout: cfg.FetchTimeout,
		},
		logger:  logger,
		current: verifier.DefaultLists(),
	}
}

// Lists implements verifier.ListProvider.
func (f *ListFeed) Lists() *verifier.Lists {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// Refresh fetches all three feeds and swaps in the result. Each feed falls
// back independently to the previously served data on failure, and an
// empty feed never replaces a populated list.
func (f *ListFeed) Refresh() error {
	previous := f.Lists()
	next := &verifier.Lists{
		Disposable: previous.Disposable,
		Role:       previous.Role,
		Typos:      previous.Typos,
	}

	var failures []string

	if body, err := f.fetch(f.config.DisposableURL); err != nil {
		failures = append(failures, "disposable: "+err.Error())
	} else if set := ParseDisposableList(string(body)); len(set) > 0 {
		next.Disposable = set
	}

	if body, err := f.fetch(f.config.RoleURL); err != nil {
		failures = append(failures, "role: "+err.Error())
	} else if set, err := ParseRoleList(body); err != nil {
		failures = append(failures, "role: "+err.Error())
	} else if len(set) > 0 {
		next.Role = set
	}

	if body, err := f.fetch(f.config.TypoURL); err != nil {
		failures = append(failures, "typo: "+err.Error())
	} else if mapping := ParseTypoList(string(body)); len(mapping) > 0 {
		next.Typos = mapping
	}

	f.mu.Lock()
	f.current = next
	f.mu.Unlock()

	if len(failures) > 0 {
		err := fmt.Errorf("list refresh incomplete: %s", strings.Join(failures, "; "))
		f.logger.WithField("failures", len(failures)).Warn(err.Error())
		return err
	}
	return nil
}

func (f *ListFeed) fetch(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("no URL configured")
	}
	statusCode, body, err := f.client.GetTimeout(nil, url, f.config.FetchTimeout)
	if err != nil {
		return nil, err
	}
	if statusCode != fasthttp.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", statusCode)
	}
	return body, nil
}

// ParseDisposableList parses a plain-text blocklist, one domain per line.
// Blank lines and '#' comments are skipped.
func ParseDisposableList(body string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[strings.ToLower(line)] = struct{}{}
	}
	return set
}

// ParseRoleList parses a JSON array of role local parts.
func ParseRoleList(body []byte) (map[string]struct{}, error) {
	var entries []string
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry != "" {
			set[entry] = struct{}{}
		}
	}
	return set, nil
}

// ParseTypoList parses "wrong:right" lines into a correction map.
func ParseTypoList(body string) map[string]string {
	mapping := make(map[string]string)
	for _, line := range strings.Split(body, "\n") {
		wrong, right, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		wrong = strings.ToLower(strings.TrimSpace(wrong))
		right = strings.ToLower(strings.TrimSpace(right))
		if wrong != "" && right != "" {
			mapping[wrong] = right
		}
	}
	return mapping
}
