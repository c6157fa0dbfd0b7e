// Package fetchtool implements the fetch_url tool: a domain-restricted,
// size-bounded HTTP GET the researcher agent uses to pull the contents of
// a web page or API endpoint into context.
package fetchtool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/corvidrun/corvid/internal/httpclient"
	"github.com/corvidrun/corvid/internal/tool"
)

const description = `Fetches the contents of a URL over HTTP GET. Returns the response status, content type, and up to ~200KB of body text. Use for reading documentation pages, API responses, or other web content a task references.`

// Config bounds what fetch_url is allowed to reach and how much of a
// response it will return.
type Config struct {
	Timeout         time.Duration
	MaxRetries      int
	MaxResponseSize int64
	AllowedDomains  []string
	DeniedDomains   []string
	UserAgent       string
}

// DefaultConfig mirrors the teacher web_request tool's defaults, scaled
// down to a single read-only method.
func DefaultConfig() Config {
	return Config{
		Timeout:         20 * time.Second,
		MaxRetries:      2,
		MaxResponseSize: 200 * 1024,
		UserAgent:       "corvid-agent/1.0",
	}
}

// Tool is the fetch_url tool.
type Tool struct {
	cfg Config
	hc  *httpclient.Client
}

// New constructs the fetch_url tool. A zero Config applies DefaultConfig.
func New(cfg Config) *Tool {
	if cfg.Timeout == 0 && cfg.MaxResponseSize == 0 {
		allowed, denied := cfg.AllowedDomains, cfg.DeniedDomains
		cfg = DefaultConfig()
		cfg.AllowedDomains, cfg.DeniedDomains = allowed, denied
	}
	hc := httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		httpclient.WithMaxRetries(cfg.MaxRetries),
		httpclient.WithHeaderParser(httpclient.ParseStandardHeaders),
	)
	return &Tool{cfg: cfg, hc: hc}
}

func (*Tool) Name() string        { return "fetch_url" }
func (*Tool) Description() string { return description }
func (*Tool) IsBlocking() bool     { return true }

func (t *Tool) Definition() tool.Definition {
	return tool.Definition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: tool.ToolParameters{
			Type: "object",
			Properties: map[string]tool.PropertySchema{
				"url": {Type: "string", Description: "The URL to fetch"},
			},
			Required: []string{"url"},
		},
	}
}

type args struct {
	URL string `json:"url"`
}

// Execute performs the HTTP GET and returns a formatted summary of the
// response, or a tool.Failure describing why the request was refused or
// could not complete.
func (t *Tool) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var a args
	if err := json.Unmarshal([]byte(rawArgs), &a); err != nil {
		return tool.Failure("invalid arguments: " + err.Error()), nil
	}

	parsed, err := url.Parse(a.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return tool.Failure("url must be an absolute http(s) URL"), nil
	}
	if err := t.validateDomain(parsed.Hostname()); err != nil {
		return tool.Failure(err.Error()), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return tool.Failure("failed to build request: " + err.Error()), nil
	}
	req.Header.Set("User-Agent", t.cfg.UserAgent)

	resp, err := t.hc.Do(req)
	if err != nil {
		return tool.Failure("request failed: " + err.Error()), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.cfg.MaxResponseSize+1))
	if err != nil {
		return tool.Failure("failed to read response: " + err.Error()), nil
	}
	truncated := int64(len(body)) > t.cfg.MaxResponseSize
	if truncated {
		body = body[:t.cfg.MaxResponseSize]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "status: %s\ncontent-type: %s\n\n", resp.Status, resp.Header.Get("Content-Type"))
	b.Write(body)
	if truncated {
		fmt.Fprintf(&b, "\n\n[response truncated at %d bytes]", t.cfg.MaxResponseSize)
	}

	if resp.StatusCode >= 400 {
		return tool.Failure(b.String()), nil
	}
	return tool.Success(b.String()), nil
}

func (t *Tool) validateDomain(host string) error {
	if len(t.cfg.AllowedDomains) == 0 && len(t.cfg.DeniedDomains) == 0 {
		return nil
	}
	for _, denied := range t.cfg.DeniedDomains {
		if matchesDomain(host, denied) {
			return fmt.Errorf("domain not allowed: %s", host)
		}
	}
	if len(t.cfg.AllowedDomains) == 0 {
		return nil
	}
	for _, allowed := range t.cfg.AllowedDomains {
		if matchesDomain(host, allowed) {
			return nil
		}
	}
	return fmt.Errorf("domain not allowed: %s", host)
}

func matchesDomain(host, pattern string) bool {
	if host == pattern {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(host, pattern[1:])
	}
	return false
}
