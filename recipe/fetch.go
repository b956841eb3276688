// Package recipe reads the structured data a recipe page embeds as JSON-LD,
// turns either of its common shapes into a models.RecipeContent and picks a
// random parsable recipe from a result table.
package recipe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	tls "github.com/refraction-networking/utls"
	"github.com/use-agent/producerecipe/config"
	"github.com/use-agent/producerecipe/models"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// maxBody caps a recipe page download.
const maxBody = 10 << 20

// jsonLDSelector matches structured-data script tags. Only the first one on
// the page is read.
const jsonLDSelector = `script[type="application/ld+json"]`

// chromeH1Spec is a Chrome ClientHello with ALPN limited to http/1.1, since
// net/http cannot speak h2 over a utls connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// Page is a downloaded recipe page.
type Page struct {
	URL  string
	HTML string

	// StructuredData is the decoded first JSON-LD block, or nil when the page
	// has none or it is malformed.
	StructuredData any
}

// Fetcher downloads recipe pages. It is safe for concurrent use.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher returns a Fetcher that presents a Chrome TLS fingerprint.
func NewFetcher(cfg config.RecipeConfig) *Fetcher {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: cfg.FetchTimeout}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("recipe: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2:   false,
		TLSHandshakeTimeout: cfg.FetchTimeout,
	}
	return NewFetcherWithClient(&http.Client{Transport: transport}, cfg)
}

// NewFetcherWithClient wraps an existing client. The client's timeout is set
// from cfg.FetchTimeout.
func NewFetcherWithClient(client *http.Client, cfg config.RecipeConfig) *Fetcher {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client.Timeout = timeout
	if client.CheckRedirect == nil {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("too many redirects")
			}
			return nil
		}
	}
	return &Fetcher{client: client, userAgent: cfg.UserAgent}
}

// FetchStructuredData returns the first JSON-LD block of the page at url.
// A missing or malformed block is (nil, nil); transport failures and non-2xx
// responses are FETCH_FAILED errors.
func (f *Fetcher) FetchStructuredData(ctx context.Context, url string) (any, error) {
	page, err := f.FetchPage(ctx, url)
	if err != nil {
		return nil, err
	}
	return page.StructuredData, nil
}

// FetchPage downloads url, decodes it to UTF-8 and extracts its JSON-LD.
func (f *Fetcher) FetchPage(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid recipe URL", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeFetchFailed, "recipe page request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, models.NewScrapeError(models.ErrCodeFetchFailed,
			fmt.Sprintf("recipe page returned HTTP %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeFetchFailed, "reading recipe page failed", err)
	}

	text, err := decodeBody(body, resp.Header.Get("Content-Type"))
	if err != nil {
		slog.Debug("charset decoding failed, reading body as UTF-8", "url", url, "error", err)
		text = string(body)
	}

	return &Page{URL: url, HTML: text, StructuredData: extractJSONLD(text, url)}, nil
}

// decodeBody converts body to UTF-8 using the declared charset, falling back
// to <meta> sniffing when the header declares none.
func decodeBody(body []byte, contentType string) (string, error) {
	var enc encoding.Encoding
	if _, params, err := mime.ParseMediaType(contentType); err == nil && params["charset"] != "" {
		enc, err = htmlindex.Get(params["charset"])
		if err != nil {
			return "", fmt.Errorf("unknown charset %q: %w", params["charset"], err)
		}
	} else {
		enc, _, _ = charset.DetermineEncoding(body, contentType)
	}

	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return string(body), nil
	}
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// extractJSONLD decodes the first structured-data block of page.
func extractJSONLD(page, url string) any {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		slog.Debug("recipe page is not parsable HTML", "url", url, "error", err)
		return nil
	}
	script := doc.Find(jsonLDSelector).First()
	if script.Length() == 0 {
		slog.Debug("recipe page has no JSON-LD", "url", url)
		return nil
	}

	raw := bytes.TrimSpace([]byte(script.Text()))
	if len(raw) == 0 {
		return nil
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		slog.Debug("recipe page JSON-LD is malformed", "url", url, "error", err)
		return nil
	}
	return data
}
