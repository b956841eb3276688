package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/producerecipe/config"
	"github.com/use-agent/producerecipe/models"
	"github.com/ysmood/gson"
)

// Session is a dedicated headless Chrome with a single tab. Each scrape
// launches its own Session and must Close it on every exit path.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	rawPage  *rod.Page // unbound, used for cleanup after ctx ends
	page     *rod.Page
	router   *rod.HijackRouter

	navTimeout time.Duration
	closeOnce  sync.Once
}

var _ Page = (*Session)(nil)

// Launch starts a browser process and opens one tab bound to ctx.
//
// Order matters: stealth JS, the Accept-Language header and the hijack
// router only take effect for navigations that happen after installation.
func Launch(ctx context.Context, bcfg config.BrowserConfig, scfg config.ScraperConfig) (*Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(bcfg.Headless).
		NoSandbox(bcfg.NoSandbox)

	if bcfg.BrowserBin != "" {
		l = l.Bin(bcfg.BrowserBin)
	}
	if bcfg.Proxy != "" {
		l = l.Proxy(bcfg.Proxy)
	}

	lang := bcfg.Language
	if lang == "" {
		lang = "en-US"
	}
	l.Set(flags.Flag("lang"), lang)
	l.Set(flags.Flag("accept-lang"), lang)
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		// Cleanup waits for a process exit that never comes when the
		// process did not start, so only the profile dir is removed.
		if dir := l.Get(flags.UserDataDir); dir != "" {
			_ = os.RemoveAll(dir)
		}
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Debug("browser launched", "controlURL", controlURL)

	s := &Session{launcher: l, navTimeout: scfg.NavigationTimeout}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		s.Close()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}
	s.browser = b

	s.rawPage, err = s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.Close()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to open tab", err)
	}

	if bcfg.Stealth {
		if _, err := s.rawPage.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	headers := toHeadersMap(map[string]string{"Accept-Language": lang + ",en;q=0.9"})
	if err := (proto.NetworkSetExtraHTTPHeaders{Headers: headers}).Call(s.rawPage); err != nil {
		slog.Debug("setting Accept-Language header failed", "error", err)
	}

	s.router = setupHijack(s.rawPage, bcfg.BlockedResourceTypes)
	s.page = s.rawPage.Context(ctx)
	return s, nil
}

// Navigate loads url and waits for the DOM to settle.
func (s *Session) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if s.navTimeout > 0 {
		p = p.Timeout(s.navTimeout)
	}
	if err := p.Navigate(url); err != nil {
		return categorizeError(err, "navigation to search page failed")
	}
	if err := p.WaitLoad(); err != nil {
		return categorizeError(err, "search page did not finish loading")
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
	return nil
}

// Find returns the first element matching sel without waiting.
func (s *Session) Find(sel string) (Element, bool) {
	ok, el, err := s.page.Has(sel)
	if err != nil || !ok {
		return nil, false
	}
	return &rodElement{el: el}, true
}

// FindAll returns every element matching sel without waiting.
func (s *Session) FindAll(sel string) []Element {
	els, err := s.page.Elements(sel)
	if err != nil {
		return nil
	}
	return wrapElements(els)
}

// WaitUntilClickable waits until el is visible and not covered.
func (s *Session) WaitUntilClickable(el Element, timeout time.Duration) error {
	re, ok := el.(*rodElement)
	if !ok {
		return ErrNotClickable
	}
	if _, err := re.el.Timeout(timeout).WaitInteractable(); err != nil {
		return fmt.Errorf("%w: %v", ErrNotClickable, err)
	}
	return nil
}

// ScrollBy scrolls the window down by px pixels.
func (s *Session) ScrollBy(px int) error {
	_, err := s.page.Eval(`(y) => window.scrollBy(0, y)`, px)
	return err
}

// HTML returns the serialised current DOM.
func (s *Session) HTML() (string, error) {
	html, err := s.page.HTML()
	if err != nil {
		return "", categorizeError(err, "reading page HTML failed")
	}
	return html, nil
}

// Close stops request interception, closes the browser and kills its process.
// It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.router != nil {
			_ = s.router.Stop()
		}
		if s.rawPage != nil {
			_ = s.rawPage.Close()
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				slog.Debug("browser close failed, killing process", "error", err)
			}
		}
		s.launcher.Kill()
		s.launcher.Cleanup()
	})
	return nil
}

// rodElement adapts a live DOM element.
type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Attr(name string) (string, bool) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

func (e *rodElement) Find(sel string) (Element, bool) {
	ok, el, err := e.el.Has(sel)
	if err != nil || !ok {
		return nil, false
	}
	return &rodElement{el: el}, true
}

func (e *rodElement) FindAll(sel string) []Element {
	els, err := e.el.Elements(sel)
	if err != nil {
		return nil
	}
	return wrapElements(els)
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func wrapElements(els rod.Elements) []Element {
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = &rodElement{el: el}
	}
	return out
}

// toHeadersMap converts a plain string map to proto.NetworkHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
