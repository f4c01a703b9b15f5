// Package browser implements crawl.Session on top of a Chrome instance driven
// by rod.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlfredBerg/regsido/internal/crawl"
	"github.com/AlfredBerg/regsido/internal/js"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

type Options struct {
	// Headless hides the browser window; turn it off to watch a run.
	Headless bool
	// Trace logs every action rod executes.
	Trace bool
	// Bin overrides the browser executable; empty lets the launcher find or
	// download one.
	Bin string
}

// Session owns one browser with one tab. Close releases both.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	logger   *zap.Logger
}

var _ crawl.Session = (*Session)(nil)

func Launch(ctx context.Context, opts Options, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless)
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().
		ControlURL(url).
		Trace(opts.Trace).
		Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	if err := b.IgnoreCertErrors(true); err != nil {
		logger.Warn("failed to ignore certificate errors", zap.Error(err))
	}

	//Don't download files in the browser, e.g. pdf files
	_ = proto.BrowserSetDownloadBehavior{
		Behavior:         proto.BrowserSetDownloadBehaviorBehaviorDeny,
		BrowserContextID: b.BrowserContextID,
	}.Call(b)

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{Width: 1920, Height: 1080}); err != nil {
		logger.Warn("failed to resize viewport", zap.Error(err))
	}

	//Dismiss alerts so they cannot block the run
	go page.EachEvent(func(e *proto.PageJavascriptDialogOpening) {
		logger.Debug("dismissing dialog", zap.String("message", e.Message))
		_ = proto.PageHandleJavaScriptDialog{Accept: false}.Call(page)
	})()

	s := &Session{launcher: l, browser: b, page: page, logger: logger}

	//Close tabs opened by the page, the run only ever drives its own tab
	go b.EachEvent(func(e *proto.PageWindowOpen) {
		s.closeStrayTabs(e.URL)
	})()

	return s, nil
}

// closeStrayTabs closes every tab except the one the session drives.
func (s *Session) closeStrayTabs(opened string) {
	s.logger.Info("new window opened, closing it", zap.String("url", opened))
	// the target is not always listed yet when the event arrives
	time.Sleep(500 * time.Millisecond)
	pages, err := s.browser.Pages()
	if err != nil {
		s.logger.Warn("failed getting pages in tab closer", zap.Error(err))
		return
	}
	for _, p := range pages {
		if p.TargetID == s.page.TargetID {
			continue
		}
		if err := p.Close(); err != nil {
			s.logger.Warn("failed closing stray tab", zap.Error(err))
		}
	}
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return classify(err)
	}
	return classify(p.WaitLoad())
}

func (s *Session) Find(selector string) (crawl.Element, error) {
	has, el, err := s.page.Has(selector)
	if err != nil {
		return nil, classify(err)
	}
	if !has {
		return nil, crawl.ErrNotFound
	}
	return &element{el: el}, nil
}

func (s *Session) FindAll(selector string) ([]crawl.Element, error) {
	els, err := s.page.Elements(selector)
	if err != nil {
		return nil, classify(err)
	}
	out := make([]crawl.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &element{el: el})
	}
	return out, nil
}

func (s *Session) Close() error {
	err := s.browser.Close()
	s.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

type element struct {
	el *rod.Element
}

func (e *element) Find(selector string) (crawl.Element, error) {
	has, el, err := e.el.Has(selector)
	if err != nil {
		return nil, classify(err)
	}
	if !has {
		return nil, crawl.ErrNotFound
	}
	return &element{el: el}, nil
}

func (e *element) Text() (string, error) {
	t, err := e.el.Text()
	return t, classify(err)
}

func (e *element) Attribute(name string) (*string, error) {
	v, err := e.el.Attribute(name)
	return v, classify(err)
}

func (e *element) HTML() (string, error) {
	h, err := e.el.HTML()
	return h, classify(err)
}

func (e *element) Click() error {
	_, err := e.el.Eval(js.CLICK)
	return classify(err)
}

func (e *element) Visible() (bool, error) {
	res, err := e.el.Eval(js.IS_SHOWN)
	if err != nil {
		return false, classify(err)
	}
	return res.Value.Bool(), nil
}

func (e *element) Detached() (bool, error) {
	res, err := e.el.Eval(js.IS_DETACHED)
	if err != nil {
		if err = classify(err); errors.Is(err, crawl.ErrStale) {
			return true, nil
		}
		return false, err
	}
	return res.Value.Bool(), nil
}

// classify maps rod and devtools errors onto the crawl sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", crawl.ErrTimeout, err)
	}
	if errors.Is(err, cdp.ErrCtxDestroyed) || errors.Is(err, cdp.ErrCtxNotFound) || errors.Is(err, cdp.ErrObjNotFound) {
		return fmt.Errorf("%w: %w", crawl.ErrStale, err)
	}
	var ce *cdp.Error
	if errors.As(err, &ce) && (strings.Contains(ce.Message, "Could not find node") ||
		strings.Contains(ce.Message, "does not belong to the document")) {
		return fmt.Errorf("%w: %w", crawl.ErrStale, err)
	}
	return err
}
