// Package sites holds the vendor specific halves of the FAQ scrapers.
package sites

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/AlfredBerg/regsido/internal/crawl"
)

const (
	// DefaultLoadSettle is waited after the first navigation.
	DefaultLoadSettle = 2 * time.Second
	// DefaultPageSettle is waited after every page change.
	DefaultPageSettle = 1 * time.Second
)

// Settle delays shared by both sites.
type Settle struct {
	Load time.Duration
	Page time.Duration
}

var DefaultSettle = Settle{Load: DefaultLoadSettle, Page: DefaultPageSettle}

var registry = map[string]func(url string, settle Settle) crawl.Site{
	"hyundai": func(url string, settle Settle) crawl.Site { return NewHyundai(url, settle) },
	"kia":     func(url string, settle Settle) crawl.Site { return NewKia(url, settle) },
}

// Names lists the known site names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ByName builds the named site. An empty url keeps the site's default.
func ByName(name, url string, settle Settle) (crawl.Site, error) {
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown site %q, expected one of %s", name, strings.Join(Names(), ", "))
	}
	return f(url, settle), nil
}

func text(el crawl.Element, selector string) (string, error) {
	child, err := el.Find(selector)
	if err != nil {
		return "", fmt.Errorf("%s: %w", selector, err)
	}
	t, err := child.Text()
	if err != nil {
		return "", fmt.Errorf("%s text: %w", selector, err)
	}
	return strings.TrimSpace(t), nil
}
