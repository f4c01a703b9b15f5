package crawl

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned by lookups that match nothing.
	ErrNotFound = errors.New("element not found")
	// ErrStale is returned when an element handle no longer belongs to the
	// current document.
	ErrStale = errors.New("stale element reference")
	// ErrTimeout is returned when a bounded wait gives up.
	ErrTimeout = errors.New("timed out waiting for page state")
)

// Session is a controllable browser tab. Lookups never wait; waiting is done
// by Driver on top of them.
type Session interface {
	Navigate(ctx context.Context, url string) error
	// Find returns the first element matching selector or ErrNotFound.
	Find(selector string) (Element, error)
	// FindAll returns every element matching selector, possibly none.
	FindAll(selector string) ([]Element, error)
	Close() error
}

// Element is a handle to a DOM node inside a Session.
type Element interface {
	// Find returns the first descendant matching selector or ErrNotFound.
	Find(selector string) (Element, error)
	Text() (string, error)
	// Attribute returns nil when the attribute is absent.
	Attribute(name string) (*string, error)
	HTML() (string, error)
	// Click dispatches a click from script, bypassing overlays.
	Click() error
	Visible() (bool, error)
	// Detached reports whether the node has left the document.
	Detached() (bool, error)
}

const (
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
)

// Driver adds bounded waits to a Session.
type Driver struct {
	Session
	Timeout  time.Duration
	Interval time.Duration
}

func (d *Driver) timeout() time.Duration {
	if d.Timeout <= 0 {
		return DefaultTimeout
	}
	return d.Timeout
}

func (d *Driver) interval() time.Duration {
	if d.Interval <= 0 {
		return DefaultPollInterval
	}
	return d.Interval
}

// Until polls cond until it reports true, returns an error, or the timeout
// elapses. ErrNotFound from cond counts as "not yet".
func (d *Driver) Until(ctx context.Context, cond func() (bool, error)) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout())
	defer cancel()

	t := time.NewTicker(d.interval())
	defer t.Stop()

	for {
		ok, err := cond()
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if ok && err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrTimeout
			}
			return ctx.Err()
		case <-t.C:
		}
	}
}

// WaitElement waits for selector to be present.
func (d *Driver) WaitElement(ctx context.Context, selector string) (Element, error) {
	var el Element
	err := d.Until(ctx, func() (bool, error) {
		var err error
		el, err = d.Find(selector)
		return err == nil, err
	})
	if err != nil {
		return nil, fmt.Errorf("waiting for %q: %w", selector, err)
	}
	return el, nil
}

// WaitElements waits until at least one element matches selector.
func (d *Driver) WaitElements(ctx context.Context, selector string) ([]Element, error) {
	var els []Element
	err := d.Until(ctx, func() (bool, error) {
		var err error
		els, err = d.FindAll(selector)
		return len(els) > 0, err
	})
	if err != nil {
		return nil, fmt.Errorf("waiting for %q: %w", selector, err)
	}
	return els, nil
}

// WaitVisible waits for selector to be present and visible.
func (d *Driver) WaitVisible(ctx context.Context, selector string) (Element, error) {
	var el Element
	err := d.Until(ctx, func() (bool, error) {
		var err error
		el, err = d.Find(selector)
		if err != nil {
			return false, err
		}
		return el.Visible()
	})
	if err != nil {
		return nil, fmt.Errorf("waiting for %q to show: %w", selector, err)
	}
	return el, nil
}

// WaitInvisible waits for selector to be hidden or gone.
func (d *Driver) WaitInvisible(ctx context.Context, selector string) error {
	err := d.Until(ctx, func() (bool, error) {
		el, err := d.Find(selector)
		if errors.Is(err, ErrNotFound) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		visible, err := el.Visible()
		if errors.Is(err, ErrStale) {
			return true, nil
		}
		return !visible, err
	})
	if err != nil {
		return fmt.Errorf("waiting for %q to hide: %w", selector, err)
	}
	return nil
}

// WaitStale waits for el to leave the document, which is how a page change
// is detected after a pagination click.
func (d *Driver) WaitStale(ctx context.Context, el Element) error {
	err := d.Until(ctx, func() (bool, error) {
		detached, err := el.Detached()
		if errors.Is(err, ErrStale) {
			return true, nil
		}
		return detached, err
	})
	if err != nil {
		return fmt.Errorf("waiting for page change: %w", err)
	}
	return nil
}

// Settle sleeps for dur unless ctx ends first.
func Settle(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return nil
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
