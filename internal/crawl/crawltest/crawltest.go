// Package crawltest provides an in-memory DOM that satisfies crawl.Session so
// sites and jobs can be exercised without a browser.
package crawltest

import (
	"context"
	"sync"

	"github.com/AlfredBerg/regsido/internal/crawl"
	"github.com/AlfredBerg/regsido/internal/models"
)

// Node is a fake DOM element. Descendant lookups are answered from Kids by
// exact selector string.
type Node struct {
	Content string
	Attrs   map[string]string
	Markup  string
	Hidden  bool
	Kids    map[string][]*Node

	// OnClick runs after a click is counted.
	OnClick func() error
	// Gone marks the node as removed from the document.
	Gone bool
	// Broken, when set, is returned by every method.
	Broken error
	// Faults are returned one per call before the node behaves normally.
	Faults []error

	Clicks int
}

func (n *Node) check() error {
	if len(n.Faults) > 0 {
		err := n.Faults[0]
		n.Faults = n.Faults[1:]
		return err
	}
	if n.Broken != nil {
		return n.Broken
	}
	if n.Gone {
		return crawl.ErrStale
	}
	return nil
}

func (n *Node) Find(selector string) (crawl.Element, error) {
	if err := n.check(); err != nil {
		return nil, err
	}
	kids := n.Kids[selector]
	if len(kids) == 0 {
		return nil, crawl.ErrNotFound
	}
	return kids[0], nil
}

func (n *Node) Text() (string, error) {
	if err := n.check(); err != nil {
		return "", err
	}
	return n.Content, nil
}

func (n *Node) Attribute(name string) (*string, error) {
	if err := n.check(); err != nil {
		return nil, err
	}
	v, ok := n.Attrs[name]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (n *Node) HTML() (string, error) {
	if err := n.check(); err != nil {
		return "", err
	}
	return n.Markup, nil
}

func (n *Node) Click() error {
	if err := n.check(); err != nil {
		return err
	}
	n.Clicks++
	if n.OnClick != nil {
		return n.OnClick()
	}
	return nil
}

func (n *Node) Visible() (bool, error) {
	if err := n.check(); err != nil {
		return false, err
	}
	return !n.Hidden, nil
}

func (n *Node) Detached() (bool, error) {
	if n.Broken != nil {
		return false, n.Broken
	}
	return n.Gone, nil
}

// SetAttr sets or, for a nil value, removes an attribute.
func (n *Node) SetAttr(name string, value *string) {
	if value == nil {
		delete(n.Attrs, name)
		return
	}
	if n.Attrs == nil {
		n.Attrs = map[string]string{}
	}
	n.Attrs[name] = *value
}

// Session is a fake browser tab whose document is the DOM map, keyed by
// selector. Tests mutate DOM from click handlers to simulate navigation.
type Session struct {
	mu sync.Mutex

	DOM         map[string][]*Node
	NavigateErr error
	CloseErr    error

	Navigated []string
	Closed    int
}

func NewSession() *Session {
	return &Session{DOM: map[string][]*Node{}}
}

func (s *Session) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Navigated = append(s.Navigated, url)
	return s.NavigateErr
}

func (s *Session) Find(selector string) (crawl.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nodes := s.DOM[selector]
	if len(nodes) == 0 {
		return nil, crawl.ErrNotFound
	}
	return nodes[0], nil
}

func (s *Session) FindAll(selector string) ([]crawl.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nodes := s.DOM[selector]
	out := make([]crawl.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
	}
	return out, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed++
	return s.CloseErr
}

// Set replaces the nodes matching selector.
func (s *Session) Set(selector string, nodes ...*Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(nodes) == 0 {
		delete(s.DOM, selector)
		return
	}
	s.DOM[selector] = nodes
}

// Output records what a job tried to store.
type Output struct {
	Err     error
	Calls   int
	Records []models.FAQRecord
}

func (o *Output) HandleRecords(_ context.Context, records []models.FAQRecord) error {
	o.Calls++
	o.Records = append(o.Records, records...)
	return o.Err
}
