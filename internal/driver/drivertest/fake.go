// Package drivertest provides a configurable in-memory Driver for unit
// tests of the resolver, executor and orchestrators. No browser involved.
package drivertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/proba/internal/interfaces"
)

// Page describes the fake page state a test sets up: which selectors exist,
// which are visible, element text, select options and checkbox state.
type Page struct {
	Existing map[string]int
	Visible  map[string]bool
	Texts    map[string]string
	Checked  map[string]bool
	Options  map[string][]interfaces.SelectOption
	URL      string
	DOM      string
}

// Fake implements interfaces.Driver against an in-memory Page. Every call is
// recorded in Calls for assertion; individual operations can be forced to
// fail via Fail.
type Fake struct {
	mu    sync.Mutex
	Page  Page
	Calls []string
	// Fail maps "op selector" or just "op" to the error to return
	Fail map[string]error
	// Selected records SelectOption calls as selector->value
	Selected map[string]string
	// Filled records Fill calls as selector->value
	Filled map[string]string
}

// New creates a Fake with empty page state
func New() *Fake {
	return &Fake{
		Page: Page{
			Existing: map[string]int{},
			Visible:  map[string]bool{},
			Texts:    map[string]string{},
			Checked:  map[string]bool{},
			Options:  map[string][]interfaces.SelectOption{},
		},
		Fail:     map[string]error{},
		Selected: map[string]string{},
		Filled:   map[string]string{},
	}
}

// AddElement registers a selector as existing, optionally visible
func (f *Fake) AddElement(selector string, visible bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Page.Existing[selector] = 1
	f.Page.Visible[selector] = visible
}

func (f *Fake) record(op, arg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, strings.TrimSpace(op+" "+arg))
	if err, ok := f.Fail[op+" "+arg]; ok {
		return err
	}
	if err, ok := f.Fail[op]; ok {
		return err
	}
	return nil
}

func (f *Fake) Navigate(_ context.Context, url string) error {
	if err := f.record("navigate", url); err != nil {
		return err
	}
	f.mu.Lock()
	f.Page.URL = url
	f.mu.Unlock()
	return nil
}

func (f *Fake) CurrentURL(_ context.Context) (string, error) {
	if err := f.record("current_url", ""); err != nil {
		return "", err
	}
	return f.Page.URL, nil
}

func (f *Fake) Exists(_ context.Context, selector string) (int, error) {
	if err := f.record("exists", selector); err != nil {
		return 0, err
	}
	return f.Page.Existing[selector], nil
}

func (f *Fake) IsVisible(_ context.Context, selector string) (bool, error) {
	if err := f.record("is_visible", selector); err != nil {
		return false, err
	}
	return f.Page.Visible[selector], nil
}

func (f *Fake) WaitVisible(_ context.Context, selector string, _ time.Duration) error {
	if err := f.record("wait_visible", selector); err != nil {
		return err
	}
	if !f.Page.Visible[selector] {
		return fmt.Errorf("timeout waiting for %s to be visible", selector)
	}
	return nil
}

func (f *Fake) WaitHidden(_ context.Context, selector string, _ time.Duration) error {
	if err := f.record("wait_hidden", selector); err != nil {
		return err
	}
	if f.Page.Visible[selector] {
		return fmt.Errorf("timeout waiting for %s to be hidden", selector)
	}
	return nil
}

func (f *Fake) Click(_ context.Context, selector string) error {
	return f.record("click", selector)
}

func (f *Fake) Fill(_ context.Context, selector, value string) error {
	if err := f.record("fill", selector); err != nil {
		return err
	}
	f.mu.Lock()
	f.Filled[selector] = value
	f.mu.Unlock()
	return nil
}

func (f *Fake) SelectOption(_ context.Context, selector, value string) error {
	if err := f.record("select", selector); err != nil {
		return err
	}
	f.mu.Lock()
	f.Selected[selector] = value
	f.mu.Unlock()
	return nil
}

func (f *Fake) Options(_ context.Context, selector string) ([]interfaces.SelectOption, error) {
	if err := f.record("options", selector); err != nil {
		return nil, err
	}
	return f.Page.Options[selector], nil
}

func (f *Fake) Scroll(_ context.Context, selector string) error {
	return f.record("scroll", selector)
}

func (f *Fake) KeyPress(_ context.Context, keys string) error {
	return f.record("keypress", keys)
}

func (f *Fake) Text(_ context.Context, selector string) (string, error) {
	if err := f.record("text", selector); err != nil {
		return "", err
	}
	return f.Page.Texts[selector], nil
}

func (f *Fake) IsChecked(_ context.Context, selector string) (bool, error) {
	if err := f.record("checked", selector); err != nil {
		return false, err
	}
	return f.Page.Checked[selector], nil
}

func (f *Fake) Screenshot(_ context.Context) ([]byte, error) {
	if err := f.record("screenshot", ""); err != nil {
		return nil, err
	}
	return []byte("png"), nil
}

func (f *Fake) DOMSnapshot(_ context.Context) (string, error) {
	if err := f.record("dom_snapshot", ""); err != nil {
		return "", err
	}
	return f.Page.DOM, nil
}

func (f *Fake) Close() error {
	return f.record("close", "")
}

// CallCount returns how many times op was invoked, ignoring arguments
func (f *Fake) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.Calls {
		if call == op || strings.HasPrefix(call, op+" ") {
			count++
		}
	}
	return count
}

// Factory returns a SessionFactory handing out this fake for every session
type Factory struct {
	Driver *Fake
	// Sessions counts NewSession calls
	Sessions int
	// Err forces session creation to fail
	Err error
}

func (f *Factory) NewSession(_ context.Context) (interfaces.Driver, error) {
	f.Sessions++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Driver, nil
}
