package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodBrowser is a headless browser bound to a test's lifetime.
type RodBrowser struct {
	t        *testing.T
	Browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewRodBrowser launches a local browser, or skips the test when none is
// installed or PAGESYNC_SKIP_BROWSER is set.
func NewRodBrowser(t *testing.T) *RodBrowser {
	t.Helper()
	if testing.Short() || os.Getenv("PAGESYNC_SKIP_BROWSER") != "" {
		t.Skip("browser tests disabled")
	}
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("no local browser found")
	}

	l := launcher.New().Bin(bin).Headless(true).Delete("disable-extensions")
	controlURL, err := l.Launch()
	if err != nil {
		t.Skipf("browser failed to launch: %v", err)
	}
	b := rod.New().ControlURL(controlURL).Timeout(30 * time.Second)
	if err := b.Connect(); err != nil {
		l.Kill()
		t.Skipf("browser connect failed: %v", err)
	}

	rb := &RodBrowser{t: t, Browser: b, launcher: l}
	t.Cleanup(rb.Close)
	return rb
}

// Page opens url and waits for it to load.
func (rb *RodBrowser) Page(url string) *rod.Page {
	rb.t.Helper()
	page, err := rb.Browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		rb.t.Fatalf("open %s: %v", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		rb.t.Fatalf("wait load %s: %v", url, err)
	}
	rb.t.Cleanup(func() { page.Close() })
	return page
}

// Close shuts the browser down.
func (rb *RodBrowser) Close() {
	if rb.Browser != nil {
		rb.Browser.Close()
		rb.Browser = nil
	}
	if rb.launcher != nil {
		rb.launcher.Kill()
		rb.launcher = nil
	}
}
