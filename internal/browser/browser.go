// Package browser wraps go-rod behind the small driver surface the engine
// needs: navigate, bounded xpath lookup, click, type, cookie import/export
// and a full restart. One Driver per worker task; never shared.
package browser

import (
	"context"
	"errors"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"drop_harvester/internal/model"
)

type Options struct {
	// Headless is the preferred mode. A task can still force a visible
	// window through Restart when a manual login is expected.
	Headless    bool
	UserAgent   string
	FindTimeout time.Duration
}

type Driver struct {
	opts     Options
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// New launches the browser. initialHeadless further restricts the
// configured mode for the first launch; Restart goes back to the
// configured preference.
func New(opts Options, initialHeadless bool) (*Driver, error) {
	if opts.FindTimeout <= 0 {
		opts.FindTimeout = 10 * time.Second
	}
	d := &Driver{opts: opts}
	if err := d.launch(opts.Headless && initialHeadless); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Driver) launch(headless bool) error {
	l := launcher.New().
		Headless(headless).
		Set("mute-audio").
		Set("disable-gpu").
		Set("disable-extensions")

	u, err := l.Launch()
	if err != nil {
		l.Kill()
		return err
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return err
	}

	page, err := stealth.Page(b)
	if err != nil {
		_ = b.Close()
		l.Kill()
		return err
	}
	if ua := NormalizeDesktopUserAgent(d.opts.UserAgent); ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			_ = page.Close()
			_ = b.Close()
			l.Kill()
			return err
		}
	}

	d.launcher = l
	d.browser = b
	d.page = page
	return nil
}

// Restart tears the browser down and launches a fresh one. When
// headlessCapable is false the new instance is headful regardless of the
// configured mode, so a human can resolve whatever the page is asking for.
func (d *Driver) Restart(headlessCapable bool) error {
	d.Close()
	return d.launch(d.opts.Headless && headlessCapable)
}

func (d *Driver) Close() {
	if d.page != nil {
		_ = d.page.Close()
		d.page = nil
	}
	if d.browser != nil {
		_ = d.browser.Close()
		d.browser = nil
	}
	if d.launcher != nil {
		d.launcher.Kill()
		d.launcher = nil
	}
}

func (d *Driver) Navigate(url string) error {
	wait := d.page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := d.page.Navigate(url); err != nil {
		return err
	}
	wait()
	return nil
}

func (d *Driver) Reload() error {
	return d.page.Reload()
}

func (d *Driver) CurrentURL() string {
	info, err := d.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Has waits up to the find timeout for an element matching the xpath.
// Absence is not an error; anything else is a driver fault.
func (d *Driver) Has(xpath string) (bool, error) {
	_, err := d.find(xpath)
	if err != nil {
		if isAbsence(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Click finds and clicks the element. Returns false when the element is
// missing or refuses interaction.
func (d *Driver) Click(xpath string) (bool, error) {
	el, err := d.find(xpath)
	if err != nil {
		if isAbsence(err) {
			return false, nil
		}
		return false, err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, nil
	}
	return true, nil
}

// Type finds the element, enters text and optionally submits with Enter.
func (d *Driver) Type(xpath, text string, submit bool) error {
	el, err := d.find(xpath)
	if err != nil {
		return err
	}
	if err := el.Input(text); err != nil {
		return err
	}
	if submit {
		return el.Type(input.Enter)
	}
	return nil
}

func (d *Driver) Cookies() ([]model.Cookie, error) {
	cookies, err := d.page.Cookies(nil)
	if err != nil {
		return nil, err
	}
	return model.CookiesFromBrowser(cookies), nil
}

func (d *Driver) SetCookies(cookies []model.Cookie) error {
	return d.page.SetCookies(model.CookiesToBrowser(cookies))
}

func (d *Driver) find(xpath string) (*rod.Element, error) {
	return d.page.Timeout(d.opts.FindTimeout).ElementX(xpath)
}

func isAbsence(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var notFound *rod.ElementNotFoundError
	return errors.As(err, &notFound)
}
