// Package browser holds every piece of code that drives a real Chrome
// instance: the visible capture window and the throwaway headless probe used
// by the public fetch. Nothing else in the repo talks to a browser.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"vault-gateway/internal/capture"
	"vault-gateway/internal/model"
)

// ChromeLauncher opens a visible Chrome window on the user's own profile and
// exposes its network traffic to the capture controller.
type ChromeLauncher struct{}

func NewChromeLauncher() *ChromeLauncher {
	return &ChromeLauncher{}
}

func (l *ChromeLauncher) Launch(ctx context.Context, opts capture.LaunchOptions) (capture.Handle, error) {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		// The whole point is a window the user can log in through.
		chromedp.Flag("headless", false),
	}
	if opts.ProfileDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.ProfileDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		taskCancel()
		allocCancel()
	}

	if opts.OnRequest != nil {
		chromedp.ListenTarget(taskCtx, func(ev interface{}) {
			if e, ok := ev.(*network.EventRequestWillBeSent); ok {
				opts.OnRequest(e.Request.URL)
			}
		})
	}

	// Starts the browser process; network events must be enabled before any
	// traffic we care about happens.
	if err := chromedp.Run(taskCtx, network.Enable()); err != nil {
		cancel()
		return nil, fmt.Errorf("start capture browser: %w", err)
	}

	closed := make(chan struct{})
	go func() {
		// When the user closes the window the CDP connection drops and the
		// task context is cancelled.
		<-taskCtx.Done()
		close(closed)
	}()

	handle := &chromeHandle{ctx: taskCtx, cancel: cancel, closed: closed}

	go func() {
		if err := chromedp.Run(taskCtx, chromedp.Navigate(opts.LandingURL)); err != nil && taskCtx.Err() == nil {
			slog.Warn("capture browser navigation failed", "error", err)
		}
	}()

	return handle, nil
}

type chromeHandle struct {
	ctx    context.Context
	cancel context.CancelFunc
	closed chan struct{}
}

func (h *chromeHandle) Cookies(ctx context.Context) ([]model.CapturedCookie, error) {
	var raw []*network.Cookie
	done := make(chan error, 1)

	go func() {
		done <- chromedp.Run(h.ctx, chromedp.ActionFunc(func(runCtx context.Context) error {
			var err error
			raw, err = storage.GetCookies().Do(runCtx)
			return err
		}))
	}()

	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("read browser cookies: %w", err)
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	cookies := make([]model.CapturedCookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, convertCookie(c))
	}
	return cookies, nil
}

func (h *chromeHandle) Closed() <-chan struct{} { return h.closed }

func (h *chromeHandle) Close() { h.cancel() }

func convertCookie(c *network.Cookie) model.CapturedCookie {
	cookie := model.CapturedCookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		HTTPOnly: c.HTTPOnly,
		Secure:   c.Secure,
		SameSite: string(c.SameSite),
	}
	if c.Expires > 0 {
		expires := time.Unix(int64(c.Expires), 0).UTC()
		cookie.Expires = &expires
	}
	return cookie
}
