// Package capture obtains a fresh remote session by watching a real,
// user-driven browser log in. The remote host has no public auth API, so the
// controller never performs a login itself; it only observes one.
package capture

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"vault-gateway/internal/model"
)

// minTokenLength filters out look-alike query values; real session tokens
// are considerably longer.
const minTokenLength = 16

// LaunchOptions configures one observable browser session.
type LaunchOptions struct {
	// ProfileDir is the user's real browser profile, so the window opens
	// already logged in to whatever the user normally uses.
	ProfileDir string
	LandingURL string
	// OnRequest is invoked for every outbound request the browser makes.
	OnRequest func(requestURL string)
}

// Handle is an open, observable browser session.
type Handle interface {
	Cookies(ctx context.Context) ([]model.CapturedCookie, error)
	Closed() <-chan struct{}
	Close()
}

type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Handle, error)
}

// TokenSaver persists a captured credential bundle.
type TokenSaver interface {
	SaveCaptured(ctx context.Context, data model.AuthData) error
}

// CookieFilter narrows a raw browser cookie dump to the domains the remote
// host cares about.
type CookieFilter func([]model.CapturedCookie) []model.CapturedCookie

// Controller is the process-wide single slot for capture attempts. At most
// one browser is open at a time; Start while a session is still waiting is a
// no-op returning the existing session.
type Controller struct {
	launcher   Launcher
	saver      TokenSaver
	filter     CookieFilter
	profileDir string
	landingURL string

	mu     sync.Mutex
	sess   *model.AuthSession
	handle Handle
}

func NewController(launcher Launcher, saver TokenSaver, filter CookieFilter, profileDir string, landingURL string) *Controller {
	return &Controller{
		launcher:   launcher,
		saver:      saver,
		filter:     filter,
		profileDir: profileDir,
		landingURL: landingURL,
	}
}

// Start begins a capture attempt. It returns immediately with the session in
// waiting_for_login; launching and observing continue in the background.
func (c *Controller) Start() model.AuthSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess != nil && (c.sess.Status == model.SessionPending ||
		c.sess.Status == model.SessionWaitingForLogin ||
		c.sess.Status == model.SessionCapturing) {
		return *c.sess
	}

	sess := &model.AuthSession{
		SessionID: uuid.NewString(),
		Status:    model.SessionWaitingForLogin,
		Message:   "waiting for the login window",
	}
	c.sess = sess
	c.handle = nil

	// One latch per session: only the first qualifying request acts, and a
	// replaced session's stragglers cannot touch the new one.
	latch := &sync.Once{}
	go c.launch(sess.SessionID, latch)

	slog.Info("capture session started", "session_id", sess.SessionID)
	return *sess
}

// Status reports the current session without blocking, or nil when no
// session exists.
func (c *Controller) Status() *model.AuthSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil {
		return nil
	}
	snapshot := *c.sess
	return &snapshot
}

// Close shuts the browser if one is open and clears the session slot
// regardless of its state. Idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	handle := c.handle
	c.handle = nil
	c.sess = nil
	c.mu.Unlock()

	if handle != nil {
		handle.Close()
	}
}

func (c *Controller) launch(sessionID string, latch *sync.Once) {
	handle, err := c.launcher.Launch(context.Background(), LaunchOptions{
		ProfileDir: c.profileDir,
		LandingURL: c.landingURL,
		OnRequest: func(requestURL string) {
			c.observe(sessionID, latch, requestURL)
		},
	})
	if err != nil {
		c.fail(sessionID, "failed to launch capture browser: "+err.Error())
		return
	}

	c.mu.Lock()
	if c.sess == nil || c.sess.SessionID != sessionID {
		// The slot was closed or replaced while the browser was starting.
		c.mu.Unlock()
		handle.Close()
		return
	}
	c.handle = handle
	c.mu.Unlock()

	go func() {
		<-handle.Closed()
		c.browserClosed(sessionID)
	}()
}

// observe runs per outbound browser request. The latch guarantees that only
// the first qualifying request triggers a harvest.
func (c *Controller) observe(sessionID string, latch *sync.Once, requestURL string) {
	token := tokenFromURL(requestURL)
	if token == "" {
		return
	}

	latch.Do(func() {
		c.mu.Lock()
		if c.sess == nil || c.sess.SessionID != sessionID {
			c.mu.Unlock()
			return
		}
		c.sess.Status = model.SessionCapturing
		c.sess.Message = "session token observed; reading cookies"
		c.mu.Unlock()

		go c.harvest(sessionID, token)
	})
}

func (c *Controller) harvest(sessionID string, token string) {
	handle := c.waitForHandle(sessionID, 5*time.Second)
	if handle == nil {
		c.fail(sessionID, "browser handle went away before cookies could be read")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	cookies, err := handle.Cookies(ctx)
	if err != nil {
		c.fail(sessionID, "failed to read browser cookies: "+err.Error())
		return
	}

	data := model.AuthData{
		Provider:   "terabox",
		JSToken:    token,
		Cookies:    c.filter(cookies),
		CapturedAt: time.Now().UTC(),
	}

	if err := c.saver.SaveCaptured(ctx, data); err != nil {
		c.fail(sessionID, "failed to persist captured session: "+err.Error())
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.sess.SessionID != sessionID {
		return
	}
	c.sess.Status = model.SessionSuccess
	c.sess.Message = "session captured"
	c.sess.AuthData = &data
	slog.Info("capture succeeded", "session_id", sessionID, "cookies", len(data.Cookies))
}

// waitForHandle bridges the gap between the observer firing during launch
// and the handle being stored once launch returns.
func (c *Controller) waitForHandle(sessionID string, timeout time.Duration) Handle {
	deadline := time.Now().Add(timeout)
	for {
		c.mu.Lock()
		if c.sess == nil || c.sess.SessionID != sessionID {
			c.mu.Unlock()
			return nil
		}
		handle := c.handle
		c.mu.Unlock()

		if handle != nil {
			return handle
		}
		if time.Now().After(deadline) {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (c *Controller) browserClosed(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil || c.sess.SessionID != sessionID {
		return
	}
	c.handle = nil
	if c.sess.Status == model.SessionSuccess {
		return
	}
	c.sess.Status = model.SessionFailed
	c.sess.Message = "browser closed before a session was captured"
	slog.Warn("capture failed", "session_id", sessionID, "reason", c.sess.Message)
}

func (c *Controller) fail(sessionID string, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sess == nil || c.sess.SessionID != sessionID || c.sess.Status == model.SessionSuccess {
		return
	}
	c.sess.Status = model.SessionFailed
	c.sess.Message = message
	slog.Warn("capture failed", "session_id", sessionID, "reason", message)
}

// tokenFromURL extracts a plausible session token from an outbound request
// URL, or "" when the request does not qualify.
func tokenFromURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	token := parsed.Query().Get("jsToken")
	if len(token) < minTokenLength {
		return ""
	}
	return token
}
