package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// shareInfoMarker identifies the listing API response the share page fires;
// its body is the payload the public fetch is after.
const shareInfoMarker = "api/shorturlinfo"

// ShareProbe loads a public share page in a throwaway headless browser and
// captures the share-info API response observed on the network. Each call
// gets its own browser; teardown happens on every path, success or not.
type ShareProbe struct {
	baseURL   string
	userAgent string
}

func NewShareProbe(baseURL string, userAgent string) *ShareProbe {
	return &ShareProbe{baseURL: strings.TrimRight(baseURL, "/"), userAgent: userAgent}
}

func (p *ShareProbe) ShareInfo(ctx context.Context, ref string) ([]byte, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(p.userAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	bodyCh := make(chan []byte, 1)
	errCh := make(chan error, 1)

	var mu sync.Mutex
	var wantID network.RequestID

	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventResponseReceived:
			if strings.Contains(e.Response.URL, shareInfoMarker) {
				mu.Lock()
				if wantID == "" {
					wantID = e.RequestID
				}
				mu.Unlock()
			}
		case *network.EventLoadingFinished:
			mu.Lock()
			matched := wantID != "" && e.RequestID == wantID
			mu.Unlock()
			if !matched {
				return
			}

			// The body has to be fetched with the target's executor; doing it
			// inside the listener would deadlock the event loop.
			go func(id network.RequestID) {
				c := chromedp.FromContext(taskCtx)
				body, err := network.GetResponseBody(id).Do(cdp.WithExecutor(taskCtx, c.Target))
				if err != nil {
					select {
					case errCh <- fmt.Errorf("read share info body: %w", err):
					default:
					}
					return
				}
				select {
				case bodyCh <- body:
				default:
				}
			}(e.RequestID)
		}
	})

	if err := chromedp.Run(taskCtx,
		network.Enable(),
		chromedp.Navigate(p.shareURL(ref)),
	); err != nil {
		return nil, fmt.Errorf("load share page: %w", err)
	}

	select {
	case body := <-bodyCh:
		return body, nil
	case err := <-errCh:
		return nil, err
	case <-taskCtx.Done():
		return nil, fmt.Errorf("share info response not observed: %w", taskCtx.Err())
	}
}

func (p *ShareProbe) shareURL(ref string) string {
	return p.baseURL + "/sharing/link?surl=" + ref
}
