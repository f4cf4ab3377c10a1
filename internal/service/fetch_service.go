package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidwall/gjson"

	"vault-gateway/internal/model"
	"vault-gateway/internal/shareurl"
)

// ShareInfoProbe observes the public share page and returns the raw body of
// the share-info API response. Implemented by browser.ShareProbe.
type ShareInfoProbe interface {
	ShareInfo(ctx context.Context, ref string) ([]byte, error)
}

// ShareLister is the authenticated listing client. Implemented by
// terabox.Client.
type ShareLister interface {
	ListShare(ctx context.Context, ref string, auth *model.AuthData) ([]model.RemoteItem, error)
}

type ContainerStore interface {
	Create(ctx context.Context, c model.Container) error
	Get(ctx context.Context, id string) (*model.Container, error)
	List(ctx context.Context) ([]model.Container, error)
	Delete(ctx context.Context, id string) error
	UpdateShareInfo(ctx context.Context, id string, info model.PublicShareInfo) error
	UpdateItemCount(ctx context.Context, id string, count int) error
}

type ItemStore interface {
	ReplaceForContainer(ctx context.Context, containerID string, items []model.RemoteItem) error
	ListByContainer(ctx context.Context, containerID string) ([]model.RemoteItem, error)
}

// FetchService runs the two retrieval strategies. Both are stateless and
// safe to run in parallel for different containers; the only shared state is
// the read of the token store on the authenticated path.
type FetchService struct {
	probe         ShareInfoProbe
	lister        ShareLister
	tokens        *TokenService
	containers    ContainerStore
	items         ItemStore
	publicTimeout time.Duration
}

func NewFetchService(
	probe ShareInfoProbe,
	lister ShareLister,
	tokens *TokenService,
	containers ContainerStore,
	items ItemStore,
	publicTimeout time.Duration,
) *FetchService {
	return &FetchService{
		probe:         probe,
		lister:        lister,
		tokens:        tokens,
		containers:    containers,
		items:         items,
		publicTimeout: publicTimeout,
	}
}

// PublicFetch resolves a container's share anonymously: coarse metadata
// only, no direct links.
func (s *FetchService) PublicFetch(ctx context.Context, containerID string) (*model.PublicShareInfo, error) {
	container, err := s.containers.Get(ctx, containerID)
	if err != nil {
		return nil, err
	}

	ref, err := shareurl.Resolve(container.ShareURL)
	if err != nil {
		return nil, err
	}

	probeCtx, cancel := context.WithTimeout(ctx, s.publicTimeout)
	defer cancel()

	body, err := s.probe.ShareInfo(probeCtx, ref)
	if err != nil {
		return nil, fmt.Errorf("observe share info: %w", err)
	}

	info, err := parseShareInfo(body, ref)
	if err != nil {
		return nil, err
	}

	if err := s.containers.UpdateShareInfo(ctx, containerID, *info); err != nil {
		return nil, err
	}

	slog.Info("public fetch completed", "container_id", containerID,
		"type", info.Type, "items", info.ItemCount)
	return info, nil
}

// AuthFetch resolves a container's share with the active credential, stores
// the full listing including direct links, and returns it. Fails with
// model.ErrTokenNotFound when nothing was ever captured.
func (s *FetchService) AuthFetch(ctx context.Context, containerID string) ([]model.RemoteItem, error) {
	container, err := s.containers.Get(ctx, containerID)
	if err != nil {
		return nil, err
	}

	ref, err := shareurl.Resolve(container.ShareURL)
	if err != nil {
		return nil, err
	}

	auth, err := s.tokens.ActiveAuthData(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.lister.ListShare(ctx, ref, auth)
	if err != nil {
		// A non-JSON answer means the session went stale; demote the token so
		// the client is routed to the capture flow instead of retrying.
		if errors.Is(err, model.ErrUnexpectedResponse) {
			if invErr := s.tokens.InvalidateActive(ctx); invErr != nil {
				slog.Warn("failed to invalidate stale token", "error", invErr)
			}
		}
		return nil, err
	}

	if err := s.items.ReplaceForContainer(ctx, containerID, items); err != nil {
		return nil, err
	}
	if err := s.containers.UpdateItemCount(ctx, containerID, len(items)); err != nil {
		return nil, err
	}

	slog.Info("authenticated fetch completed", "container_id", containerID, "items", len(items))
	return items, nil
}

// thumbTiers orders thumbnail keys largest first so classification degrades
// gracefully when a tier is missing.
var thumbTiers = []string{"url3", "url2", "url1", "icon"}

func parseShareInfo(body []byte, ref string) (*model.PublicShareInfo, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("share info body is not JSON: %w", model.ErrUnexpectedResponse)
	}

	root := gjson.ParseBytes(body)
	if errno := root.Get("errno").Int(); errno != 0 {
		return nil, &model.RemoteAPIError{Errno: int(errno)}
	}

	list := root.Get("list").Array()

	info := &model.PublicShareInfo{
		Surl:      ref,
		ItemCount: len(list),
	}

	switch {
	case len(list) == 0:
		info.Type = string(model.ContainerUnknown)
	case len(list) == 1 && list[0].Get("isdir").Int() != 0:
		info.Type = string(model.ContainerFolder)
	case len(list) == 1:
		info.Type = string(model.ContainerSingle)
	default:
		info.Type = string(model.ContainerMultiple)
	}

	info.Title = root.Get("title").String()
	if info.Title == "" && len(list) > 0 {
		info.Title = list[0].Get("server_filename").String()
	}
	if info.Title == "" {
		info.Title = "Shared content"
	}

	if len(list) > 0 {
		thumbs := list[0].Get("thumbs")
		for _, tier := range thumbTiers {
			if url := thumbs.Get(tier).String(); url != "" {
				info.Thumbnail = url
				break
			}
		}
	}

	return info, nil
}
