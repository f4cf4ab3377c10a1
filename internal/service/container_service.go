package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vault-gateway/internal/model"
	"vault-gateway/internal/shareurl"
)

// ContainerService manages the catalog of registered shares.
type ContainerService struct {
	containers ContainerStore
	items      ItemStore
}

func NewContainerService(containers ContainerStore, items ItemStore) *ContainerService {
	return &ContainerService{containers: containers, items: items}
}

// Create validates the share URL up front so a bad link never enters the
// catalog.
func (s *ContainerService) Create(ctx context.Context, req model.CreateContainerRequest) (*model.Container, error) {
	ref, err := shareurl.Resolve(req.ShareURL)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = ref
	}

	now := time.Now().UTC()
	container := model.Container{
		ID:        uuid.New().String(),
		Name:      name,
		ShareURL:  req.ShareURL,
		ShareRef:  ref,
		Type:      model.ContainerUnknown,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.containers.Create(ctx, container); err != nil {
		return nil, err
	}

	slog.Info("container created", "container_id", container.ID, "share_ref", ref)
	return &container, nil
}

func (s *ContainerService) Get(ctx context.Context, id string) (*model.Container, error) {
	return s.containers.Get(ctx, id)
}

func (s *ContainerService) List(ctx context.Context) ([]model.Container, error) {
	return s.containers.List(ctx)
}

func (s *ContainerService) Delete(ctx context.Context, id string) error {
	if err := s.containers.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("container deleted", "container_id", id)
	return nil
}

// Items returns the listing persisted by the last authenticated fetch.
func (s *ContainerService) Items(ctx context.Context, id string) ([]model.RemoteItem, error) {
	if _, err := s.containers.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.items.ListByContainer(ctx, id)
}
