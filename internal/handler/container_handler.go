package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"vault-gateway/internal/model"
	"vault-gateway/internal/service"
	"vault-gateway/pkg/apierror"
)

type ContainerHandler struct {
	containers *service.ContainerService
	fetch      *service.FetchService
}

func NewContainerHandler(containers *service.ContainerService, fetch *service.FetchService) *ContainerHandler {
	return &ContainerHandler{containers: containers, fetch: fetch}
}

func (h *ContainerHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CreateContainerRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	payload.ShareURL = strings.TrimSpace(payload.ShareURL)

	container, err := h.containers.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, container, nil)
}

func (h *ContainerHandler) List(w http.ResponseWriter, r *http.Request) {
	containers, err := h.containers.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, model.ContainerListData{Containers: containers}, nil)
}

func (h *ContainerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, apierror.New("BAD_REQUEST", "container id is required", "id", http.StatusBadRequest))
		return
	}

	container, err := h.containers.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, container, nil)
}

func (h *ContainerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, apierror.New("BAD_REQUEST", "container id is required", "id", http.StatusBadRequest))
		return
	}

	if err := h.containers.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"id": id}, nil)
}

func (h *ContainerHandler) Items(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, apierror.New("BAD_REQUEST", "container id is required", "id", http.StatusBadRequest))
		return
	}

	items, err := h.containers.Items(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, model.ItemListData{Items: items}, nil)
}

func (h *ContainerHandler) PublicFetch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, apierror.New("BAD_REQUEST", "container id is required", "id", http.StatusBadRequest))
		return
	}

	info, err := h.fetch.PublicFetch(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, info, nil)
}

func (h *ContainerHandler) AuthFetch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, apierror.New("BAD_REQUEST", "container id is required", "id", http.StatusBadRequest))
		return
	}

	items, err := h.fetch.AuthFetch(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, model.ItemListData{Items: items}, nil)
}
