package model

type CreateContainerRequest struct {
	Name     string `json:"name"`
	ShareURL string `json:"shareUrl"`
}

type ContainerListData struct {
	Containers []Container `json:"containers"`
}

type ItemListData struct {
	Items []RemoteItem `json:"items"`
}

// TokenSummary is the active-token view exposed over HTTP. The credential
// itself never leaves the process.
type TokenSummary struct {
	Present    bool    `json:"present"`
	Provider   string  `json:"provider,omitempty"`
	CapturedAt string  `json:"capturedAt,omitempty"`
	LastUsedAt *string `json:"lastUsedAt,omitempty"`
}
