package model

import "time"

type ContentCategory string

const (
	CategoryVideo    ContentCategory = "video"
	CategoryImage    ContentCategory = "image"
	CategoryAudio    ContentCategory = "audio"
	CategoryDocument ContentCategory = "document"
	CategoryArchive  ContentCategory = "archive"
	CategoryOther    ContentCategory = "other"
)

// RemoteItem is one entry of a remote listing. Constructed fresh on every
// fetch and never mutated; the persistence layer decides whether stored rows
// get replaced.
type RemoteItem struct {
	FSID     int64             `json:"fsId"`
	Name     string            `json:"name"`
	Path     string            `json:"path"`
	IsFolder bool              `json:"isFolder"`
	Size     *int64            `json:"size,omitempty"`
	SizeText string            `json:"sizeText,omitempty"`
	Category ContentCategory   `json:"category"`
	MD5      string            `json:"md5,omitempty"`
	// DLink is time-limited and only present after an authenticated fetch.
	DLink  string            `json:"dlink,omitempty"`
	Thumbs map[string]string `json:"thumbs,omitempty"`
}

// PublicShareInfo is the coarse metadata the anonymous fetch yields.
type PublicShareInfo struct {
	Surl      string `json:"surl"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	ItemCount int    `json:"itemCount"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

type ContainerType string

const (
	ContainerUnknown  ContainerType = "unknown"
	ContainerSingle   ContainerType = "single"
	ContainerFolder   ContainerType = "folder"
	ContainerMultiple ContainerType = "multiple"
)

// Container is a catalog entry backed by one remote share.
type Container struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	ShareURL  string        `json:"shareUrl"`
	ShareRef  string        `json:"shareRef"`
	Type      ContainerType `json:"type"`
	Title     string        `json:"title,omitempty"`
	ItemCount int           `json:"itemCount"`
	Thumbnail string        `json:"thumbnail,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
