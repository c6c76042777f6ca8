// package models defines the data model for the training tracker
package models

import (
	"encoding/json"
	"strings"
)

// CategoryRef is a category reference embedded in a [Video].
//
// The API sends either a bare name or an object carrying at least a name.
type CategoryRef struct {
	ID   Ident  `json:"id,omitempty"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// UnmarshalJSON accepts a plain string or an object.
func (c *CategoryRef) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw != "" && raw[0] == '"' {
		*c = CategoryRef{}
		return json.Unmarshal(b, &c.Name)
	}

	type alias CategoryRef
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*c = CategoryRef(a)
	return nil
}

// Video is a training video as reported by the API.
type Video struct {
	ID           VideoID       `json:"video_id"`
	Title        string        `json:"title"`
	Duration     int           `json:"duration"` // Duration in seconds
	ThumbnailURL string        `json:"thumbnail_url"`
	URL          string        `json:"youtube_url"`
	Categories   []CategoryRef `json:"categories,omitempty"`
	Sequence     int           `json:"sequence,omitempty"`
	CreatorID    Ident         `json:"creator_id,omitempty"`
	Watched      bool          `json:"watched"`
	UploadDate   string        `json:"upload_date,omitempty"`
}

// UnmarshalJSON decodes a video, falling back to "id" for the identifier and "youtuber_id" for the creator.
func (v *Video) UnmarshalJSON(b []byte) error {
	type alias Video
	aux := struct {
		*alias
		AltID      VideoID `json:"id"`
		YoutuberID Ident   `json:"youtuber_id"`
	}{alias: (*alias)(v)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	if !v.ID.Valid() {
		v.ID = aux.AltID
	}
	if v.CreatorID == "" {
		v.CreatorID = aux.YoutuberID
	}
	return nil
}

// CategoryNames returns the names of the categories the video is tagged with, skipping empty names.
func (v Video) CategoryNames() []string {
	names := make([]string, 0, len(v.Categories))
	for _, c := range v.Categories {
		if name := strings.TrimSpace(c.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// HasCategory reports whether the video is tagged with the named category.
func (v Video) HasCategory(name string) bool {
	for _, n := range v.CategoryNames() {
		if n == name {
			return true
		}
	}
	return false
}

// Creator is a content provider whose videos are grouped together.
type Creator struct {
	ID         Ident  `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	ChannelURL string `json:"channel_url,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// TaxonomyItem is a server-side category or tag.
type TaxonomyItem struct {
	ID    Ident  `json:"id,omitempty"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count,omitempty"`
}

// Category summarizes a system or user-defined category for display.
type Category struct {
	Name        string
	Slug        string
	VideoIDs    []VideoID
	Watched     int
	Total       int
	UserDefined bool
}

// Progress returns the watched percentage in [0, 100].
func (c Category) Progress() float64 {
	return percent(c.Watched, c.Total)
}

// UserCategory is a client-local grouping of videos owned by one creator.
type UserCategory struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatorID string    `json:"creatorId"`
	VideoIDs  []VideoID `json:"videoIds"`
}

// Contains reports whether videoID is a member of the category.
func (u UserCategory) Contains(videoID VideoID) bool {
	for _, id := range u.VideoIDs {
		if id == videoID {
			return true
		}
	}
	return false
}

// ProgressSummary holds watched and total counts for a set of videos.
type ProgressSummary struct {
	Watched int
	Total   int
}

// Percent returns the watched percentage in [0, 100].
func (p ProgressSummary) Percent() float64 {
	return percent(p.Watched, p.Total)
}

// Page is one page of a server-paginated collection.
type Page[T any] struct {
	Data       []T `json:"data"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// StateStore persists JSON-serializable values under fixed keys.
//
// It stands in for the browser's local storage: values are loaded at startup and written on every mutation.
type StateStore interface {
	Load(key string, v any) (bool, error) // Load decodes the value stored at key into v, reporting whether it existed
	Save(key string, v any) error         // Save encodes v and stores it at key, replacing any previous value
	Delete(key string) error              // Delete removes key
}

func percent(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
