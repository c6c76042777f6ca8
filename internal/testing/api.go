package testing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/desertthunder/ptt/internal/models"
)

// ErrFakeAPI is returned by [FakeAPI] operations configured to fail.
var ErrFakeAPI = errors.New("fake api failure")

// FakeAPI is an in-memory stand-in for the tracker REST API.
//
// Fail* fields make the matching operation return [ErrFakeAPI]. Calls records each operation by name.
type FakeAPI struct {
	mu         sync.Mutex
	videos     []models.Video
	creators   []models.Creator
	categories []models.TaxonomyItem
	tags       []models.TaxonomyItem

	FailVideos bool
	FailToggle bool
	FailReset  bool
	FailWrites bool
	Calls      []string
}

// NewFakeAPI creates a FakeAPI serving videos and creators.
func NewFakeAPI(videos []models.Video, creators []models.Creator) *FakeAPI {
	return &FakeAPI{
		videos:   append([]models.Video(nil), videos...),
		creators: append([]models.Creator(nil), creators...),
	}
}

func (f *FakeAPI) record(name string) {
	f.Calls = append(f.Calls, name)
}

// CallCount returns how many times the named operation ran.
func (f *FakeAPI) CallCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == name {
			n++
		}
	}
	return n
}

// SetWatched overwrites the server-side watched flag without recording a call.
func (f *FakeAPI) SetWatched(id models.VideoID, watched bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.videos {
		if f.videos[i].ID == id {
			f.videos[i].Watched = watched
		}
	}
}

// WatchedOnServer reports the server-side watched flag of id.
func (f *FakeAPI) WatchedOnServer(id models.VideoID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.videos {
		if v.ID == id {
			return v.Watched
		}
	}
	return false
}

func (f *FakeAPI) Videos(ctx context.Context) ([]models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Videos")
	if f.FailVideos {
		return nil, ErrFakeAPI
	}
	return append([]models.Video(nil), f.videos...), nil
}

func (f *FakeAPI) page(videos []models.Video, page, limit int) *models.Page[models.Video] {
	if limit <= 0 {
		limit = 12
	}
	if page <= 0 {
		page = 1
	}
	start := min((page-1)*limit, len(videos))
	end := min(start+limit, len(videos))
	return &models.Page[models.Video]{
		Data:       append([]models.Video{}, videos[start:end]...),
		Page:       page,
		Limit:      limit,
		Total:      len(videos),
		TotalPages: (len(videos) + limit - 1) / limit,
	}
}

func (f *FakeAPI) VideosByCategory(ctx context.Context, slug string, page, limit int) (*models.Page[models.Video], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("VideosByCategory")
	if f.FailVideos {
		return nil, ErrFakeAPI
	}

	var matched []models.Video
	for _, v := range f.videos {
		for _, c := range v.Categories {
			if c.Slug == slug || c.Name == slug {
				matched = append(matched, v)
				break
			}
		}
	}
	return f.page(matched, page, limit), nil
}

func (f *FakeAPI) VideosByCreator(ctx context.Context, creatorID models.Ident, page, limit int) (*models.Page[models.Video], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("VideosByCreator")
	if f.FailVideos {
		return nil, ErrFakeAPI
	}

	var matched []models.Video
	for _, v := range f.videos {
		if v.CreatorID == creatorID {
			matched = append(matched, v)
		}
	}
	return f.page(matched, page, limit), nil
}

func (f *FakeAPI) CreateVideo(ctx context.Context, video models.Video) (*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateVideo")
	if f.FailWrites {
		return nil, ErrFakeAPI
	}

	var next models.VideoID
	for _, v := range f.videos {
		next = max(next, v.ID)
	}
	video.ID = next + 1
	f.videos = append(f.videos, video)
	return &video, nil
}

func (f *FakeAPI) setWatched(name string, id models.VideoID, watched bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(name)
	if f.FailToggle {
		return ErrFakeAPI
	}
	for i := range f.videos {
		if f.videos[i].ID == id {
			f.videos[i].Watched = watched
			return nil
		}
	}
	return fmt.Errorf("%w: video %d not found", ErrFakeAPI, id)
}

func (f *FakeAPI) MarkWatched(ctx context.Context, id models.VideoID) error {
	return f.setWatched("MarkWatched", id, true)
}

func (f *FakeAPI) MarkUnwatched(ctx context.Context, id models.VideoID) error {
	return f.setWatched("MarkUnwatched", id, false)
}

func (f *FakeAPI) ResetProgress(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ResetProgress")
	if f.FailReset {
		return 0, ErrFakeAPI
	}
	count := 0
	for i := range f.videos {
		if f.videos[i].Watched {
			f.videos[i].Watched = false
			count++
		}
	}
	return count, nil
}

func (f *FakeAPI) listTaxonomy(name string, tags bool) ([]models.TaxonomyItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(name)
	if f.FailVideos {
		return nil, ErrFakeAPI
	}
	items := f.categories
	if tags {
		items = f.tags
	}
	out := append([]models.TaxonomyItem{}, items...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *FakeAPI) Categories(ctx context.Context) ([]models.TaxonomyItem, error) {
	return f.listTaxonomy("Categories", false)
}

func (f *FakeAPI) Tags(ctx context.Context) ([]models.TaxonomyItem, error) {
	return f.listTaxonomy("Tags", true)
}

func (f *FakeAPI) CreateCategory(ctx context.Context, name, slug string) (*models.TaxonomyItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateCategory")
	if f.FailWrites {
		return nil, ErrFakeAPI
	}
	item := models.TaxonomyItem{ID: models.Ident(fmt.Sprint(len(f.categories) + 1)), Name: name, Slug: slug}
	f.categories = append(f.categories, item)
	return &item, nil
}

func (f *FakeAPI) CreateTag(ctx context.Context, name, slug string) (*models.TaxonomyItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateTag")
	if f.FailWrites {
		return nil, ErrFakeAPI
	}
	item := models.TaxonomyItem{ID: models.Ident(fmt.Sprint(len(f.tags) + 1)), Name: name, Slug: slug}
	f.tags = append(f.tags, item)
	return &item, nil
}

func removeBySlug(items []models.TaxonomyItem, slug string) ([]models.TaxonomyItem, bool) {
	for i, item := range items {
		if item.Slug == slug {
			return append(items[:i], items[i+1:]...), true
		}
	}
	return items, false
}

func (f *FakeAPI) DeleteCategory(ctx context.Context, slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteCategory")
	if f.FailWrites {
		return ErrFakeAPI
	}
	var ok bool
	if f.categories, ok = removeBySlug(f.categories, slug); !ok {
		return fmt.Errorf("%w: category %s not found", ErrFakeAPI, slug)
	}
	return nil
}

func (f *FakeAPI) DeleteTag(ctx context.Context, slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteTag")
	if f.FailWrites {
		return ErrFakeAPI
	}
	var ok bool
	if f.tags, ok = removeBySlug(f.tags, slug); !ok {
		return fmt.Errorf("%w: tag %s not found", ErrFakeAPI, slug)
	}
	return nil
}

func (f *FakeAPI) Creators(ctx context.Context) ([]models.Creator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Creators")
	if f.FailVideos {
		return nil, ErrFakeAPI
	}
	return append([]models.Creator(nil), f.creators...), nil
}

func (f *FakeAPI) CreateCreator(ctx context.Context, creator models.Creator) (*models.Creator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateCreator")
	if f.FailWrites {
		return nil, ErrFakeAPI
	}
	creator.ID = models.Ident(fmt.Sprint(len(f.creators) + 1))
	f.creators = append(f.creators, creator)
	return &creator, nil
}

func (f *FakeAPI) DeleteCreator(ctx context.Context, slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteCreator")
	if f.FailWrites {
		return ErrFakeAPI
	}
	for i, c := range f.creators {
		if c.Slug == slug {
			f.creators = append(f.creators[:i], f.creators[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: creator %s not found", ErrFakeAPI, slug)
}
