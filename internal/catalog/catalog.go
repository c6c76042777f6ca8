// Package catalog derives category buckets and progress summaries from a flat video list.
//
// System categories come from the category references embedded in each video. User-defined
// categories for the active creator are merged into the same name space, so a user category
// named like a system category extends it instead of shadowing it.
package catalog

import (
	"slices"
	"sort"
	"strings"

	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/shared"
	"github.com/sahilm/fuzzy"
)

// CategoryMap maps a category name to its member video ids.
//
// Buckets hold each id once and are sorted ascending.
type CategoryMap map[string][]models.VideoID

// BuildCategoryMap groups videos by category name and merges in the user categories owned by creatorID.
//
// Videos without a valid identifier are skipped. An empty creatorID merges no user categories.
func BuildCategoryMap(videos []models.Video, userCats []models.UserCategory, creatorID string) CategoryMap {
	sets := make(map[string]map[models.VideoID]struct{})
	add := func(name string, id models.VideoID) {
		if !id.Valid() {
			return
		}
		bucket, ok := sets[name]
		if !ok {
			bucket = make(map[models.VideoID]struct{})
			sets[name] = bucket
		}
		bucket[id] = struct{}{}
	}

	for _, v := range videos {
		if !v.ID.Valid() {
			continue
		}
		for _, name := range v.CategoryNames() {
			add(name, v.ID)
		}
	}

	for _, uc := range userCats {
		if creatorID == "" || uc.CreatorID != creatorID {
			continue
		}
		name := strings.TrimSpace(uc.Name)
		if name == "" {
			continue
		}
		if _, ok := sets[name]; !ok {
			sets[name] = make(map[models.VideoID]struct{})
		}
		for _, id := range uc.VideoIDs {
			add(name, id)
		}
	}

	m := make(CategoryMap, len(sets))
	for name, bucket := range sets {
		ids := make([]models.VideoID, 0, len(bucket))
		for id := range bucket {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		m[name] = ids
	}
	return m
}

// Names returns the category names sorted case-insensitively.
func (m CategoryMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sortNames(names)
	return names
}

// Contains reports whether id is a member of the named category.
func (m CategoryMap) Contains(name string, id models.VideoID) bool {
	_, found := slices.BinarySearch(m[name], id)
	return found
}

func sortNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		a, b := shared.FoldName(names[i]), shared.FoldName(names[j])
		if a == b {
			return names[i] < names[j]
		}
		return a < b
	})
}

// Summarize converts a category map into display summaries sorted by name.
//
// A category is marked user-defined when one of creatorID's user categories carries its name.
// isWatched may be nil, in which case every watched count is zero.
func Summarize(m CategoryMap, userCats []models.UserCategory, creatorID string, isWatched func(models.VideoID) bool) []models.Category {
	userDefined := make(map[string]bool)
	for _, uc := range userCats {
		if creatorID != "" && uc.CreatorID == creatorID {
			userDefined[strings.TrimSpace(uc.Name)] = true
		}
	}

	summaries := make([]models.Category, 0, len(m))
	for _, name := range m.Names() {
		ids := m[name]
		c := models.Category{
			Name:        name,
			Slug:        shared.Slugify(name),
			VideoIDs:    ids,
			Total:       len(ids),
			UserDefined: userDefined[name],
		}
		if isWatched != nil {
			for _, id := range ids {
				if isWatched(id) {
					c.Watched++
				}
			}
		}
		summaries = append(summaries, c)
	}
	return summaries
}

// FilterByCreator returns the videos owned by creatorID, or all videos when creatorID is empty.
func FilterByCreator(videos []models.Video, creatorID models.Ident) []models.Video {
	if creatorID == "" {
		return videos
	}

	filtered := make([]models.Video, 0, len(videos))
	for _, v := range videos {
		if v.CreatorID == creatorID {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// VideosIn returns the videos whose ids are in ids, ordered by sequence then id.
func VideosIn(videos []models.Video, ids []models.VideoID) []models.Video {
	members := make(map[models.VideoID]bool, len(ids))
	for _, id := range ids {
		members[id] = true
	}

	seen := make(map[models.VideoID]bool, len(ids))
	matched := make([]models.Video, 0, len(ids))
	for _, v := range videos {
		if members[v.ID] && !seen[v.ID] {
			seen[v.ID] = true
			matched = append(matched, v)
		}
	}

	SortBySequence(matched)
	return matched
}

// SortBySequence orders videos by sequence number, then by id.
func SortBySequence(videos []models.Video) {
	sort.SliceStable(videos, func(i, j int) bool {
		if videos[i].Sequence != videos[j].Sequence {
			return videos[i].Sequence < videos[j].Sequence
		}
		return videos[i].ID < videos[j].ID
	})
}

// FirstCategory returns the first category name of the first video that has one, or "".
func FirstCategory(videos []models.Video) string {
	for _, v := range videos {
		if names := v.CategoryNames(); len(names) > 0 {
			return names[0]
		}
	}
	return ""
}

type titles []models.Video

func (t titles) String(i int) string { return t[i].Title }
func (t titles) Len() int            { return len(t) }

// Search returns the videos whose titles fuzzy-match query, best match first.
//
// A blank query returns videos unchanged.
func Search(videos []models.Video, query string) []models.Video {
	query = strings.TrimSpace(query)
	if query == "" {
		return videos
	}

	matches := fuzzy.FindFrom(query, titles(videos))
	results := make([]models.Video, 0, len(matches))
	for _, match := range matches {
		results = append(results, videos[match.Index])
	}
	return results
}

// Summary counts watched videos among the distinct valid ids in videos.
func Summary(videos []models.Video, isWatched func(models.VideoID) bool) models.ProgressSummary {
	seen := make(map[models.VideoID]bool, len(videos))
	var s models.ProgressSummary
	for _, v := range videos {
		if !v.ID.Valid() || seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		s.Total++
		if isWatched != nil && isWatched(v.ID) {
			s.Watched++
		}
	}
	return s
}
