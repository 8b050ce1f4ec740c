// Package category resolves ">"-delimited category hierarchy paths against
// the catalog's category tree.
package category

import (
	"regexp"
	"strings"

	"github.com/shelfwatch/shelfwatch/internal/model"
)

const defaultCategoryName = "home"

var nonWordRe = regexp.MustCompile(`[^a-z0-9]+`)

type entry struct {
	parentID *int64
	id       int64
}

// Index maps normalized category names to their candidate rows. Built once
// per run from the full category table; resolution is read-only after that.
type Index struct {
	byName    map[string][]entry
	defaultID int64
}

// NewIndex builds a resolution index from the category table. The default
// category is the root named "Home"; if no such row exists the first root
// encountered stands in.
func NewIndex(categories []model.Category) *Index {
	ix := &Index{byName: make(map[string][]entry, len(categories))}

	for _, c := range categories {
		name := normalizeName(c.Name)
		ix.byName[name] = append(ix.byName[name], entry{id: c.ID, parentID: c.ParentID})

		if c.ParentID == nil {
			if name == defaultCategoryName {
				ix.defaultID = c.ID
			} else if ix.defaultID == 0 {
				ix.defaultID = c.ID
			}
		}
	}
	return ix
}

// DefaultID returns the fallback category id used when a path resolves
// nothing.
func (ix *Index) DefaultID() int64 {
	return ix.defaultID
}

// Resolve walks a hierarchy path from its most specific segment toward the
// most general, validating each candidate against the parent level. It never
// fails: unresolvable paths land on the default category.
func (ix *Index) Resolve(path string) int64 {
	segments := splitPath(path)

	for i := len(segments) - 1; i >= 0; i-- {
		candidates := ix.byName[segments[i]]
		if len(candidates) == 0 {
			continue
		}

		if i > 0 {
			parentIDs := make(map[int64]bool)
			for _, p := range ix.byName[segments[i-1]] {
				parentIDs[p.id] = true
			}
			for _, c := range candidates {
				if c.parentID != nil && parentIDs[*c.parentID] {
					return c.id
				}
			}
		}

		// no parent level to validate against, or nothing validated:
		// best-effort first candidate
		return candidates[0].id
	}

	return ix.defaultID
}

func splitPath(path string) []string {
	var segments []string
	for _, seg := range strings.Split(path, ">") {
		if s := normalizeName(seg); s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

func normalizeName(name string) string {
	return nonWordRe.ReplaceAllString(strings.ToLower(name), "")
}
