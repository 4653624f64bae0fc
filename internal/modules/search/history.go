package search

import "strings"

// pushRecent moves p to the front, dropping any equivalent entry, and keeps at most MaxRecentSearches.
// The input slice is never modified.
func pushRecent(list []SearchParams, p SearchParams) []SearchParams {
	out := make([]SearchParams, 0, min(len(list)+1, MaxRecentSearches))
	out = append(out, p)
	for _, e := range list {
		if len(out) == MaxRecentSearches {
			break
		}
		if !e.SameSearch(p) {
			out = append(out, e)
		}
	}
	return out
}

func bookmarkIndex(list []Bookmark, address string) int {
	key := normalize(address)
	for i, b := range list {
		if normalize(b.Address) == key {
			return i
		}
	}
	return -1
}

// upsertBookmark renames an address-equal bookmark in place, or prepends a new one.
func upsertBookmark(list []Bookmark, name, address string, newID func() string) ([]Bookmark, Bookmark) {
	address = strings.TrimSpace(address)
	name = strings.TrimSpace(name)
	if name == "" {
		name = address
	}

	if i := bookmarkIndex(list, address); i >= 0 {
		out := append([]Bookmark(nil), list...)
		out[i].Name = name
		return out, out[i]
	}

	b := Bookmark{ID: newID(), Name: name, Address: address}
	out := make([]Bookmark, 0, len(list)+1)
	out = append(out, b)
	return append(out, list...), b
}

func removeBookmark(list []Bookmark, id string) ([]Bookmark, bool) {
	out := make([]Bookmark, 0, len(list))
	for _, b := range list {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out, len(out) != len(list)
}
