package domain

import "strings"

// CleanList trims entries, drops empty ones and caps the result at max
// entries (max <= 0 means no cap). The result is never nil.
func CleanList(in []string, max int) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// NormalizeTags trims tags, drops empty entries and removes duplicates
// case-insensitively, keeping the first spelling seen. Tags matching the
// controlled vocabulary take the vocabulary spelling. The result is capped
// at max entries (max <= 0 means no cap) and is never nil.
func NormalizeTags(in []string, max int) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, canonicalTag(tag))
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

func canonicalTag(tag string) string {
	for _, v := range TagVocabulary {
		if strings.EqualFold(v, tag) {
			return v
		}
	}
	return tag
}

// IndexOf returns the position of id in ids, or -1.
func IndexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// RemoveID returns ids without any occurrence of id, as a new slice.
func RemoveID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// InsertID returns a new slice with id inserted at pos.
// pos < 0 or pos >= len(ids) appends.
func InsertID(ids []string, id string, pos int) []string {
	out := make([]string, 0, len(ids)+1)
	if pos < 0 || pos >= len(ids) {
		out = append(out, ids...)
		return append(out, id)
	}
	out = append(out, ids[:pos]...)
	out = append(out, id)
	return append(out, ids[pos:]...)
}

// ReplaceID returns a new slice where every occurrence of oldID is newID.
func ReplaceID(ids []string, oldID, newID string) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		if v == oldID {
			v = newID
		}
		out[i] = v
	}
	return out
}
