package models

import "strings"

// MetadataTemplateID is the metadata key stamped on goals created from a template
const MetadataTemplateID = "templateId"

// CloneMetadata returns a shallow copy of a metadata bag. Nested values are shared.
func CloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MergeMetadata merges bags left to right; later bags win on key collisions.
// The result is never nil.
func MergeMetadata(bags ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, bag := range bags {
		for k, v := range bag {
			out[k] = v
		}
	}
	return out
}

// NormalizeTags trims tags, drops empties and duplicates, and keeps first-seen order
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		out = appendIfNotExists(out, tag)
	}
	return out
}

// TagSet builds a case-insensitive lookup set from tags
func TagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			set[tag] = struct{}{}
		}
	}
	return set
}

// CountTagsIn counts how many of tags are present in set
func CountTagsIn(tags []string, set map[string]struct{}) int {
	n := 0
	for _, tag := range tags {
		if _, ok := set[strings.ToLower(strings.TrimSpace(tag))]; ok {
			n++
		}
	}
	return n
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func appendIfNotExists(slice []string, item string) []string {
	if !contains(slice, item) {
		return append(slice, item)
	}
	return slice
}
