package task

import (
	"errors"
	"strings"
	"time"
)

const (
	MaxTags      = 10
	MaxTagLength = 20
)

var errBadDate = errors.New("unrecognised date")

// ParseDate accepts a calendar date ("2006-01-02", read as UTC midnight)
// or a full RFC3339 timestamp.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errBadDate
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Time{}, errBadDate
}

func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// ParseTags splits comma separated input, trimming entries and dropping
// empty ones.
func ParseTags(v string) []string {
	tags := []string{}
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tags = append(tags, part)
	}
	return tags
}

// NormalizeTags trims tags, drops empty entries and removes case-insensitive
// duplicates. The first spelling of a tag wins and order is preserved.
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}
