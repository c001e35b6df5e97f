// Package pagerange parses page selections like "1-2,5,10-".
package pagerange

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is an inclusive span of 1-based pages. End is zero for an open
// range that runs to the last page.
type Range struct {
	Start int
	End   int
}

// Set holds multiple page ranges. The zero value selects every page.
type Set struct {
	ranges []Range
}

// Parse parses a page range string like "1-2,5,10-15,419-"
func Parse(rangeStr string) (*Set, error) {
	if strings.TrimSpace(rangeStr) == "" {
		return &Set{}, nil
	}

	var ranges []Range
	for _, part := range strings.Split(rangeStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if !strings.Contains(part, "-") {
			page, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid page number: %s", part)
			}
			if page < 1 {
				return nil, fmt.Errorf("page numbers must be 1 or greater, got: %d", page)
			}
			ranges = append(ranges, Range{Start: page, End: page})
			continue
		}

		rangeParts := strings.Split(part, "-")
		if len(rangeParts) != 2 {
			return nil, fmt.Errorf("invalid range format: %s", part)
		}

		start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %q", rangeParts[0])
		}
		if start < 1 {
			return nil, fmt.Errorf("page numbers must be 1 or greater, got: %d", start)
		}

		end := 0
		if endStr := strings.TrimSpace(rangeParts[1]); endStr != "" {
			end, err = strconv.Atoi(endStr)
			if err != nil {
				return nil, fmt.Errorf("invalid end page: %q", rangeParts[1])
			}
			if start > end {
				return nil, fmt.Errorf("start page (%d) cannot be greater than end page (%d)", start, end)
			}
		}

		ranges = append(ranges, Range{Start: start, End: end})
	}

	return &Set{ranges: ranges}, nil
}

// All reports whether the set selects every page
func (s *Set) All() bool {
	return s == nil || len(s.ranges) == 0
}

// Contains checks if a page number is within any of the ranges
func (s *Set) Contains(pageNum int) bool {
	if s.All() {
		return pageNum >= 1
	}
	for _, r := range s.ranges {
		if pageNum >= r.Start && (r.End == 0 || pageNum <= r.End) {
			return true
		}
	}
	return false
}

// Ranges returns all the ranges
func (s *Set) Ranges() []Range {
	if s == nil {
		return nil
	}
	return append([]Range(nil), s.ranges...)
}

// String returns the canonical form of the set
func (s *Set) String() string {
	if s.All() {
		return ""
	}

	parts := make([]string, 0, len(s.ranges))
	for _, r := range s.ranges {
		switch {
		case r.End == 0:
			parts = append(parts, fmt.Sprintf("%d-", r.Start))
		case r.Start == r.End:
			parts = append(parts, strconv.Itoa(r.Start))
		default:
			parts = append(parts, fmt.Sprintf("%d-%d", r.Start, r.End))
		}
	}
	return strings.Join(parts, ",")
}

// Validate checks that all page numbers exist in a document of totalPages
func (s *Set) Validate(totalPages int) error {
	if s.All() {
		return nil
	}
	for _, r := range s.ranges {
		if r.Start > totalPages {
			return fmt.Errorf("page %d exceeds total pages (%d)", r.Start, totalPages)
		}
		if r.End > totalPages {
			return fmt.Errorf("page %d exceeds total pages (%d)", r.End, totalPages)
		}
	}
	return nil
}

// Pages expands the set into ascending, de-duplicated page numbers for a
// document of totalPages
func (s *Set) Pages(totalPages int) []int {
	var pages []int
	for page := 1; page <= totalPages; page++ {
		if s.Contains(page) {
			pages = append(pages, page)
		}
	}
	return pages
}
