package ingestion_engine

import (
	"strconv"
	"strings"

	"github.com/markdave123-py/policyrag/internal/models"
)

const pageMarkerOpen = "[PAGE "

func pageMarker(n int) string {
	return pageMarkerOpen + strconv.Itoa(n) + "]"
}

type markerSpan struct {
	page  int
	start int // index of '['
	end   int // index after ']'
}

// SplitByPages recovers page records from text stitched with [PAGE n]
// markers. Text without markers, or whose pages are all blank, is page 1.
func SplitByPages(text string) []models.PageRecord {
	single := []models.PageRecord{{Page: 1, Content: text}}

	markers := scanPageMarkers(text)
	if len(markers) == 0 {
		return single
	}

	var pages []models.PageRecord
	for i, m := range markers {
		stop := len(text)
		if i+1 < len(markers) {
			stop = markers[i+1].start
		}
		content := strings.TrimSpace(text[m.end:stop])
		if content == "" {
			continue
		}
		pages = append(pages, models.PageRecord{Page: m.page, Content: content})
	}
	if len(pages) == 0 {
		return single
	}
	return pages
}

// scanPageMarkers finds well-formed "[PAGE <digits>]" markers left to right.
// Anything else that starts like a marker is left as ordinary text.
func scanPageMarkers(text string) []markerSpan {
	var out []markerSpan
	for i := 0; i < len(text); {
		j := strings.Index(text[i:], pageMarkerOpen)
		if j < 0 {
			break
		}
		start := i + j
		digits := start + len(pageMarkerOpen)
		k := digits
		for k < len(text) && text[k] >= '0' && text[k] <= '9' {
			k++
		}
		if k > digits && k < len(text) && text[k] == ']' {
			if n, err := strconv.Atoi(text[digits:k]); err == nil {
				out = append(out, markerSpan{page: n, start: start, end: k + 1})
				i = k + 1
				continue
			}
		}
		i = start + 1
	}
	return out
}
