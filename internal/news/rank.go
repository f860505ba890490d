package news

import (
	"sort"
	"strings"
)

// Tab selects which origin class a listing shows.
type Tab string

const (
	TabAll           Tab = "all"
	TabNational      Tab = "national"
	TabInternational Tab = "international"
)

// ParseTab maps a query value to a Tab. Unknown values list everything.
func ParseTab(raw string) Tab {
	switch Tab(strings.ToLower(strings.TrimSpace(raw))) {
	case TabNational:
		return TabNational
	case TabInternational:
		return TabInternational
	default:
		return TabAll
	}
}

// Rank sorts articles in place: score descending, then newest first.
// Articles with a publish timestamp come before articles without one; articles that
// tie on both keys keep their relative order.
func Rank(articles []Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		a, b := articles[i], articles[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return newer(a, b)
	})
}

func newer(a, b Article) bool {
	switch {
	case a.PublishedAt == nil:
		return false
	case b.PublishedAt == nil:
		return true
	default:
		return a.PublishedAt.After(*b.PublishedAt)
	}
}

// FilterOrigin returns the articles shown on the given tab.
func FilterOrigin(articles []Article, tab Tab) []Article {
	var want Origin
	switch tab {
	case TabNational:
		want = National
	case TabInternational:
		want = International
	default:
		return Clone(articles)
	}

	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if a.Origin == want {
			out = append(out, a)
		}
	}
	return out
}

// SearchTitle returns the articles whose title contains query, ignoring case.
func SearchTitle(articles []Article, query string) []Article {
	q := strings.ToLower(query)
	out := make([]Article, 0)
	for _, a := range articles {
		if strings.Contains(strings.ToLower(a.Title), q) {
			out = append(out, a)
		}
	}
	return out
}
