package news

// Dedupe keeps one article per link. A later article with the same link replaces the
// earlier one but takes over its position, so the output order is the order in which
// each link was first seen.
func Dedupe(articles []Article) []Article {
	if len(articles) == 0 {
		return nil
	}

	index := make(map[string]int, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if i, dup := index[a.Link]; dup {
			out[i] = a
			continue
		}
		index[a.Link] = len(out)
		out = append(out, a)
	}
	return out
}
