package compiler

import "sort"

// ---------------------------------------------------------------------------
// Suggestion engine: "did you mean" candidates for unresolved names
// ---------------------------------------------------------------------------

// maxSuggestions caps how many candidates are attached to one diagnostic.
const maxSuggestions = 3

// Candidate is an in-scope name considered for a suggestion. Depth is scope
// proximity: 0 for the innermost scope, growing outward.
type Candidate struct {
	Name  string
	Depth int
}

// Suggest ranks candidates against an unresolved name and returns up to
// three that clear the adaptive threshold, best first.
//
// Threshold: names of 8 characters or fewer must be within edit distance 2;
// longer names must reach 70% similarity. Ties break on scope proximity,
// then lexicographically for determinism.
func Suggest(name string, candidates []Candidate) []string {
	type scored struct {
		Candidate
		dist int
	}

	var matches []scored
	seen := make(map[string]bool)
	for _, c := range candidates {
		if c.Name == name || seen[c.Name] {
			continue
		}
		d := editDistance(name, c.Name)
		if !clearsThreshold(name, c.Name, d) {
			continue
		}
		seen[c.Name] = true
		matches = append(matches, scored{Candidate: c, dist: d})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		if matches[i].Depth != matches[j].Depth {
			return matches[i].Depth < matches[j].Depth
		}
		return matches[i].Name < matches[j].Name
	})

	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Name
	}
	return names
}

// clearsThreshold applies the adaptive threshold for a candidate.
func clearsThreshold(name, candidate string, dist int) bool {
	if len(name) <= 8 {
		return dist <= 2
	}
	longest := len(name)
	if len(candidate) > longest {
		longest = len(candidate)
	}
	similarity := 1.0 - float64(dist)/float64(longest)
	return similarity >= 0.7
}

// editDistance computes the Levenshtein distance between two strings using
// a two-row rolling table.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(
				prev[j]+1,      // deletion
				cur[j-1]+1,     // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
