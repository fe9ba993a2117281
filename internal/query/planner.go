// Package query derives image search queries from a catalog entry's title and
// category.
//
// Rule selection is deterministic. Every rule whose keywords appear in the
// title as whole words is a candidate, and candidates are ranked by:
//
//  1. the number of distinct keywords matched (more wins);
//  2. whether the rule's category equals the entry's category;
//  3. the length of the longest matched keyword (longer wins);
//  4. position in the rule table (earlier wins).
//
// So "Will Trump attend the Super Bowl?" filed under Sports picks the NFL
// rule over the politics rule: both match one keyword and the category
// decides.
//
// The plan lists the winning rule's queries, then a query built from the
// title's own keywords and the category, then the category's default query.
// Duplicates are dropped and the list is capped at the requested length.
package query

import (
	"slices"
	"strings"

	"curator/internal/catalog"
	"curator/internal/textutil"
)

const maxTitleTerms = 3

var stopwords = map[string]struct{}{
	"will": {}, "the": {}, "and": {}, "for": {}, "with": {}, "before": {}, "after": {},
	"by": {}, "end": {}, "than": {}, "more": {}, "less": {}, "what": {}, "who": {},
	"which": {}, "does": {}, "this": {}, "that": {}, "from": {}, "into": {}, "over": {},
	"under": {}, "any": {}, "its": {}, "his": {}, "her": {}, "their": {}, "next": {},
	"win": {}, "year": {}, "2024": {}, "2025": {}, "2026": {}, "2027": {},
}

// Planner turns entries into ordered search queries.
type Planner struct {
	rules    []compiledRule
	defaults map[string]string
}

type compiledRule struct {
	category string
	keywords []string
	queries  []string
}

// NewPlanner compiles a rule table. Nil rules or defaults fall back to the
// built-in tables.
func NewPlanner(rules []Rule, defaults map[string]string) *Planner {
	if rules == nil {
		rules = DefaultRules()
	}
	if defaults == nil {
		defaults = DefaultCategoryQueries()
	}
	p := &Planner{defaults: make(map[string]string, len(defaults))}
	for key, q := range defaults {
		if q = strings.TrimSpace(q); q != "" {
			p.defaults[textutil.CategoryKey(key)] = q
		}
	}
	for _, rule := range rules {
		compiled := compiledRule{category: textutil.CategoryKey(rule.Category)}
		if strings.TrimSpace(rule.Category) == "" {
			compiled.category = ""
		}
		for _, kw := range rule.Keywords {
			if norm := normalizePhrase(kw); norm != "" {
				compiled.keywords = append(compiled.keywords, norm)
			}
		}
		for _, q := range rule.Queries {
			if q = strings.TrimSpace(q); q != "" {
				compiled.queries = append(compiled.queries, q)
			}
		}
		if len(compiled.keywords) > 0 && len(compiled.queries) > 0 {
			p.rules = append(p.rules, compiled)
		}
	}
	return p
}

type match struct {
	index    int
	hits     int
	category bool
	longest  int
}

// Plan returns up to k queries for entry, best first. It always returns at
// least one query when k > 0.
func (p *Planner) Plan(entry catalog.Entry, k int) []string {
	if k <= 0 {
		return nil
	}
	categoryKey := textutil.CategoryKey(entry.Category)
	title := " " + normalizePhrase(entry.Title) + " "

	var out []string
	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" || len(out) >= k {
			return
		}
		for _, existing := range out {
			if strings.EqualFold(existing, q) {
				return
			}
		}
		out = append(out, q)
	}

	if best, ok := p.bestRule(title, categoryKey); ok {
		for _, q := range p.rules[best].queries {
			add(q)
		}
	}
	add(titleQuery(entry))
	if q, ok := p.defaults[categoryKey]; ok {
		add(q)
	}
	if len(out) == 0 {
		add(strings.ToLower(textutil.CanonicalCategory(entry.Category)))
	}
	return out
}

func (p *Planner) bestRule(title, categoryKey string) (int, bool) {
	var matches []match
	for i, rule := range p.rules {
		m := match{index: i, category: rule.category != "" && rule.category == categoryKey}
		for _, kw := range rule.keywords {
			if strings.Contains(title, " "+kw+" ") {
				m.hits++
				m.longest = max(m.longest, len(kw))
			}
		}
		if m.hits > 0 {
			matches = append(matches, m)
		}
	}
	if len(matches) == 0 {
		return 0, false
	}
	slices.SortStableFunc(matches, compareMatches)
	return matches[0].index, true
}

func compareMatches(a, b match) int {
	if a.hits != b.hits {
		return b.hits - a.hits
	}
	if a.category != b.category {
		if a.category {
			return -1
		}
		return 1
	}
	if a.longest != b.longest {
		return b.longest - a.longest
	}
	return a.index - b.index
}

func titleQuery(entry catalog.Entry) string {
	var terms []string
	for _, tok := range textutil.Tokenize(entry.Title) {
		if _, skip := stopwords[tok]; skip || slices.Contains(terms, tok) {
			continue
		}
		terms = append(terms, tok)
		if len(terms) == maxTitleTerms {
			break
		}
	}
	if len(terms) == 0 {
		return ""
	}
	if strings.TrimSpace(entry.Category) != "" {
		terms = append(terms, strings.ToLower(textutil.CanonicalCategory(entry.Category)))
	}
	return strings.Join(terms, " ")
}

// normalizePhrase lowercases, folds accents and collapses every run of
// non-alphanumerics to one space.
func normalizePhrase(text string) string {
	lowered := strings.ToLower(textutil.Fold(text))
	return strings.Join(strings.FieldsFunc(lowered, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}), " ")
}
