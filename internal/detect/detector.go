package detect

import (
	"sort"

	"github.com/taskbridge/chat-moderation/internal/pattern"
)

// Detector scans message text against a rule catalog. The zero-cost default
// uses the package catalog; tests inject trimmed catalogs via NewWithCatalog.
type Detector struct {
	catalog []pattern.CategoryRules
}

// New returns a Detector backed by the full pattern catalog.
func New() *Detector {
	return &Detector{catalog: pattern.Catalog}
}

// NewWithCatalog returns a Detector using a custom rule catalog.
func NewWithCatalog(catalog []pattern.CategoryRules) *Detector {
	return &Detector{catalog: catalog}
}

// Detect runs every rule in every category against content and returns the
// matches sorted by position, deduplicated by (position, type). Matches
// shorter than the category's minimum length are discarded; this also drops
// any zero-length match a rule with optional groups could produce, so the
// scan always advances.
func (d *Detector) Detect(content string) []Match {
	if content == "" {
		return nil
	}

	var matches []Match
	for _, cat := range d.catalog {
		for _, rule := range cat.Rules {
			for _, loc := range rule.Expr.FindAllStringIndex(content, -1) {
				if loc[1]-loc[0] < cat.MinMatchLen {
					continue
				}
				matches = append(matches, Match{
					Type:        cat.Type,
					Matched:     content[loc[0]:loc[1]],
					Position:    loc[0],
					EndPosition: loc[1],
					Pattern:     rule.Name,
				})
			}
		}
	}

	return dedupe(matches)
}

// dedupe removes matches sharing the same (position, type) pair — multiple
// rules in one category can hit the same span — and sorts the remainder by
// position so redaction and reporting are stable for the same input.
func dedupe(matches []Match) []Match {
	if len(matches) == 0 {
		return nil
	}

	type key struct {
		pos int
		typ pattern.Type
	}
	seen := make(map[key]bool, len(matches))
	out := matches[:0]
	for _, m := range matches {
		k := key{pos: m.Position, typ: m.Type}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// Check is the base detection pass: scan the raw content and build a
// result. It does no normalization and no evasion analysis, which makes it
// suitable for fast client-side pre-checks.
func (d *Detector) Check(content string) Result {
	matches := d.Detect(content)
	return BuildResult(content, matches, false)
}

// CheckEnhanced is the full detection pass used at send time: normalize the
// content to defeat trivial obfuscation, scan the normalized text, and run
// the independent evasion check on the raw input. An evasion indicator with
// no concrete match still blocks the message (fail closed).
func (d *Detector) CheckEnhanced(content string) Result {
	normalized := Normalize(content)
	matches := d.Detect(normalized)
	evasion := DetectEvasionAttempt(content)
	return BuildResult(normalized, matches, evasion)
}
