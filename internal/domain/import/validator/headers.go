package validator

import (
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/bizpulse/internal/domain/import/parser"
	"github.com/FACorreiaa/bizpulse/internal/domain/records"
)

// HeaderSuggestion points out a template column missing from the file
type HeaderSuggestion struct {
	Expected string `json:"expected"`
	Found    string `json:"found,omitempty"` // closest unrecognised header, if any
	Required bool   `json:"required"`
}

// SuggestHeaders lists template columns absent from headers, each paired with
// the closest unrecognised header. Suggestions are advisory.
func SuggestHeaders(kind records.Kind, headers []string) []HeaderSuggestion {
	expected := parser.TemplateHeaders(kind)
	required := RequiredColumns(kind)

	var unknown []string
	for _, h := range headers {
		if !slices.Contains(expected, h) {
			unknown = append(unknown, h)
		}
	}

	var out []HeaderSuggestion
	for _, want := range expected {
		if slices.Contains(headers, want) {
			continue
		}
		out = append(out, HeaderSuggestion{
			Expected: want,
			Found:    closestHeader(want, unknown),
			Required: slices.Contains(required, want),
		})
	}
	return out
}

func closestHeader(want string, candidates []string) string {
	best, bestDist := "", -1
	for _, h := range candidates {
		if !fuzzy.MatchNormalizedFold(want, h) && !fuzzy.MatchNormalizedFold(h, want) {
			continue
		}
		d := fuzzy.LevenshteinDistance(strings.ToLower(want), strings.ToLower(h))
		if bestDist < 0 || d < bestDist {
			best, bestDist = h, d
		}
	}
	return best
}
