package prodscan

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/zombar/prodscan/models"
)

// minDescriptionLength excludes fragments and headings from description
// candidates. Counted in runes, like every other character limit here.
const minDescriptionLength = 40

// boilerplateMarkers disqualify a sentence from being a description.
// Matching is a plain substring check on the sentence as-is: a sentence
// reading "Click here" passes while "click here" does not. Kept that way
// for compatibility with existing report output.
var boilerplateMarkers = []string{
	"click",
	"login",
	"sign in",
	"cookie",
	"review by",
}

// SelectDescriptions filters sentence annotations down to product-description
// candidates and, when preferences carry evaluation criteria, reorders them
// by relevance. The result may be empty.
func SelectDescriptions(sentences []models.AnnotatedSentence, prefs *models.UserPreferences) []string {
	candidates := []string{}
	for _, s := range sentences {
		if utf8.RuneCountInString(s.Text) <= minDescriptionLength {
			continue
		}
		if containsBoilerplate(s.Text) {
			continue
		}
		candidates = append(candidates, s.Text)
	}

	if prefs != nil && len(prefs.EvaluationCriteria) > 0 && len(candidates) > 0 {
		// Stable descending sort; ties keep document order.
		sort.SliceStable(candidates, func(i, j int) bool {
			return relevanceScore(candidates[i], prefs.EvaluationCriteria) >
				relevanceScore(candidates[j], prefs.EvaluationCriteria)
		})
	}

	return candidates
}

// containsBoilerplate reports whether text contains any boilerplate marker.
func containsBoilerplate(text string) bool {
	for _, marker := range boilerplateMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// relevanceScore counts how many criteria terms appear in text,
// case-insensitively.
func relevanceScore(text string, criteria []string) int {
	textLower := strings.ToLower(text)
	score := 0
	for _, c := range criteria {
		if strings.Contains(textLower, strings.ToLower(c)) {
			score++
		}
	}
	return score
}
