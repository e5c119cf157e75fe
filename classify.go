package prodscan

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/zombar/prodscan/models"
)

// Threshold for the "looks like a feature" test: OTHER entities whose text
// reads like a phrase rather than a key/value pair. Counted in runes.
const minFeatureLength = 10

// ClassifyEntities maps annotated entities into semantic product fields in a
// single pass over the input order. Name and price take the first qualifying
// entity; later occurrences of a specification key overwrite earlier values.
// An entity contributes to at most one field.
func ClassifyEntities(entities []models.AnnotatedEntity, prefs *models.UserPreferences) *models.ProductInfo {
	info := &models.ProductInfo{
		Features:       []string{},
		Specifications: []models.Specification{},
	}

	for _, ent := range entities {
		if ent.Name == "" {
			continue
		}

		switch {
		case ent.Type == "CONSUMER_GOOD" && ent.Salience > nameSalienceThreshold && info.Name == "":
			info.Name = ent.Name

		case ent.Type == "PRICE" && info.Price == "":
			info.Price = ent.Name

		case ent.Type == "OTHER" && len(ent.Mentions) > 0:
			// A well-formed "Key: value" pair is always a specification;
			// the feature test only sees the rest. An entity never
			// contributes to both.
			key, value, hasColon := strings.Cut(ent.Name, ":")
			key = strings.TrimSpace(key)
			value = strings.TrimSpace(value)
			switch {
			case hasColon && key != "" && value != "":
				info.SetSpecification(key, value)
			case strings.Contains(ent.Name, " ") && utf8.RuneCountInString(ent.Name) > minFeatureLength:
				info.Features = append(info.Features, ent.Name)
			}
		}
	}

	if prefs != nil && len(prefs.EvaluationCriteria) > 0 && len(info.Features) > 0 {
		info.Features = rankByCriteria(info.Features, prefs.EvaluationCriteria)
	}

	return info
}

// rankByCriteria stable-sorts features so that any feature mentioning at
// least one criterion term comes first. Ties keep their original relative
// order, so the input ordering from the annotation service is preserved
// within each group.
func rankByCriteria(features, criteria []string) []string {
	ranked := make([]string, len(features))
	copy(ranked, features)

	sort.SliceStable(ranked, func(i, j int) bool {
		return matchesAnyCriterion(ranked[i], criteria) && !matchesAnyCriterion(ranked[j], criteria)
	})

	return ranked
}

// matchesAnyCriterion reports whether text contains any criterion term,
// case-insensitively.
func matchesAnyCriterion(text string, criteria []string) bool {
	textLower := strings.ToLower(text)
	for _, c := range criteria {
		if strings.Contains(textLower, strings.ToLower(c)) {
			return true
		}
	}
	return false
}
