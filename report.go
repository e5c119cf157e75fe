package prodscan

import (
	"fmt"
	"strings"

	"github.com/zombar/prodscan/models"
)

// Section limits for the two report formats. Detailed mode applies to
// expert and advanced users.
const (
	descriptionLimit         = 3
	descriptionLimitDetailed = 5
	featureLimit             = 5
	featureLimitDetailed     = 10
	excerptLimit             = 1000
	excerptLimitDetailed     = 2000
)

// Placeholders for unresolved report sections.
const (
	placeholderName        = "Unknown Product"
	placeholderDescription = "No description available."
	placeholderFeatures    = "No features identified"
	placeholderSpecs       = "No specifications identified"
)

// BuildReport composes the final report text from the classified product
// info, the ranked description candidates, and the raw readable content.
// Sections appear in fixed order; identical inputs always produce an
// identical report.
func BuildReport(info *models.ProductInfo, descriptions []string, readable string, prefs *models.UserPreferences) string {
	detailed := prefs.Detailed()

	descLimit := descriptionLimit
	featLimit := featureLimit
	excerpt := excerptLimit
	if detailed {
		descLimit = descriptionLimitDetailed
		featLimit = featureLimitDetailed
		excerpt = excerptLimitDetailed
	}

	var b strings.Builder

	name := info.Name
	if name == "" {
		name = placeholderName
	}
	fmt.Fprintf(&b, "# %s\n\n", name)

	if info.Price != "" {
		fmt.Fprintf(&b, "Price: %s\n\n", info.Price)
	}

	b.WriteString("## Description\n\n")
	switch {
	case len(descriptions) > 0:
		b.WriteString(strings.Join(firstN(descriptions, descLimit), " "))
	case info.Description != "":
		b.WriteString(info.Description)
	default:
		b.WriteString(placeholderDescription)
	}
	b.WriteString("\n\n")

	b.WriteString("## Features\n\n")
	features := firstN(info.Features, featLimit)
	if len(features) == 0 {
		fmt.Fprintf(&b, "- %s\n", placeholderFeatures)
	} else {
		for _, f := range features {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Specifications\n\n")
	if len(info.Specifications) == 0 {
		fmt.Fprintf(&b, "- %s\n", placeholderSpecs)
	} else {
		for _, spec := range info.Specifications {
			fmt.Fprintf(&b, "- %s: %s\n", spec.Key, spec.Value)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Additional Information\n\n")
	b.WriteString(truncate(readable, excerpt))
	b.WriteString("...\n")

	return b.String()
}

// firstN returns at most n leading elements of items.
func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
