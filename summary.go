package prodscan

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/zombar/prodscan/models"
)

// The generated summary must contain these sections, in this order.
var summarySections = []string{
	"## Overview",
	"## Key Strengths",
	"## Areas for Improvement",
	"## Recommendation",
	"## Overall Rating",
}

// GenerateSummary produces a Markdown assessment of the user's criterion
// ratings. It asks the generative model first; any failure or structurally
// insufficient response is downgraded to the deterministic local fallback
// rather than failing the caller. The second return value reports whether
// the fallback was used.
func (e *Extractor) GenerateSummary(ctx context.Context, ratings []models.CriterionRating) (string, bool) {
	prompt := buildSummaryPrompt(ratings)

	response, err := e.ollama.Generate(ctx, prompt)
	if err != nil {
		log.Printf("Summary generation failed, using local fallback: %v", err)
		return FallbackSummary(ratings), true
	}

	if !summaryComplete(response) {
		log.Printf("Generated summary missing required sections, using local fallback")
		return FallbackSummary(ratings), true
	}

	return response, false
}

// buildSummaryPrompt renders the criterion ratings into the generation
// prompt with the required output structure spelled out.
func buildSummaryPrompt(ratings []models.CriterionRating) string {
	var b strings.Builder
	b.WriteString("You are a product assessment assistant. Given the user's scored evaluation criteria below, write a Markdown summary with exactly these sections:\n\n")
	b.WriteString("## Overview\n## Key Strengths (at least 3 bullets)\n## Areas for Improvement (at least 2 bullets)\n## Recommendation\n## Overall Rating (x/10)\n\n")
	b.WriteString("Criteria ratings:\n")
	for _, r := range ratings {
		fmt.Fprintf(&b, "- %s: %d/10", r.Name, r.Rating)
		if r.Notes != "" {
			fmt.Fprintf(&b, " (%s)", r.Notes)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nReturn ONLY the Markdown document. Do not include any explanation or commentary.")
	return b.String()
}

// summaryComplete checks the generated document for the five required
// sections and their minimum bullet counts.
func summaryComplete(md string) bool {
	for _, section := range summarySections {
		if !strings.Contains(md, section) {
			return false
		}
	}
	if sectionBullets(md, "## Key Strengths") < 3 {
		return false
	}
	if sectionBullets(md, "## Areas for Improvement") < 2 {
		return false
	}
	return true
}

// sectionBullets counts bullet lines between heading and the next "## ".
func sectionBullets(md, heading string) int {
	idx := strings.Index(md, heading)
	if idx < 0 {
		return 0
	}
	section := md[idx+len(heading):]
	if next := strings.Index(section, "\n## "); next >= 0 {
		section = section[:next]
	}

	count := 0
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			count++
		}
	}
	return count
}

// FallbackSummary builds a deterministic local summary when generation is
// unavailable: overall rating is the arithmetic mean to one decimal place,
// strengths are the top 3 criteria by rating, improvements the bottom 2.
// Ties keep the caller's input order.
func FallbackSummary(ratings []models.CriterionRating) string {
	var total int
	for _, r := range ratings {
		total += r.Rating
	}
	mean := 0.0
	if len(ratings) > 0 {
		mean = float64(total) / float64(len(ratings))
	}

	byRatingDesc := make([]models.CriterionRating, len(ratings))
	copy(byRatingDesc, ratings)
	sort.SliceStable(byRatingDesc, func(i, j int) bool {
		return byRatingDesc[i].Rating > byRatingDesc[j].Rating
	})

	byRatingAsc := make([]models.CriterionRating, len(ratings))
	copy(byRatingAsc, ratings)
	sort.SliceStable(byRatingAsc, func(i, j int) bool {
		return byRatingAsc[i].Rating < byRatingAsc[j].Rating
	})

	var b strings.Builder

	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "Assessment generated from %d scored evaluation criteria.\n\n", len(ratings))

	b.WriteString("## Key Strengths\n\n")
	for i, r := range byRatingDesc {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "- %s (%d/10)\n", r.Name, r.Rating)
	}
	b.WriteString("\n")

	b.WriteString("## Areas for Improvement\n\n")
	for i, r := range byRatingAsc {
		if i >= 2 {
			break
		}
		fmt.Fprintf(&b, "- %s (%d/10)\n", r.Name, r.Rating)
	}
	b.WriteString("\n")

	b.WriteString("## Recommendation\n\n")
	switch {
	case mean >= 7:
		b.WriteString("Recommended based on the overall criterion scores.\n\n")
	case mean >= 4:
		b.WriteString("Worth considering, with reservations on the lower-scored criteria.\n\n")
	default:
		b.WriteString("Not recommended based on the overall criterion scores.\n\n")
	}

	b.WriteString("## Overall Rating\n\n")
	fmt.Fprintf(&b, "%.1f/10\n", mean)

	return b.String()
}
