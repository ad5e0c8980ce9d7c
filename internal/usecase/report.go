package usecase

import (
	"fmt"
	"strings"

	"AstroTransits/internal/domain/models"
	"AstroTransits/internal/services/interpretation"
)

const reportHeader = "🪐 Transits for %s:\n\n"

// BuildReport renders one line per match in the given order, or the
// no-match sentence.
func BuildReport(catalog *interpretation.Catalog, date string, matches []models.AspectMatch, orb float64) string {
	if len(matches) == 0 {
		return fmt.Sprintf("No major transits detected for %s within %s° orb.", date, interpretation.FormatOrb(orb))
	}
	var b strings.Builder
	fmt.Fprintf(&b, reportHeader, date)
	for _, m := range matches {
		b.WriteString("- ")
		b.WriteString(catalog.Interpret(m))
		b.WriteString("\n")
	}
	return b.String()
}
