package utils

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatCurrency renders a USD amount with thousands grouping, e.g. $1,234.50.
func FormatCurrency(v float64) string {
	return "$" + message.NewPrinter(language.English).Sprintf("%.2f", v)
}

// FormatPercentage renders a percentage with one decimal, e.g. 12.5%.
func FormatPercentage(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
