package tools

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// DisplayName renders a snake_case content key for humans:
// "social_connection" becomes "Social Connection". Reasons built for the
// narrator use this so keys never leak into prose.
func DisplayName(key string) string {
	if key == "" {
		return ""
	}
	return titleCaser.String(strings.ReplaceAll(key, "_", " "))
}
