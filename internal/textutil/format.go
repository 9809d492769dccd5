// Package textutil provides text normalization and display formatting helpers.
// All functions are idempotent: applying them twice yields the same result.
package textutil

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	multiSpaceRe  = regexp.MustCompile(`\s+`)
	punctSpaceRe  = regexp.MustCompile(`\s*([.,;:!?])\s*`)
	spacePunctRe  = regexp.MustCompile(`\s+([.,;:!?])`)
	bulletRe      = regexp.MustCompile(`^[-•*]\s*`)
	htmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	scriptBlockRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
)

// NormalizeText collapses whitespace and normalizes spacing around punctuation.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = punctSpaceRe.ReplaceAllString(text, "$1 ")
	text = spacePunctRe.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// FormatTitle normalizes a title, strips trailing punctuation and caps it at 150 chars.
func FormatTitle(title string) string {
	if title == "" {
		return "Untitled"
	}
	text := NormalizeText(title)
	if !strings.HasSuffix(text, "...") {
		text = strings.TrimRight(text, ".,;:")
	}
	if len(text) > 150 {
		text = text[:147] + "..."
	}
	if text == "" {
		return "Untitled"
	}
	return text
}

// FormatSummary normalizes a summary, capitalizes it and ensures terminal punctuation.
func FormatSummary(summary string) string {
	if summary == "" {
		return "Summary not available."
	}
	text := NormalizeText(summary)
	if text == "" {
		return "Summary not available."
	}
	if !strings.ContainsRune(".!?", rune(text[len(text)-1])) {
		text += "."
	}
	return capitalize(text)
}

// FormatKeyPoints normalizes each point, drops empties, strips leading bullets,
// capitalizes and ensures terminal punctuation.
func FormatKeyPoints(points []string) []string {
	if len(points) == 0 {
		return nil
	}
	formatted := make([]string, 0, len(points))
	for _, p := range points {
		text := NormalizeText(p)
		text = bulletRe.ReplaceAllString(text, "")
		if text == "" {
			continue
		}
		text = capitalize(text)
		if !strings.ContainsRune(".!?", rune(text[len(text)-1])) {
			text += "."
		}
		formatted = append(formatted, text)
	}
	return formatted
}

// FormatURL trims a URL and prepends https:// when no scheme is present.
func FormatURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	return url
}

// CleanHTML strips script and style blocks, residual tags and common entities.
func CleanHTML(text string) string {
	if text == "" {
		return ""
	}
	text = scriptBlockRe.ReplaceAllString(text, " ")
	text = htmlTagRe.ReplaceAllString(text, " ")
	replacer := strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	)
	return NormalizeText(replacer.Replace(text))
}

// Truncate cuts text at maxLen, backing up to the last word boundary,
// and appends the suffix. Text at or under the limit is returned unchanged.
func Truncate(text string, maxLen int, suffix string) string {
	if text == "" || len(text) <= maxLen {
		return text
	}
	truncated := text[:maxLen]
	if last := strings.LastIndexByte(truncated, ' '); last > 0 {
		truncated = truncated[:last]
	}
	return strings.TrimRight(truncated, ".,;:") + suffix
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
