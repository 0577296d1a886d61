// Package render turns backend content into terminal text: message bodies,
// day message headings, and calendar grids.
package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/nhle/mailcal/internal/model"
)

var (
	strict = bluemonday.StrictPolicy()

	paraEnd    = regexp.MustCompile(`(?i)<\s*(/p|/div|/h[1-6]|/blockquote|/ul|/ol|/table)\s*>`)
	lineEnd    = regexp.MustCompile(`(?i)<\s*(br\s*/?|/li|/tr)\s*>`)
	listItem   = regexp.MustCompile(`(?i)<\s*li(\s[^>]*)?>`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// PlainText strips markup from an HTML message body. Block elements are
// separated by a blank line, line breaks and list items end a line, and
// entities are decoded.
func PlainText(body string) string {
	s := strings.ReplaceAll(body, "\r\n", "\n")
	s = paraEnd.ReplaceAllString(s, "\n\n")
	s = lineEnd.ReplaceAllString(s, "\n")
	s = listItem.ReplaceAllString(s, "- ")
	s = strict.Sanitize(s)
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Preview returns the first line of PlainText(body), cut to max runes.
func Preview(body string, max int) string {
	text := PlainText(body)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	r := []rune(text)
	if max > 0 && len(r) > max {
		if max <= 1 {
			return string(r[:max])
		}
		return string(r[:max-1]) + "…"
	}
	return text
}

// DayMessageHeading describes when a day message is or was delivered.
func DayMessageHeading(m model.DayMessage) string {
	verb := "Sent at"
	if m.Future {
		verb = "Will be sent at"
	}
	return fmt.Sprintf("%s %s", verb, m.DeliveryAt.Format("15:04"))
}

// EmptyDayText is shown for a day without messages.
func EmptyDayText(year, month, day int) string {
	return fmt.Sprintf("No messages sent for the day: %d/%d/%d", day, month, year)
}
