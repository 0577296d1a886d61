package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailcal/internal/calendar"
	"github.com/nhle/mailcal/internal/model"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "just text", "just text"},
		{"paragraphs", "<p>Hello &amp; welcome</p>\n<p>Second</p>", "Hello & welcome\n\nSecond"},
		{"breaks", "one<br>two<br />three", "one\ntwo\nthree"},
		{"inline tags", "<p>a <strong>bold</strong> <a href=\"http://x\">link</a></p>", "a bold link"},
		{"list", "<ul><li>first</li><li class=\"x\">second</li></ul>", "- first\n- second"},
		{"script dropped", "<script>alert(1)</script><p>safe</p>", "safe"},
		{"nbsp", "<p>a&nbsp;b</p>", "a b"},
		{"quotes", "<p>it&#39;s &quot;fine&quot;</p>", `it's "fine"`},
		{"blank runs collapse", "<p>a</p><p></p><p></p><p>b</p>", "a\n\nb"},
		{"adjacent paragraphs", "<p>A</p><p>B</p>", "A\n\nB"},
		{"list after paragraph", "<p>intro</p><ul><li>x</li><li>y</li></ul><p>end</p>", "intro\n\n- x\n- y\n\nend"},
		{"forward header", "<p>Message forwarded from ada@example.com:</p><p>hi</p>", "Message forwarded from ada@example.com:\n\nhi"},
		{"bare angle bracket", "1 < 2", "1 < 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "first line", Preview("<p>first line</p><p>second</p>", 40))
	assert.Equal(t, "abcd…", Preview("abcdefgh", 5))
	assert.Equal(t, "abc", Preview("abc", 0))
}

func TestDayMessageHeading(t *testing.T) {
	at := time.Date(2026, time.October, 17, 9, 5, 0, 0, time.UTC)

	assert.Equal(t, "Will be sent at 09:05", DayMessageHeading(model.DayMessage{DeliveryAt: at, Future: true}))
	assert.Equal(t, "Sent at 09:05", DayMessageHeading(model.DayMessage{DeliveryAt: at}))
}

func TestEmptyDayText(t *testing.T) {
	assert.Equal(t, "No messages sent for the day: 3/2/2024", EmptyDayText(2024, 2, 3))
}

func TestGrid(t *testing.T) {
	today := time.Date(2024, time.February, 14, 10, 0, 0, 0, time.Local)
	g := calendar.BuildGridAt(2024, time.February, today)

	out := Grid(g, 20)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2+5)

	assert.Equal(t, "February 2024", strings.TrimSpace(lines[0]))
	assert.Equal(t, []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"28", "29", "30", "31", "1", "2", "3"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"25", "26", "27", "28", "29", "1", "2"}, strings.Fields(lines[6]))
}

func TestGridSixWeeks(t *testing.T) {
	// June 2024 starts on a Saturday and needs six rows.
	g := calendar.BuildGridAt(2024, time.June, time.Date(1750, 1, 1, 0, 0, 0, 0, time.Local))

	lines := strings.Split(Grid(g, 0), "\n")
	require.Len(t, lines, 2+6)
	assert.Equal(t, "1", strings.Fields(lines[2])[6])
	assert.Equal(t, []string{"30", "1", "2", "3", "4", "5", "6"}, strings.Fields(lines[7]))
}
