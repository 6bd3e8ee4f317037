package httpapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/eddist-go/bbs/internal/bbsdomain"
	"github.com/eddist-go/bbs/internal/sjis"
)

// jst is the fixed UTC+9 zone the legacy protocol renders all dates in.
var jst = time.FixedZone("JST", 9*3600)

// weekdayKanji indexes by time.Weekday (Sunday = 0) to the single-kanji
// wire representation.
var weekdayKanji = [...]string{"日", "月", "火", "水", "木", "金", "土"}

// aboneField is substituted for every field of an aboned response.
const aboneField = "あぼーん"

// FormatDatTimestamp renders t in the legacy dat record's
// "YYYY/MM/DD(曜) HH:MM:SS.mmm" layout, converting to JST first.
func FormatDatTimestamp(t time.Time) string {
	j := t.In(jst)
	return fmt.Sprintf("%04d/%02d/%02d(%s) %02d:%02d:%02d.%03d",
		j.Year(), j.Month(), j.Day(), weekdayKanji[j.Weekday()],
		j.Hour(), j.Minute(), j.Second(), j.Nanosecond()/1_000_000)
}

// RenderSubject renders a board's thread listing in the subject.txt wire
// format: one Shift_JIS line per thread, "<thread_number>.dat<>{title}
// ({response_count})\n".
func RenderSubject(threads []bbsdomain.Thread) []byte {
	var lines [][]byte
	for _, th := range threads {
		line := fmt.Sprintf("%d.dat<>%s (%d)\n", th.ThreadNumber, th.Title, th.ResponseCount)
		encoded, err := sjis.Encode(line)
		if err != nil {
			continue
		}
		lines = append(lines, encoded)
	}
	return sjis.Join(lines...)
}

func renderDatRecord(r bbsdomain.Response, title string) string {
	if r.IsAbone {
		return fmt.Sprintf("%s<>%s<>%s<>%s<>%s\n", aboneField, aboneField, aboneField, aboneField, title)
	}

	body := strings.ReplaceAll(r.Body, "\n", "<br>")
	dateField := fmt.Sprintf("%s ID:%s", FormatDatTimestamp(r.CreatedAt), r.AuthorID)
	return fmt.Sprintf("%s<>%s<>%s<>%s<>%s\n", r.Name, r.Mail, dateField, body, title)
}

// encodeHTMLFragment wraps message in the minimal HTML shell the legacy
// bbs.cgi write/activation endpoints respond with, Shift_JIS-encoded.
func encodeHTMLFragment(message string) ([]byte, error) {
	html := fmt.Sprintf("<html><head><title>bbs.cgi</title></head><body>%s</body></html>\n", message)
	return sjis.Encode(html)
}

// RenderDat renders a thread's responses in the legacy dat wire format:
// one record per response, "name<>mail<>date ID:xxxxxxxx<>body<>title\n".
// title is carried only on the first record, matching the wire protocol;
// the thread's title lives on the Thread aggregate, not the opening
// Response, so callers pass it explicitly.
func RenderDat(responses []bbsdomain.Response, title string) []byte {
	var lines [][]byte
	for i, r := range responses {
		t := ""
		if i == 0 {
			t = title
		}
		line := renderDatRecord(r, t)
		encoded, err := sjis.Encode(line)
		if err != nil {
			continue
		}
		lines = append(lines, encoded)
	}
	return sjis.Join(lines...)
}
