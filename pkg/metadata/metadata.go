package metadata

import (
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/arlegis/billbot/internal/models"
)

// Unknown is substituted for any field whose pattern does not match.
const Unknown = "Unknown"

// Patterns are matched against whitespace-normalized bill text, so none of
// them rely on line anchors.
var (
	dateFiledRe = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`)
	subtitleRe  = regexp.MustCompile(`(?i)\bSUBTITLE\s+(.{1,300}?)(?:\s+BE IT ENACTED|\s+SECTION\s+1|$)`)
	sponsorRe   = regexp.MustCompile(`(?i)\bBy:\s*((?:Senator|Representative)s?\s+.{1,80}?)(?:\s+By:|\s+For\s+An\s+Act|\s+Subtitle\b|$)`)
)

// Extract pattern-matches the filing date, subtitle, and sponsor out of a
// bill's text. It never fails: a miss yields Unknown for that field and a
// log line for visibility. source names the file for logging only.
//
// The filing date is normalized from the bill's M/D/YYYY form to
// YYYY-MM-DD, so stored dates order chronologically as plain strings.
func Extract(source, text string) models.BillMetadata {
	meta := models.BillMetadata{
		DateFiled: Unknown,
		Subtitle:  Unknown,
		Sponsor:   Unknown,
	}

	if m := dateFiledRe.FindStringSubmatch(text); m != nil {
		if d, err := time.Parse("1/2/2006", m[1]); err == nil {
			meta.DateFiled = d.Format("2006-01-02")
		} else {
			log.Printf("%s: unparseable filing date %q", source, m[1])
		}
	} else {
		log.Printf("%s: no filing date found", source)
	}

	if m := subtitleRe.FindStringSubmatch(text); m != nil {
		meta.Subtitle = strings.TrimSpace(m[1])
	} else {
		log.Printf("%s: no subtitle found", source)
	}

	if m := sponsorRe.FindStringSubmatch(text); m != nil {
		meta.Sponsor = strings.TrimSpace(m[1])
	} else {
		log.Printf("%s: no sponsor found", source)
	}

	return meta
}
