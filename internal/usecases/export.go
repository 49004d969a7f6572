package usecases

import (
	"net/url"
	"strings"
	"time"

	"waitlist_funnel/internal/entities"
)

const (
	csvHeader = "Name,Email,Joined\n"
	// en-US short calendar date, as the dashboard shows it
	joinDateLayout = "1/2/2006"
)

// Exporter turns subscriber lists into CSV files, clipboard text and
// mail-client links.
type Exporter struct {
	loc *time.Location
}

func NewExporter(loc *time.Location) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{loc: loc}
}

// ToCSV renders a header and one row per subscriber, in the given order.
// Name and email are always quoted; embedded quotes are doubled.
func (e *Exporter) ToCSV(subscribers []entities.Subscriber) []byte {
	var b strings.Builder
	b.WriteString(csvHeader)
	for _, s := range subscribers {
		b.WriteString(quoteField(s.DisplayName()))
		b.WriteByte(',')
		b.WriteString(quoteField(s.Email))
		b.WriteByte(',')
		b.WriteString(s.CreatedAt.In(e.loc).Format(joinDateLayout))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func quoteField(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// Filename names an export made at now.
func (e *Exporter) Filename(now time.Time) string {
	return "waitlist-" + now.UTC().Format("2006-01-02") + ".csv"
}

// ToEmailList joins emails with ", " for the clipboard.
func (e *Exporter) ToEmailList(subscribers []entities.Subscriber) string {
	return strings.Join(emails(subscribers), ", ")
}

// ComposeBulkMail builds a mailto link with every email in bcc.
// It returns ok=false when there is nobody to mail.
func (e *Exporter) ComposeBulkMail(subscribers []entities.Subscriber) (link string, ok bool) {
	if len(subscribers) == 0 {
		return "", false
	}
	addrs := emails(subscribers)
	for i, a := range addrs {
		addrs[i] = mailtoEscaper.Replace(url.QueryEscape(a))
	}
	return "mailto:?bcc=" + strings.Join(addrs, ","), true
}

// mailtoEscaper keeps "@" readable; it needs no escaping in a mailto query.
var mailtoEscaper = strings.NewReplacer("%40", "@")

func emails(subscribers []entities.Subscriber) []string {
	out := make([]string, len(subscribers))
	for i, s := range subscribers {
		out[i] = s.Email
	}
	return out
}
