package app

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/klabast/wb-services/abfall-fhem/internal/config"
)

// Reminder is a display alarm at a clock time DaysBefore days before a
// collection
type Reminder struct {
	DaysBefore int
	At         config.ClockTime
}

// Trigger returns the alarm offset from the start of the all-day event as
// RFC 5545 duration
func (r Reminder) Trigger() string {
	minutes := r.At.Hour*60 + r.At.Minute - r.DaysBefore*24*60
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%sP%dDT%dH%dM", sign, minutes/(24*60), minutes%(24*60)/60, minutes%60)
}

// WriteICS writes the events as iCalendar document with one all-day VEVENT
// per event and one VALARM per reminder
func WriteICS(w io.Writer, events []UpcomingEvent, stamp time.Time, reminders ...Reminder) {
	fmt.Fprintln(w, "BEGIN:VCALENDAR")
	fmt.Fprintf(w, "PRODID:%s\n", ICSProductID)
	fmt.Fprintln(w, "VERSION:2.0")

	uids := make(map[string]int, len(events))
	for _, event := range events {
		// UIDs must be stable for calendar updates
		uid := eventUID(event)
		uids[uid]++
		if n := uids[uid]; n > 1 {
			uid = fmt.Sprintf("%s-%d", uid, n)
		}

		fmt.Fprintln(w, "BEGIN:VEVENT")
		fmt.Fprintf(w, "SUMMARY:%s\n", escapeText(event.Type))
		fmt.Fprintf(w, "DESCRIPTION:%s\n", escapeText(event.Type))
		fmt.Fprintf(w, "DTSTART;VALUE=DATE:%s\n", event.Date.Format("20060102"))
		fmt.Fprintf(w, "DTEND;VALUE=DATE:%s\n", event.Date.AddDate(0, 0, 1).Format("20060102"))
		fmt.Fprintf(w, "DTSTAMP:%s\n", stamp.UTC().Format("20060102T150405Z"))
		fmt.Fprintf(w, "UID:%s\n", uid)
		fmt.Fprintf(w, "LOCATION:%s\n", escapeText(event.Location))
		fmt.Fprintf(w, "ORGANIZER;CN=%s:%s\n", quoteParam(event.Source), event.Source)
		for _, r := range reminders {
			fmt.Fprintln(w, "BEGIN:VALARM")
			fmt.Fprintln(w, "ACTION:DISPLAY")
			fmt.Fprintf(w, "DESCRIPTION:Erinnerung: %s\n", escapeText(event.Type))
			fmt.Fprintf(w, "TRIGGER:%s\n", r.Trigger())
			fmt.Fprintln(w, "END:VALARM")
		}
		fmt.Fprintln(w, "END:VEVENT")
	}

	fmt.Fprintln(w, "END:VCALENDAR")
}

func eventUID(event UpcomingEvent) string {
	return ReadingName(event.Date.Format("20060102") + event.Type)
}

// escapeText escapes TEXT values as required by RFC 5545
func escapeText(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, ";", "\\;")
	text = strings.ReplaceAll(text, ",", "\\,")
	text = strings.ReplaceAll(text, "\n", "\\n")
	return text
}

// quoteParam quotes a parameter value containing separators
func quoteParam(value string) string {
	if strings.ContainsAny(value, ":;,") {
		return `"` + strings.ReplaceAll(value, `"`, "") + `"`
	}
	return value
}

// WriteCSV writes the events as CSV with a German header row
func WriteCSV(w io.Writer, events []UpcomingEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Datum", "Abfalltyp", "Tage", "Ort", "Quelle"}); err != nil {
		return err
	}
	for _, event := range events {
		if err := cw.Write([]string{
			event.Date.Format("2006-01-02"),
			event.Type,
			strconv.Itoa(event.DaysTo),
			event.Location,
			event.Source,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the events of device as JSON document
func WriteJSON(w io.Writer, device string, events []UpcomingEvent) error {
	data := map[string]interface{}{
		"device": device,
		"events": events,
	}
	return json.NewEncoder(w).Encode(data)
}
