package app

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/klabast/wb-services/abfall-fhem/internal/config"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWriteICS(t *testing.T) {
	events := []UpcomingEvent{
		{Date: day(2025, 1, 15), Type: "Restmüll", Location: "Zuhause", Source: "Abfallkalender Winterberg"},
		{Date: day(2025, 1, 20), Type: "Biotonne", Location: "Zuhause", Source: "Abfallkalender Winterberg"},
	}

	var buf bytes.Buffer
	WriteICS(&buf, events, time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC))
	body := buf.String()

	// Check for required ICS structure
	requiredFields := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + ICSProductID,
		"BEGIN:VEVENT",
		"END:VEVENT",
		"END:VCALENDAR",
	}

	for _, field := range requiredFields {
		if !strings.Contains(body, field) {
			t.Errorf("ICS output missing required field: %s", field)
		}
	}

	// Check for all-day event format
	if !strings.Contains(body, "DTSTART;VALUE=DATE:20250115") {
		t.Error("Event should be all-day (DTSTART;VALUE=DATE)")
	}
	if !strings.Contains(body, "DTEND;VALUE=DATE:20250116") {
		t.Error("All-day event should end on next day")
	}
	if !strings.Contains(body, "DTSTAMP:20250110T080000Z") {
		t.Error("Missing DTSTAMP")
	}

	if !strings.Contains(body, "SUMMARY:Restmüll") {
		t.Error("Missing event summary for Restmüll")
	}
	if !strings.Contains(body, "UID:20250115Restmuell") {
		t.Error("UID should be transliterated date and type without spaces")
	}
	if !strings.Contains(body, "LOCATION:Zuhause") {
		t.Error("Missing location")
	}
	if !strings.Contains(body, "ORGANIZER;CN=Abfallkalender Winterberg:Abfallkalender Winterberg") {
		t.Error("Missing organizer")
	}
}

func TestWriteICSUniqueUIDs(t *testing.T) {
	events := []UpcomingEvent{
		{Date: day(2024, 5, 1), Type: "Restabfall"},
		{Date: day(2024, 5, 1), Type: "Restabfall"},
		{Date: day(2024, 5, 1), Type: "Rest abfall"},
		{Date: day(2024, 5, 1), Type: "Gelber Sack"},
		{Date: day(2024, 5, 8), Type: "Restabfall"},
	}

	var buf bytes.Buffer
	WriteICS(&buf, events, time.Now())
	body := buf.String()

	if got := strings.Count(body, "BEGIN:VEVENT"); got != len(events) {
		t.Fatalf("Expected %d events, got %d", len(events), got)
	}

	uids := make(map[string]bool)
	for _, line := range strings.Split(body, "\n") {
		uid, ok := strings.CutPrefix(line, "UID:")
		if !ok {
			continue
		}
		if uids[uid] {
			t.Errorf("Duplicate UID %s", uid)
		}
		uids[uid] = true
	}
	if len(uids) != len(events) {
		t.Errorf("Expected %d UIDs, got %d", len(events), len(uids))
	}
	if !uids["20240501Restabfall-2"] {
		t.Errorf("Expected suffixed UID for second Restabfall, got %v", uids)
	}
}

func TestWriteICSEscapesText(t *testing.T) {
	events := []UpcomingEvent{
		{Date: day(2024, 5, 1), Type: "Papier, Pappe; Kartonagen", Location: "Hof\nHinten", Source: "ICS"},
	}

	var buf bytes.Buffer
	WriteICS(&buf, events, time.Now())
	body := buf.String()

	if !strings.Contains(body, `SUMMARY:Papier\, Pappe\; Kartonagen`) {
		t.Errorf("Summary not escaped:\n%s", body)
	}
	if !strings.Contains(body, `LOCATION:Hof\nHinten`) {
		t.Errorf("Location not escaped:\n%s", body)
	}
}

func TestReminderTrigger(t *testing.T) {
	tests := []struct {
		name     string
		reminder Reminder
		want     string
	}{
		{"2 days before at 18:00", Reminder{DaysBefore: 2, At: config.ClockTime{Hour: 18}}, "-P1DT6H0M"},
		{"1 day before at 19:30", Reminder{DaysBefore: 1, At: config.ClockTime{Hour: 19, Minute: 30}}, "-P0DT4H30M"},
		{"same day at 07:00", Reminder{At: config.ClockTime{Hour: 7}}, "P0DT7H0M"},
		{"same day at midnight", Reminder{}, "P0DT0H0M"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.reminder.Trigger(); got != tt.want {
				t.Errorf("Trigger() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWriteICSReminders(t *testing.T) {
	events := []UpcomingEvent{
		{Date: day(2025, 1, 15), Type: "Restmüll"},
		{Date: day(2025, 1, 20), Type: "Biotonne"},
	}
	reminders := []Reminder{
		{DaysBefore: 1, At: config.ClockTime{Hour: 19}},
		{At: config.ClockTime{Hour: 7}},
	}

	var buf bytes.Buffer
	WriteICS(&buf, events, time.Now(), reminders...)
	body := buf.String()

	if got := strings.Count(body, "BEGIN:VALARM"); got != 4 {
		t.Errorf("Expected 4 alarms, got %d", got)
	}
	for _, want := range []string{
		"ACTION:DISPLAY",
		"DESCRIPTION:Erinnerung: Restmüll",
		"TRIGGER:-P0DT5H0M",
		"TRIGGER:P0DT7H0M",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("ICS output missing %s", want)
		}
	}

	buf.Reset()
	WriteICS(&buf, events, time.Now())
	if strings.Contains(buf.String(), "VALARM") {
		t.Error("Calendar without reminders should not contain alarms")
	}
}

func TestWriteCSV(t *testing.T) {
	events := []UpcomingEvent{
		{Date: day(2025, 1, 15), Type: "Restmüll", DaysTo: 5, Location: "Zuhause", Source: "ICS"},
		{Date: day(2025, 1, 20), Type: "Papier, Pappe", DaysTo: 10, Location: "Zuhause", Source: "ICS"},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, events); err != nil {
		t.Fatalf("WriteCSV() failed: %v", err)
	}
	body := buf.String()

	if !strings.HasPrefix(body, "Datum,Abfalltyp,Tage,Ort,Quelle\n") {
		t.Error("Missing CSV header")
	}
	if !strings.Contains(body, "2025-01-15,Restmüll,5,Zuhause,ICS") {
		t.Error("Missing first event in CSV")
	}
	if !strings.Contains(body, `2025-01-20,"Papier, Pappe",10,Zuhause,ICS`) {
		t.Error("Second event should be quoted")
	}
}

func TestWriteJSON(t *testing.T) {
	events := []UpcomingEvent{
		{Date: day(2025, 1, 15), Type: "Restmüll", DaysTo: 5},
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, "Abfall", events); err != nil {
		t.Fatalf("WriteJSON() failed: %v", err)
	}
	body := buf.String()

	if !strings.Contains(body, `"device":"Abfall"`) {
		t.Error("Missing device in JSON")
	}
	if !strings.Contains(body, `"days_to":5`) {
		t.Error("Missing days_to in JSON")
	}
	if !strings.Contains(body, `"events"`) {
		t.Error("Missing events in JSON")
	}
}
