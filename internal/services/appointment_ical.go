package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/mestermind/backend/internal/types"
)

// RFC 5545 serialization for the calendar export endpoint. The format is a
// handful of fixed lines, so it is emitted directly.

func icalEscape(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\n", "\\n",
	)
	return r.Replace(s)
}

func icalTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func buildICal(a *types.Appointment, now time.Time) string {
	location := strings.TrimSpace(strings.Join([]string{
		a.LocationLine1, a.LocationLine2, a.LocationPostalCode, a.LocationCity,
	}, " "))

	var b strings.Builder
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Mestermind//Appointments//HU",
		"CALSCALE:GREGORIAN",
		"BEGIN:VEVENT",
		fmt.Sprintf("UID:%s@mestermind.hu", a.ID),
		fmt.Sprintf("DTSTAMP:%s", icalTime(now)),
		fmt.Sprintf("DTSTART:%s", icalTime(a.ScheduledStart)),
		fmt.Sprintf("DTEND:%s", icalTime(a.ScheduledEnd)),
		fmt.Sprintf("SUMMARY:%s", icalEscape("Mestermind időpont")),
	}
	if location != "" {
		lines = append(lines, fmt.Sprintf("LOCATION:%s", icalEscape(location)))
	}
	if a.Notes != "" {
		lines = append(lines, fmt.Sprintf("DESCRIPTION:%s", icalEscape(a.Notes)))
	}
	lines = append(lines,
		fmt.Sprintf("STATUS:%s", icalStatus(a.Status)),
		"END:VEVENT",
		"END:VCALENDAR",
	)
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	return b.String()
}

func icalStatus(s types.AppointmentStatus) string {
	switch s {
	case types.AppointmentStatusCancelledByCustomer, types.AppointmentStatusCancelledByMester:
		return "CANCELLED"
	default:
		return "CONFIRMED"
	}
}
