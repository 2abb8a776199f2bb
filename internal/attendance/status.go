package attendance

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Status is the attendance state of one person on one day.
type Status int

const (
	Unmarked Status = iota
	Attended
	Late
	Absent
	Other
)

// ErrInvalidStatus is returned when a status string is not part of the vocabulary.
var ErrInvalidStatus = errors.New("invalid attendance status")

// String returns the wire vocabulary value; Unmarked has none.
func (s Status) String() string {
	switch s {
	case Attended:
		return "ATTEND"
	case Late:
		return "LATE"
	case Absent:
		return "ABSENT"
	case Other:
		return "OTHER"
	default:
		return ""
	}
}

// Marked reports whether marking is closed for the day.
func (s Status) Marked() bool { return s == Attended || s == Late }

func (s Status) MarshalJSON() ([]byte, error) {
	if s == Unmarked {
		return []byte("null"), nil
	}
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = Unmarked
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = Normalize(raw)
	return nil
}

var vocabulary = map[string]Status{
	"ATTEND":   Attended,
	"ATTENDED": Attended,
	"LATE":     Late,
	"ABSENT":   Absent,
	"OTHER":    Other,
}

// Normalize maps a raw status string onto a Status, ignoring case and
// surrounding space. Unrecognized values map to Unmarked.
func Normalize(raw string) Status {
	s, _ := lookup(raw)
	return s
}

// Parse is Normalize for inputs that must be part of the vocabulary.
func Parse(raw string) (Status, error) {
	s, ok := lookup(raw)
	if !ok {
		return Unmarked, fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

func lookup(raw string) (Status, bool) {
	s, ok := vocabulary[strings.ToUpper(strings.TrimSpace(raw))]
	return s, ok
}

// Outcome describes how Decode arrived at its status.
type Outcome int

const (
	Decoded Outcome = iota
	FieldMissing
	UnknownValue
)

func (o Outcome) String() string {
	switch o {
	case Decoded:
		return "decoded"
	case FieldMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// StatusKeys is the priority order in which Decode looks for a status field.
var StatusKeys = []string{"attendanceStatus", "attendStatus", "status", "attendance_status", "state"}

// Decode reads the status out of a loosely typed backend record. The first
// key from StatusKeys holding a non-blank value decides the outcome; a record
// whose status fields are all blank decodes as Unmarked.
func Decode(record map[string]any) (Status, Outcome) {
	blank := false
	for _, key := range StatusKeys {
		v, ok := record[key]
		if !ok || v == nil {
			continue
		}
		raw, ok := v.(string)
		if !ok {
			return Unmarked, UnknownValue
		}
		if strings.TrimSpace(raw) == "" {
			blank = true
			continue
		}
		s, known := lookup(raw)
		if !known {
			return Unmarked, UnknownValue
		}
		return s, Decoded
	}
	if blank {
		return Unmarked, Decoded
	}
	return Unmarked, FieldMissing
}

// DecodeID returns the first present identity field as a string. JSON numbers
// arrive as float64 and are formatted without a fraction.
func DecodeID(record map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		switch v := record[key].(type) {
		case string:
			if v != "" {
				return v, true
			}
		case float64:
			return strconv.FormatInt(int64(v), 10), true
		case json.Number:
			return v.String(), true
		case int64:
			return strconv.FormatInt(v, 10), true
		case int:
			return strconv.Itoa(v), true
		}
	}
	return "", false
}

// Cutoff is the time of day from which a check-in counts as late.
type Cutoff struct {
	Hour, Minute int
	Loc          *time.Location
}

// ParseCutoff reads an "HH:MM" cutoff in loc.
func ParseCutoff(v string, loc *time.Location) (Cutoff, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return Cutoff{}, fmt.Errorf("parse cutoff %q: %w", v, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return Cutoff{Hour: t.Hour(), Minute: t.Minute(), Loc: loc}, nil
}

// StatusAt decides the status for a check-in at now. A check-in at exactly
// the cutoff is late.
func StatusAt(now time.Time, c Cutoff) Status {
	loc := c.Loc
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	boundary := time.Date(local.Year(), local.Month(), local.Day(), c.Hour, c.Minute, 0, 0, loc)
	if local.Before(boundary) {
		return Attended
	}
	return Late
}

// DayTally counts one date's statuses.
type DayTally struct {
	Date     string `json:"date"`
	Attend   int    `json:"attend"`
	Late     int    `json:"late"`
	Absent   int    `json:"absent"`
	Other    int    `json:"other"`
	Unmarked int    `json:"unmarked"`
}

// DateKeys is the priority order for a record's date field.
var DateKeys = []string{"date", "attendanceDate", "attendDate", "attendance_date"}

// TallyByDate groups raw records by date, sorted by date. Records without a
// date are skipped.
func TallyByDate(records []map[string]any) []DayTally {
	byDate := make(map[string]*DayTally)
	var order []string
	for _, rec := range records {
		date, ok := DecodeID(rec, DateKeys...)
		if !ok {
			continue
		}
		if len(date) > 10 {
			date = date[:10]
		}
		t, ok := byDate[date]
		if !ok {
			t = &DayTally{Date: date}
			byDate[date] = t
			order = append(order, date)
		}
		s, _ := Decode(rec)
		switch s {
		case Attended:
			t.Attend++
		case Late:
			t.Late++
		case Absent:
			t.Absent++
		case Other:
			t.Other++
		default:
			t.Unmarked++
		}
	}
	sort.Strings(order)
	out := make([]DayTally, 0, len(order))
	for _, d := range order {
		out = append(out, *byDate[d])
	}
	return out
}
