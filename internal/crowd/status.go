package crowd

import "strings"

// Status is the crowd severity reported for a compartment.
type Status int

const (
	// StatusGreen signals a comfortable compartment.
	StatusGreen Status = iota
	// StatusYellow signals limited seating.
	StatusYellow
	// StatusRed signals a full compartment.
	StatusRed
)

// Statuses lists all known statuses in ascending severity.
var Statuses = []Status{StatusGreen, StatusYellow, StatusRed}

// Display holds the presentation metadata of a status.
type Display struct {
	Label       string
	Description string
	Class       string
}

var displays = map[Status]Display{
	StatusGreen:  {Label: "LOW CROWD", Description: "Comfortable seating available", Class: "green"},
	StatusYellow: {Label: "MODERATE CROWD", Description: "Limited seating available", Class: "yellow"},
	StatusRed:    {Label: "HIGH CROWD", Description: "Standing room only", Class: "red"},
}

// String returns the wire representation (GREEN, YELLOW, RED).
func (s Status) String() string {
	switch s {
	case StatusGreen:
		return "GREEN"
	case StatusYellow:
		return "YELLOW"
	case StatusRed:
		return "RED"
	default:
		return "UNKNOWN"
	}
}

// Display returns the label, description and styling class of the status.
// Out of range values resolve to the green presentation.
func (s Status) Display() Display {
	if d, ok := displays[s]; ok {
		return d
	}
	return displays[StatusGreen]
}

// NormalizeStatus lowercases and trims a raw status string.
func NormalizeStatus(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ParseStatus maps a raw status string onto the enumeration. The second
// return value reports whether the string was recognised.
func ParseStatus(raw string) (Status, bool) {
	switch NormalizeStatus(raw) {
	case "green":
		return StatusGreen, true
	case "yellow":
		return StatusYellow, true
	case "red":
		return StatusRed, true
	default:
		return StatusGreen, false
	}
}

// Resolve parses raw and returns its presentation. Unrecognised values fall
// back to StatusGreen with known reported as false.
func Resolve(raw string) (status Status, display Display, known bool) {
	status, known = ParseStatus(raw)
	return status, status.Display(), known
}
