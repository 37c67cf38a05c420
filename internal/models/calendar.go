package models

// DayClassification tags a calendar date by the origin of its slots.
type DayClassification string

const (
	DayNone       DayClassification = "NONE"
	DayIndividual DayClassification = "INDIVIDUAL"
	DayConfig     DayClassification = "CONFIG"
	DayBoth       DayClassification = "BOTH"
)

// CalendarDay groups one local calendar date's availabilities.
type CalendarDay struct {
	Date           string            `json:"date"`
	Classification DayClassification `json:"classification"`
	Availabilities []Availability    `json:"availabilities"`
}
