package domain

import "time"

// IntentType classifies a parsed exchange intent.
type IntentType string

const (
	IntentTimeChange IntentType = "time_change"
	IntentDateChange IntentType = "date_change"
	IntentConfirm    IntentType = "confirm"
	IntentReject     IntentType = "reject"
)

// ParsedIntent is the structured output of the external natural-language
// parser. The core consumes this struct, never raw prose. Optional fields
// are pointers; nil means the user did not specify them.
type ParsedIntent struct {
	Type IntentType `json:"type"`

	// time_change fields
	SourceDay        *time.Weekday `json:"source_day,omitempty"`
	SourceTime       *int          `json:"source_time,omitempty"` // minutes from midnight
	SourceWeekOffset *int          `json:"source_week_offset,omitempty"`
	TargetDay        *time.Weekday `json:"target_day,omitempty"`
	TargetTime       *int          `json:"target_time,omitempty"`
	WeekOffset       *int          `json:"week_offset,omitempty"`
	WeekNumber       *int          `json:"week_number,omitempty"` // nth week of Month
	Month            *int          `json:"month,omitempty"`

	// date_change fields (calendar-date addressed)
	SourceMonth      *int `json:"source_month,omitempty"`
	SourceDayOfMonth *int `json:"source_day_of_month,omitempty"`
	TargetMonth      *int `json:"target_month,omitempty"`
	TargetDayOfMonth *int `json:"target_day_of_month,omitempty"`

	Message string `json:"message,omitempty"`
}
