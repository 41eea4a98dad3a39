package persistence

import (
	"time"

	"github.com/google/uuid"

	"github.com/moyeolab/moyeo/internal/coordination/domain"
)

// JSON documents for the embedded arrays of a room row. The aggregate's
// value objects keep unexported fields, so persistence round-trips through
// these DTOs.

type memberDoc struct {
	UserID    uuid.UUID `json:"user_id"`
	Color     string    `json:"color"`
	CarryOver int       `json:"carry_over"`
	Completed int       `json:"completed"`
}

func membersToDocs(members []domain.Member) []memberDoc {
	docs := make([]memberDoc, 0, len(members))
	for _, m := range members {
		docs = append(docs, memberDoc{
			UserID:    m.UserID(),
			Color:     m.Color(),
			CarryOver: m.CarryOver(),
			Completed: m.Completed(),
		})
	}
	return docs
}

func docsToMembers(docs []memberDoc) []domain.Member {
	members := make([]domain.Member, 0, len(docs))
	for _, d := range docs {
		members = append(members, domain.RehydrateMember(d.UserID, d.Color, d.CarryOver, d.Completed))
	}
	return members
}

type scheduleEntryDoc struct {
	DayOfWeek    int    `json:"day_of_week"`
	SpecificDate string `json:"specific_date,omitempty"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
	Priority     int    `json:"priority"`
}

type scheduleExceptionDoc struct {
	Date      string `json:"date"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	IsHoliday bool   `json:"is_holiday"`
}

type personalTimeDoc struct {
	Days         []int  `json:"days,omitempty"`
	SpecificDate string `json:"specific_date,omitempty"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
	Title        string `json:"title,omitempty"`
}

type profileCalendars struct {
	DefaultSchedule    []scheduleEntryDoc     `json:"default_schedule"`
	ScheduleExceptions []scheduleExceptionDoc `json:"schedule_exceptions"`
	PersonalTimes      []personalTimeDoc      `json:"personal_times"`
}

func calendarsToDocs(p *domain.UserProfile) profileCalendars {
	var doc profileCalendars
	for _, e := range p.DefaultSchedule() {
		doc.DefaultSchedule = append(doc.DefaultSchedule, scheduleEntryDoc{
			DayOfWeek:    int(e.DayOfWeek),
			SpecificDate: e.SpecificDate,
			Start:        e.Start,
			End:          e.End,
			Priority:     e.Priority,
		})
	}
	for _, e := range p.ScheduleExceptions() {
		doc.ScheduleExceptions = append(doc.ScheduleExceptions, scheduleExceptionDoc{
			Date:      e.Date,
			Start:     e.Start,
			End:       e.End,
			IsHoliday: e.IsHoliday,
		})
	}
	for _, e := range p.PersonalTimes() {
		days := make([]int, 0, len(e.Days))
		for _, d := range e.Days {
			days = append(days, int(d))
		}
		doc.PersonalTimes = append(doc.PersonalTimes, personalTimeDoc{
			Days:         days,
			SpecificDate: e.SpecificDate,
			Start:        e.Start,
			End:          e.End,
			Title:        e.Title,
		})
	}
	return doc
}

func docsToProfile(userID uuid.UUID, name, address string, lat, lng float64, doc profileCalendars) *domain.UserProfile {
	entries := make([]domain.ScheduleEntry, 0, len(doc.DefaultSchedule))
	for _, e := range doc.DefaultSchedule {
		entries = append(entries, domain.ScheduleEntry{
			DayOfWeek:    time.Weekday(e.DayOfWeek),
			SpecificDate: e.SpecificDate,
			Start:        e.Start,
			End:          e.End,
			Priority:     e.Priority,
		})
	}
	exceptions := make([]domain.ScheduleException, 0, len(doc.ScheduleExceptions))
	for _, e := range doc.ScheduleExceptions {
		exceptions = append(exceptions, domain.ScheduleException{
			Date:      e.Date,
			Start:     e.Start,
			End:       e.End,
			IsHoliday: e.IsHoliday,
		})
	}
	personal := make([]domain.PersonalTime, 0, len(doc.PersonalTimes))
	for _, e := range doc.PersonalTimes {
		days := make([]time.Weekday, 0, len(e.Days))
		for _, d := range e.Days {
			days = append(days, time.Weekday(d))
		}
		personal = append(personal, domain.PersonalTime{
			Days:         days,
			SpecificDate: e.SpecificDate,
			Start:        e.Start,
			End:          e.End,
			Title:        e.Title,
		})
	}
	return domain.NewUserProfile(userID, name, address,
		domain.Coordinates{Lat: lat, Lng: lng}, entries, exceptions, personal)
}
