package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
)

type roomView struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	OwnerID             string         `json:"ownerId"`
	InviteCode          string         `json:"inviteCode"`
	TravelMode          string         `json:"travelMode"`
	EffectiveTravelMode string         `json:"effectiveTravelMode"`
	State               string         `json:"state"`
	ConfirmedAt         *time.Time     `json:"confirmedAt,omitempty"`
	Members             []memberView   `json:"members"`
	Slots               []slotView     `json:"slots"`
	Requests            []requestView  `json:"requests"`
	Activity            []activityView `json:"activity,omitempty"`
}

type memberView struct {
	UserID    string `json:"userId"`
	Color     string `json:"color"`
	CarryOver int    `json:"carryOver"`
	Completed int    `json:"completed"`
}

type slotView struct {
	ID         string             `json:"id"`
	UserID     string             `json:"userId"`
	Date       string             `json:"date"`
	Weekday    string             `json:"weekday"`
	Start      string             `json:"start"`
	End        string             `json:"end"`
	IsTravel   bool               `json:"isTravel"`
	Subject    string             `json:"subject"`
	Status     string             `json:"status"`
	Priority   int                `json:"priority"`
	Color      string             `json:"color,omitempty"`
	TravelInfo *domain.TravelInfo `json:"travelInfo,omitempty"`
}

type requestView struct {
	ID             string                `json:"id"`
	RequesterID    string                `json:"requesterId"`
	TargetUserID   string                `json:"targetUserId,omitempty"`
	RequestType    string                `json:"requestType"`
	RequesterSlots []domain.SlotSnapshot `json:"requesterSlots"`
	Target         domain.TargetSlotRef  `json:"target"`
	Message        string                `json:"message,omitempty"`
	Status         string                `json:"status"`
	RejectReason   string                `json:"rejectReason,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
}

type activityView struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actorId"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}

func roomToView(room *domain.Room, activity []*domain.ActivityLog) roomView {
	view := roomView{
		ID:                  room.ID().String(),
		Name:                room.Name(),
		OwnerID:             room.OwnerID().String(),
		InviteCode:          room.InviteCode(),
		TravelMode:          string(room.TravelMode()),
		EffectiveTravelMode: string(room.EffectiveTravelMode()),
		State:               string(room.State()),
		ConfirmedAt:         room.ConfirmedAt(),
		Members:             make([]memberView, 0, len(room.Members())),
		Slots:               make([]slotView, 0, len(room.Slots())),
		Requests:            make([]requestView, 0, len(room.Requests())),
	}

	for _, m := range room.Members() {
		view.Members = append(view.Members, memberView{
			UserID:    m.UserID().String(),
			Color:     m.Color(),
			CarryOver: m.CarryOver(),
			Completed: m.Completed(),
		})
	}
	for _, s := range room.Slots() {
		view.Slots = append(view.Slots, slotToView(s))
	}
	for _, req := range room.Requests() {
		view.Requests = append(view.Requests, requestToView(req))
	}
	for _, entry := range activity {
		view.Activity = append(view.Activity, activityView{
			ID:        entry.ID().String(),
			ActorID:   entry.ActorID().String(),
			Kind:      string(entry.Kind()),
			Detail:    entry.Detail(),
			CreatedAt: entry.CreatedAt(),
		})
	}
	return view
}

func slotToView(s *domain.Slot) slotView {
	return slotView{
		ID:         s.ID().String(),
		UserID:     s.UserID().String(),
		Date:       s.DateKey(),
		Weekday:    weekdayKorean[int(s.Weekday())],
		Start:      domain.FormatClock(s.Start()),
		End:        domain.FormatClock(s.End()),
		IsTravel:   s.IsTravel(),
		Subject:    s.Subject(),
		Status:     string(s.Status()),
		Priority:   s.Priority(),
		Color:      s.Color(),
		TravelInfo: s.TravelInfo(),
	}
}

func requestToView(req *domain.ExchangeRequest) requestView {
	view := requestView{
		ID:             req.ID().String(),
		RequesterID:    req.RequesterID().String(),
		RequestType:    string(req.RequestType()),
		RequesterSlots: req.RequesterSlots(),
		Target:         req.Target(),
		Message:        req.Message(),
		Status:         string(req.Status()),
		RejectReason:   req.RejectReason(),
		CreatedAt:      req.CreatedAt(),
	}
	if req.TargetUserID() != uuid.Nil {
		view.TargetUserID = req.TargetUserID().String()
	}
	return view
}
