package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moyeolab/moyeo/internal/coordination/application/commands"
	"github.com/moyeolab/moyeo/internal/coordination/application/queries"
	"github.com/moyeolab/moyeo/internal/coordination/application/services"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
)

// TokenVerifier resolves a bearer token into a user identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (uuid.UUID, error)
}

// CoordinationHandler exposes room, schedule and exchange operations over HTTP.
type CoordinationHandler struct {
	createRoom      *commands.CreateRoomHandler
	joinRoom        *commands.JoinRoomHandler
	runSchedule     *commands.RunScheduleHandler
	confirmSchedule *commands.ConfirmScheduleHandler
	smartExchange   *commands.SmartExchangeHandler
	approveRequest  *commands.ApproveRequestHandler
	rejectRequest   *commands.RejectRequestHandler
	cancelRequest   *commands.CancelRequestHandler
	getRoom         *queries.GetRoomHandler
	intentParser    services.IntentParser
	verifier        TokenVerifier
	logger          *slog.Logger
}

// CoordinationHandlerConfig holds the dependencies for CoordinationHandler.
type CoordinationHandlerConfig struct {
	CreateRoom      *commands.CreateRoomHandler
	JoinRoom        *commands.JoinRoomHandler
	RunSchedule     *commands.RunScheduleHandler
	ConfirmSchedule *commands.ConfirmScheduleHandler
	SmartExchange   *commands.SmartExchangeHandler
	ApproveRequest  *commands.ApproveRequestHandler
	RejectRequest   *commands.RejectRequestHandler
	CancelRequest   *commands.CancelRequestHandler
	GetRoom         *queries.GetRoomHandler
	IntentParser    services.IntentParser
	Verifier        TokenVerifier
	Logger          *slog.Logger
}

// NewCoordinationHandler creates a new CoordinationHandler.
func NewCoordinationHandler(cfg CoordinationHandlerConfig) *CoordinationHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CoordinationHandler{
		createRoom:      cfg.CreateRoom,
		joinRoom:        cfg.JoinRoom,
		runSchedule:     cfg.RunSchedule,
		confirmSchedule: cfg.ConfirmSchedule,
		smartExchange:   cfg.SmartExchange,
		approveRequest:  cfg.ApproveRequest,
		rejectRequest:   cfg.RejectRequest,
		cancelRequest:   cfg.CancelRequest,
		getRoom:         cfg.GetRoom,
		intentParser:    cfg.IntentParser,
		verifier:        cfg.Verifier,
		logger:          logger,
	}
}

type successResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	ImmediateSwap *bool  `json:"immediateSwap,omitempty"`
	NeedsApproval *bool  `json:"needsApproval,omitempty"`
	TargetDay     string `json:"targetDay,omitempty"`
	TargetTime    string `json:"targetTime,omitempty"`
	RequestID     string `json:"requestId,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// CreateRoom handles POST /api/coordination/rooms.
func (h *CoordinationHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "방 이름을 입력해주세요."})
		return
	}

	room, err := h.createRoom.Handle(r.Context(), commands.CreateRoomCommand{
		OwnerID: userID,
		Name:    strings.TrimSpace(req.Name),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"room":    roomToView(room, nil),
	})
}

// JoinRoom handles POST /api/coordination/rooms/join.
func (h *CoordinationHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req struct {
		InviteCode string `json:"inviteCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InviteCode == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "초대 코드를 입력해주세요."})
		return
	}

	room, err := h.joinRoom.Handle(r.Context(), commands.JoinRoomCommand{
		UserID:     userID,
		InviteCode: strings.ToUpper(strings.TrimSpace(req.InviteCode)),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"room":    roomToView(room, nil),
	})
}

// GetRoom handles GET /api/coordination/rooms/{roomID}.
func (h *CoordinationHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	roomID, err := uuid.Parse(r.PathValue("roomID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "잘못된 방 ID입니다."})
		return
	}

	result, err := h.getRoom.Handle(r.Context(), queries.GetRoomQuery{RoomID: roomID, UserID: userID})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"room":    roomToView(result.Room, result.Activity),
	})
}

// RunSchedule handles POST /api/coordination/rooms/{roomID}/run-schedule.
func (h *CoordinationHandler) RunSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	roomID, err := uuid.Parse(r.PathValue("roomID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "잘못된 방 ID입니다."})
		return
	}

	var req struct {
		WeekStart string `json:"weekStart"`
	}
	// Body is optional. Default to the current week.
	_ = json.NewDecoder(r.Body).Decode(&req)
	weekStart := services.StartOfWeek(time.Now())
	if req.WeekStart != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.WeekStart, time.Local)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: "잘못된 날짜 형식입니다. (YYYY-MM-DD)"})
			return
		}
		weekStart = services.StartOfWeek(parsed)
	}

	result, err := h.runSchedule.Handle(r.Context(), commands.RunScheduleCommand{
		RoomID:    roomID,
		UserID:    userID,
		WeekStart: weekStart,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "주간 일정을 생성했습니다.",
		"weekStart":     domain.DateKey(result.WeekStart),
		"placed":        len(result.Placed),
		"unplaced":      unplacedIDs(result.Unplaced),
		"affectedDates": result.AffectedDates(),
	})
}

// ConfirmSchedule handles POST /api/coordination/rooms/{roomID}/confirm-schedule.
func (h *CoordinationHandler) ConfirmSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	roomID, err := uuid.Parse(r.PathValue("roomID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "잘못된 방 ID입니다."})
		return
	}

	if err := h.confirmSchedule.Handle(r.Context(), commands.ConfirmScheduleCommand{
		RoomID: roomID,
		UserID: userID,
	}); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "주간 일정을 확정했습니다."})
}

// ParseExchangeRequest handles POST /api/coordination/rooms/{roomID}/parse-exchange-request.
func (h *CoordinationHandler) ParseExchangeRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	roomID, err := uuid.Parse(r.PathValue("roomID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "잘못된 방 ID입니다."})
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "요청 내용을 입력해주세요."})
		return
	}

	intent, err := h.intentParser.Parse(r.Context(), roomID, userID, req.Message)
	if err != nil {
		h.logger.Error("intent parsing failed", "room_id", roomID, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Message: "요청을 이해하지 못했습니다. 다시 시도해주세요.",
			Reason:  domain.ReasonInvalidIntent,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"intent":  intent,
	})
}

// SmartExchange handles POST /api/coordination/rooms/{roomID}/smart-exchange.
func (h *CoordinationHandler) SmartExchange(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	roomID, err := uuid.Parse(r.PathValue("roomID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "잘못된 방 ID입니다."})
		return
	}

	var req struct {
		Intent  *domain.ParsedIntent `json:"intent"`
		Message string               `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "잘못된 요청 본문입니다."})
		return
	}

	var intent domain.ParsedIntent
	switch {
	case req.Intent != nil:
		intent = *req.Intent
	case strings.TrimSpace(req.Message) != "":
		parsed, err := h.intentParser.Parse(r.Context(), roomID, userID, req.Message)
		if err != nil {
			h.logger.Error("intent parsing failed", "room_id", roomID, "error", err)
			writeJSON(w, http.StatusBadGateway, errorResponse{
				Message: "요청을 이해하지 못했습니다. 다시 시도해주세요.",
				Reason:  domain.ReasonInvalidIntent,
			})
			return
		}
		intent = parsed
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "요청 내용을 입력해주세요."})
		return
	}

	outcome, err := h.smartExchange.Handle(r.Context(), commands.SmartExchangeCommand{
		RoomID: roomID,
		UserID: userID,
		Intent: intent,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, exchangeResponse(outcome))
}

// exchangeResponse maps a planner outcome to the wire envelope. targetTime
// carries the start clock only; the full window is part of the message.
func exchangeResponse(outcome services.ExchangeOutcome) successResponse {
	resp := successResponse{
		Success:       true,
		Message:       outcome.Message,
		ImmediateSwap: &outcome.ImmediateSwap,
		NeedsApproval: &outcome.NeedsApproval,
	}
	if !outcome.TargetDate.IsZero() {
		resp.TargetDay = koreanDate(outcome.TargetDate)
		resp.TargetTime = domain.FormatClock(outcome.TargetStart)
	}
	if outcome.Request != nil {
		resp.RequestID = outcome.Request.ID().String()
	}
	return resp
}

// ApproveRequest handles POST /api/coordination/requests/{requestID}/approve.
func (h *CoordinationHandler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	requestID, err := uuid.Parse(r.PathValue("requestID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "잘못된 요청 ID입니다."})
		return
	}

	outcome, err := h.approveRequest.Handle(r.Context(), commands.ApproveRequestCommand{
		RequestID: requestID,
		UserID:    userID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: outcome.Message})
}

// RejectRequest handles POST /api/coordination/requests/{requestID}/reject.
func (h *CoordinationHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	requestID, err := uuid.Parse(r.PathValue("requestID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "잘못된 요청 ID입니다."})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional.
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.rejectRequest.Handle(r.Context(), commands.RejectRequestCommand{
		RequestID: requestID,
		UserID:    userID,
		Reason:    req.Reason,
	}); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "양보 요청을 거절했습니다."})
}

// CancelRequest handles DELETE /api/coordination/requests/{requestID}.
func (h *CoordinationHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	requestID, err := uuid.Parse(r.PathValue("requestID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "잘못된 요청 ID입니다."})
		return
	}

	if err := h.cancelRequest.Handle(r.Context(), commands.CancelRequestCommand{
		RequestID: requestID,
		UserID:    userID,
	}); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "양보 요청을 취소했습니다."})
}

// authenticate resolves the caller from the Authorization header. On failure
// it writes a 401 response and returns ok=false.
func (h *CoordinationHandler) authenticate(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "로그인이 필요합니다."})
		return uuid.Nil, false
	}
	userID, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "인증에 실패했습니다."})
		return uuid.Nil, false
	}
	return userID, true
}

// writeError maps domain errors to HTTP status codes.
func (h *CoordinationHandler) writeError(w http.ResponseWriter, err error) {
	if rej, ok := domain.AsRejection(err); ok {
		status := http.StatusBadRequest
		if rej.Reason == domain.ReasonStaleRequest {
			status = http.StatusConflict
		}
		writeJSON(w, status, errorResponse{Message: rej.Message, Reason: rej.Reason})
		return
	}

	switch {
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, domain.ErrProfileNotFound),
		errors.Is(err, domain.ErrSlotNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "대상을 찾을 수 없습니다."})
	case errors.Is(err, domain.ErrNotAuthorized), errors.Is(err, domain.ErrNotMember):
		writeJSON(w, http.StatusForbidden, errorResponse{Message: "권한이 없습니다."})
	case errors.Is(err, domain.ErrAlreadyMember):
		writeJSON(w, http.StatusConflict, errorResponse{Message: "이미 참여 중인 방입니다."})
	case errors.Is(err, domain.ErrRequestNotPending):
		writeJSON(w, http.StatusConflict, errorResponse{Message: "이미 처리된 요청입니다."})
	case errors.Is(err, domain.ErrRoomConfirmed):
		writeJSON(w, http.StatusConflict, errorResponse{Message: "이미 확정된 일정입니다."})
	case errors.Is(err, domain.ErrNoProposedSlots):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "확정할 일정이 없습니다."})
	default:
		h.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "일시적인 오류가 발생했습니다."})
	}
}

func unplacedIDs(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

var weekdayKorean = [...]string{"일", "월", "화", "수", "목", "금", "토"}

func koreanDate(t time.Time) string {
	return domain.DateKey(t) + "(" + weekdayKorean[int(t.Weekday())] + ")"
}
