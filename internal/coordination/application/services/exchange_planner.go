package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
)

// autoPlacementStep is the stride of the Case-B free-gap search in minutes.
const autoPlacementStep = 30

// ExchangeOutcome is the result of a successfully classified exchange.
type ExchangeOutcome struct {
	Message       string
	ImmediateSwap bool
	NeedsApproval bool
	Mutated       bool
	TargetDate    time.Time
	TargetStart   int
	TargetEnd     int
	Request       *domain.ExchangeRequest
	AffectedDates []string
}

// ExchangePlanner classifies a parsed intent into one of three outcomes:
// an immediate move, an auto-placement into a free gap, or a pending yield
// request for the occupant's approval. It also applies approved requests.
type ExchangePlanner struct {
	recomputer *TravelRecomputer
	logger     *slog.Logger
	now        func() time.Time
}

// NewExchangePlanner creates the planner. now is the clock used to resolve
// relative dates ("next week"); nil means time.Now.
func NewExchangePlanner(recomputer *TravelRecomputer, logger *slog.Logger, now func() time.Time) *ExchangePlanner {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &ExchangePlanner{recomputer: recomputer, logger: logger, now: now}
}

// Apply validates and executes a parsed exchange intent for the requester.
// Validation failures return a RejectionError with a machine reason code and
// a user-facing Korean message.
func (p *ExchangePlanner) Apply(
	ctx context.Context,
	room *domain.Room,
	profiles map[uuid.UUID]*domain.UserProfile,
	requesterID uuid.UUID,
	intent domain.ParsedIntent,
) (ExchangeOutcome, error) {
	if intent.Type != domain.IntentTimeChange && intent.Type != domain.IntentDateChange {
		return ExchangeOutcome{}, domain.Rejectf(domain.ReasonInvalidIntent, "요청을 이해하지 못했습니다. 다시 말씀해 주세요.")
	}

	today := domain.NormalizeDate(p.now())
	sourceDate, targetDate, err := p.resolveDates(intent, today)
	if err != nil {
		return ExchangeOutcome{}, err
	}

	if wd := domain.WeekdayOf(targetDate); wd == time.Saturday || wd == time.Sunday {
		return ExchangeOutcome{}, domain.Rejectf(domain.ReasonInvalidIntent, "주말로는 수업을 이동할 수 없습니다.")
	}

	sourceBlock, ok := p.resolveSourceBlock(room, requesterID, sourceDate, intent.SourceTime)
	if !ok {
		return ExchangeOutcome{}, domain.Rejectf(domain.ReasonSourceSlotNotFound,
			"%s에 이동할 수업이 없습니다.", koreanDate(sourceDate))
	}

	newStart := sourceBlock.Start()
	if t := targetTimeOf(intent); t != nil {
		newStart = *t
	}
	newEnd := newStart + sourceBlock.Duration()
	newRange := domain.TimeRange{Start: newStart, End: newEnd}

	// Already at the requested position: succeed without touching anything.
	if domain.DateKey(sourceBlock.Date) == domain.DateKey(targetDate) &&
		sourceBlock.Start() == newStart && sourceBlock.End() == newEnd {
		return ExchangeOutcome{
			Message:       "이미 해당 시간에 배정되어 있습니다.",
			ImmediateSwap: true,
			TargetDate:    targetDate,
			TargetStart:   newStart,
			TargetEnd:     newEnd,
		}, nil
	}

	owner, ok := profiles[room.OwnerID()]
	if !ok {
		return ExchangeOutcome{}, domain.ErrProfileNotFound
	}
	requester, ok := profiles[requesterID]
	if !ok {
		return ExchangeOutcome{}, domain.ErrProfileNotFound
	}

	ownerWins := owner.PreferredWindows(targetDate)
	if len(ownerWins) == 0 {
		return ExchangeOutcome{}, domain.Rejectf(domain.ReasonOwnerPreferenceConflict,
			"방장은 %s에 가능한 시간이 없습니다.", koreanDate(targetDate))
	}
	if targetTimeOf(intent) != nil && !domain.RangesContain(ownerWins, newRange) {
		return ExchangeOutcome{}, domain.Rejectf(domain.ReasonOwnerPreferenceConflict,
			"방장의 선호 시간(%s)을 벗어납니다.", formatWindows(ownerWins))
	}

	// A target in another week is judged by the requester's standing weekly
	// schedule; that week's exceptions and one-off personal times are ignored.
	reqWins := requester.PreferredWindows(targetDate)
	if !StartOfWeek(targetDate).Equal(StartOfWeek(today)) {
		reqWins = requester.RecurringWindows(targetDate)
	}
	if len(reqWins) == 0 {
		return ExchangeOutcome{}, domain.Rejectf(domain.ReasonOutsidePreference,
			"%s은(는) 회원님의 선호 시간이 아닙니다.", koreanDate(targetDate))
	}

	common := domain.IntersectRanges(ownerWins, reqWins)
	if !domain.RangesContain(common, newRange) {
		return ExchangeOutcome{}, domain.Rejectf(domain.ReasonOutsidePreference,
			"%s은(는) 공통 선호 시간(%s)을 벗어납니다.", newRange.String(), formatWindows(common))
	}

	if check := room.Settings().IsBlocked(targetDate, newStart, newEnd); check.Blocked {
		if check.Label == "absolute" {
			return ExchangeOutcome{}, domain.Rejectf(domain.ReasonTargetBlocked,
				"17:00~24:00 시간대에는 수업을 배정할 수 없습니다.")
		}
		return ExchangeOutcome{}, domain.Rejectf(domain.ReasonTargetBlocked,
			"해당 시간은 차단된 시간(%s)과 겹칩니다.", check.Reason.String())
	}

	sourceIDs := blockSlotIDs(sourceBlock)

	if room.EffectiveTravelMode() != domain.TravelNone {
		if err := p.travelPreflight(ctx, room, profiles, requesterID, targetDate, newRange, ownerWins, common, sourceIDs); err != nil {
			return ExchangeOutcome{}, err
		}
	}

	conflicts := overlappingClassSlots(room, targetDate, newRange, sourceIDs)

	if len(conflicts) == 0 {
		return p.applyMove(ctx, room, profiles, sourceBlock, targetDate, newStart,
			"수업을 %s %s(으)로 이동했습니다.")
	}

	if targetTimeOf(intent) == nil {
		if outcome, found, err := p.autoPlace(ctx, room, profiles, requesterID, sourceBlock, targetDate, newStart, common, sourceIDs); err != nil {
			return ExchangeOutcome{}, err
		} else if found {
			return outcome, nil
		}
	}

	targetUser := firstOtherUser(conflicts, requesterID)
	if targetUser == uuid.Nil {
		return ExchangeOutcome{}, domain.Rejectf(domain.ReasonNoPlacement,
			"해당 시간에 이미 회원님의 다른 수업이 있습니다.")
	}

	return p.createYieldRequest(room, profiles, requesterID, targetUser, sourceBlock, targetDate, newRange, intent.Message)
}

// resolveDates turns the intent's relative references into concrete dates.
func (p *ExchangePlanner) resolveDates(intent domain.ParsedIntent, today time.Time) (source, target time.Time, err error) {
	switch intent.Type {
	case domain.IntentTimeChange:
		source = today
		if intent.SourceDay != nil {
			offset := 0
			if intent.SourceWeekOffset != nil {
				offset = *intent.SourceWeekOffset
			}
			source = dateOfWeekday(today, *intent.SourceDay, offset)
		}

		if intent.TargetDay == nil {
			return source, target, domain.Rejectf(domain.ReasonInvalidIntent, "이동할 요일을 알 수 없습니다.")
		}
		if intent.WeekNumber != nil && intent.Month != nil {
			first := time.Date(today.Year(), time.Month(*intent.Month), 1, 0, 0, 0, 0, today.Location())
			if first.Month() < today.Month() {
				first = first.AddDate(1, 0, 0)
			}
			monday := StartOfWeek(first).AddDate(0, 0, 7*(*intent.WeekNumber-1))
			target = monday.AddDate(0, 0, weekdayIndex(*intent.TargetDay))
			return source, target, nil
		}
		offset := 0
		if intent.WeekOffset != nil {
			offset = *intent.WeekOffset
		}
		target = dateOfWeekday(today, *intent.TargetDay, offset)
		return source, target, nil

	case domain.IntentDateChange:
		source = today
		if intent.SourceMonth != nil && intent.SourceDayOfMonth != nil {
			source = resolveCalendarDate(today, *intent.SourceMonth, *intent.SourceDayOfMonth)
		}
		if intent.TargetMonth == nil || intent.TargetDayOfMonth == nil {
			return source, target, domain.Rejectf(domain.ReasonInvalidIntent, "이동할 날짜를 알 수 없습니다.")
		}
		target = resolveCalendarDate(today, *intent.TargetMonth, *intent.TargetDayOfMonth)
		return source, target, nil
	}
	return source, target, domain.Rejectf(domain.ReasonInvalidIntent, "요청을 이해하지 못했습니다.")
}

func (p *ExchangePlanner) resolveSourceBlock(room *domain.Room, requesterID uuid.UUID, sourceDate time.Time, sourceTime *int) (domain.ContinuousBlock, bool) {
	if sourceTime != nil {
		return room.BlockContaining(requesterID, sourceDate, *sourceTime)
	}
	blocks := room.ContinuousBlocks(requesterID, sourceDate)
	if len(blocks) == 0 {
		return domain.ContinuousBlock{}, false
	}
	return blocks[0], true
}

// travelPreflight simulates the proposed placement with travel recomputation
// on a scratch copy and rejects when the shifted slot or its travel window
// cannot satisfy preferences and blocked intervals. The rejection names the
// earliest feasible start when one exists.
func (p *ExchangePlanner) travelPreflight(
	ctx context.Context,
	room *domain.Room,
	profiles map[uuid.UUID]*domain.UserProfile,
	requesterID uuid.UUID,
	targetDate time.Time,
	newRange domain.TimeRange,
	ownerWins, common []domain.TimeRange,
	excludeIDs map[uuid.UUID]struct{},
) error {
	final, err := p.simulatePlacement(ctx, room, profiles, requesterID, targetDate, newRange, excludeIDs)
	if err != nil {
		return err
	}

	if domain.RangesContain(common, final) {
		return nil
	}

	reason := domain.ReasonTravelPreferenceConflict
	if !domain.RangesContain(ownerWins, final) {
		reason = domain.ReasonTravelOwnerPrefConflict
	}

	if earliest, found := p.earliestFeasibleStart(ctx, room, profiles, requesterID, targetDate, newRange.Duration(), common, excludeIDs); found {
		return domain.Rejectf(reason,
			"이동시간을 고려하면 해당 시간에는 배정할 수 없습니다. %s 이후에 가능합니다.", domain.FormatClock(earliest))
	}
	return domain.Rejectf(reason, "이동시간을 고려하면 해당 시간에는 배정할 수 없습니다.")
}

// simulatePlacement returns the final range the proposed slot would occupy
// after travel recomputation on the target date.
func (p *ExchangePlanner) simulatePlacement(
	ctx context.Context,
	room *domain.Room,
	profiles map[uuid.UUID]*domain.UserProfile,
	requesterID uuid.UUID,
	targetDate time.Time,
	newRange domain.TimeRange,
	excludeIDs map[uuid.UUID]struct{},
) (domain.TimeRange, error) {
	proposedID := uuid.New()
	sims := []SimSlot{{ID: proposedID, UserID: requesterID, Start: newRange.Start, End: newRange.End}}
	for _, s := range room.SlotsOn(targetDate) {
		if _, skip := excludeIDs[s.ID()]; skip {
			continue
		}
		sims = append(sims, SimSlot{ID: s.ID(), UserID: s.UserID(), Start: s.Start(), End: s.End()})
	}

	sim, err := p.recomputer.SimulateDate(ctx, room.Settings(), profiles, room.OwnerID(),
		room.EffectiveTravelMode(), targetDate, sims)
	if err != nil {
		return domain.TimeRange{}, err
	}

	for _, s := range sim.Slots {
		if s.ID == proposedID {
			return domain.TimeRange{Start: s.Start, End: s.End}, nil
		}
	}
	return newRange, nil
}

func (p *ExchangePlanner) earliestFeasibleStart(
	ctx context.Context,
	room *domain.Room,
	profiles map[uuid.UUID]*domain.UserProfile,
	requesterID uuid.UUID,
	targetDate time.Time,
	duration int,
	common []domain.TimeRange,
	excludeIDs map[uuid.UUID]struct{},
) (int, bool) {
	for _, w := range common {
		for start := domain.RoundUpToGranularity(w.Start); start+duration <= w.End; start += domain.SlotGranularity {
			candidate := domain.TimeRange{Start: start, End: start + duration}
			final, err := p.simulatePlacement(ctx, room, profiles, requesterID, targetDate, candidate, excludeIDs)
			if err != nil {
				continue
			}
			if final == candidate && domain.RangesContain(common, final) {
				return start, true
			}
		}
	}
	return 0, false
}

// autoPlace searches the target date for the earliest free gap at or after
// the requested start that fits the block, stepping by 30-minute increments
// inside the common windows.
func (p *ExchangePlanner) autoPlace(
	ctx context.Context,
	room *domain.Room,
	profiles map[uuid.UUID]*domain.UserProfile,
	requesterID uuid.UUID,
	sourceBlock domain.ContinuousBlock,
	targetDate time.Time,
	fromStart int,
	common []domain.TimeRange,
	sourceIDs map[uuid.UUID]struct{},
) (ExchangeOutcome, bool, error) {
	duration := sourceBlock.Duration()

	for _, w := range common {
		first := domain.RoundUpToGranularity(w.Start)
		if first < fromStart {
			first = domain.RoundUpToGranularity(fromStart)
		}
		for start := first; start+duration <= w.End; start += autoPlacementStep {
			candidate := domain.TimeRange{Start: start, End: start + duration}
			if room.Settings().IsBlocked(targetDate, candidate.Start, candidate.End).Blocked {
				continue
			}
			if len(overlappingClassSlots(room, targetDate, candidate, sourceIDs)) > 0 {
				continue
			}
			if room.EffectiveTravelMode() != domain.TravelNone {
				final, err := p.simulatePlacement(ctx, room, profiles, requesterID, targetDate, candidate, sourceIDs)
				if err != nil || !domain.RangesContain(common, final) {
					continue
				}
			}

			outcome, err := p.applyMove(ctx, room, profiles, sourceBlock, targetDate, start,
				"해당 시간이 차 있어 수업을 %s %s(으)로 배정했습니다.")
			if err != nil {
				return ExchangeOutcome{}, false, err
			}
			return outcome, true, nil
		}
	}
	return ExchangeOutcome{}, false, nil
}

// applyMove executes Case A: delete the source block, insert one class slot
// at the target window, recompute travel on both affected dates.
func (p *ExchangePlanner) applyMove(
	ctx context.Context,
	room *domain.Room,
	profiles map[uuid.UUID]*domain.UserProfile,
	sourceBlock domain.ContinuousBlock,
	targetDate time.Time,
	newStart int,
	messageFormat string,
) (ExchangeOutcome, error) {
	first := sourceBlock.Slots[0]
	subject := first.Subject()
	if subject == "" {
		subject = domain.SubjectAutoAssigned
	}
	newEnd := newStart + sourceBlock.Duration()

	ids := make([]uuid.UUID, 0, len(sourceBlock.Slots))
	for _, s := range sourceBlock.Slots {
		ids = append(ids, s.ID())
	}
	room.RemoveSlots(ids...)

	slot, err := domain.NewClassSlot(first.UserID(), targetDate, newStart, newEnd, subject, first.Color())
	if err != nil {
		return ExchangeOutcome{}, err
	}
	slot.SetPriority(first.Priority())
	if err := room.AddSlot(slot); err != nil {
		return ExchangeOutcome{}, err
	}

	affected := []string{domain.DateKey(sourceBlock.Date)}
	if domain.DateKey(targetDate) != affected[0] {
		affected = append(affected, domain.DateKey(targetDate))
	}
	for _, key := range affected {
		date, _ := time.ParseInLocation("2006-01-02", key, targetDate.Location())
		if _, err := p.recomputer.Recompute(ctx, room, profiles, date, nil); err != nil {
			return ExchangeOutcome{}, err
		}
	}

	window := domain.TimeRange{Start: slot.Start(), End: slot.End()}
	return ExchangeOutcome{
		Message:       fmt.Sprintf(messageFormat, koreanDate(targetDate), window.String()),
		ImmediateSwap: true,
		Mutated:       true,
		TargetDate:    targetDate,
		TargetStart:   slot.Start(),
		TargetEnd:     slot.End(),
		AffectedDates: affected,
	}, nil
}

// createYieldRequest executes Case C: store a pending request against the
// occupant without mutating any slot.
func (p *ExchangePlanner) createYieldRequest(
	room *domain.Room,
	profiles map[uuid.UUID]*domain.UserProfile,
	requesterID, targetUserID uuid.UUID,
	sourceBlock domain.ContinuousBlock,
	targetDate time.Time,
	newRange domain.TimeRange,
	message string,
) (ExchangeOutcome, error) {
	snapshots := make([]domain.SlotSnapshot, 0, len(sourceBlock.Slots))
	for _, s := range sourceBlock.Slots {
		snapshots = append(snapshots, domain.SnapshotSlot(s))
	}

	req := domain.NewExchangeRequest(room.ID(), requesterID, targetUserID, domain.RequestTimeChange,
		snapshots, domain.TargetSlotRef{
			Date:    domain.DateKey(targetDate),
			Start:   newRange.Start,
			End:     newRange.End,
			Subject: sourceBlock.Slots[0].Subject(),
		}, message)
	room.AddRequest(req)

	return ExchangeOutcome{
		Message: fmt.Sprintf("해당 시간은 %s님의 수업과 겹칩니다. %s님에게 양보 요청을 보냈습니다.",
			profileName(profiles, targetUserID), profileName(profiles, targetUserID)),
		NeedsApproval: true,
		Mutated:       true,
		TargetDate:    targetDate,
		TargetStart:   newRange.Start,
		TargetEnd:     newRange.End,
		Request:       req,
	}, nil
}

// ApplyApproval executes an approved yield request: the occupant's
// conflicting slots move to the requester's old window and the requester's
// slots move to the requested window. Fails with a stale_request rejection
// when either side's slots changed since the request was created.
func (p *ExchangePlanner) ApplyApproval(
	ctx context.Context,
	room *domain.Room,
	profiles map[uuid.UUID]*domain.UserProfile,
	req *domain.ExchangeRequest,
) (ExchangeOutcome, error) {
	snapshots := req.RequesterSlots()
	if len(snapshots) == 0 {
		return ExchangeOutcome{}, domain.Rejectf(domain.ReasonStaleRequest,
			"요청 이후 일정이 변경되어 승인할 수 없습니다.")
	}

	sourceDate, err := time.ParseInLocation("2006-01-02", snapshots[0].Date, time.Local)
	if err != nil {
		return ExchangeOutcome{}, fmt.Errorf("parsing request source date: %w", err)
	}
	targetDate, err := time.ParseInLocation("2006-01-02", req.Target().Date, time.Local)
	if err != nil {
		return ExchangeOutcome{}, fmt.Errorf("parsing request target date: %w", err)
	}
	targetRange := domain.TimeRange{Start: req.Target().Start, End: req.Target().End}

	// Stale checks: every snapshot slot must still exist unchanged, and the
	// occupant must still hold a slot overlapping the requested window.
	requesterSlots := make([]*domain.Slot, 0, len(snapshots))
	for _, snap := range snapshots {
		slot, ok := findSlotAt(room, req.RequesterID(), snap.Date, snap.Start, snap.End)
		if !ok {
			return ExchangeOutcome{}, domain.Rejectf(domain.ReasonStaleRequest,
				"요청 이후 일정이 변경되어 승인할 수 없습니다.")
		}
		requesterSlots = append(requesterSlots, slot)
	}

	var occupantSlots []*domain.Slot
	for _, s := range room.UserSlotsOn(req.TargetUserID(), targetDate) {
		if s.Range().Overlaps(targetRange) {
			occupantSlots = append(occupantSlots, s)
		}
	}
	if len(occupantSlots) == 0 {
		return ExchangeOutcome{}, domain.Rejectf(domain.ReasonStaleRequest,
			"요청 이후 일정이 변경되어 승인할 수 없습니다.")
	}

	sourceStart := snapshots[0].Start
	sourceEnd := snapshots[len(snapshots)-1].End

	ids := make([]uuid.UUID, 0, len(requesterSlots)+len(occupantSlots))
	for _, s := range requesterSlots {
		ids = append(ids, s.ID())
	}
	for _, s := range occupantSlots {
		ids = append(ids, s.ID())
	}
	room.RemoveSlots(ids...)

	occupantSlot, err := domain.NewClassSlot(req.TargetUserID(), sourceDate, sourceStart, sourceEnd,
		domain.SubjectExchange, memberColor(room, req.TargetUserID()))
	if err != nil {
		return ExchangeOutcome{}, err
	}
	requesterSlot, err := domain.NewClassSlot(req.RequesterID(), targetDate, targetRange.Start, targetRange.End,
		domain.SubjectExchange, memberColor(room, req.RequesterID()))
	if err != nil {
		return ExchangeOutcome{}, err
	}
	if err := room.AddSlot(occupantSlot); err != nil {
		return ExchangeOutcome{}, err
	}
	if err := room.AddSlot(requesterSlot); err != nil {
		return ExchangeOutcome{}, err
	}

	affected := []string{domain.DateKey(sourceDate)}
	if domain.DateKey(targetDate) != affected[0] {
		affected = append(affected, domain.DateKey(targetDate))
	}
	for _, key := range affected {
		date, _ := time.ParseInLocation("2006-01-02", key, targetDate.Location())
		if _, err := p.recomputer.Recompute(ctx, room, profiles, date, nil); err != nil {
			return ExchangeOutcome{}, err
		}
	}

	return ExchangeOutcome{
		Message: fmt.Sprintf("양보 요청을 승인했습니다. 수업이 %s %s(으)로 이동했습니다.",
			koreanDate(targetDate), targetRange.String()),
		ImmediateSwap: true,
		Mutated:       true,
		TargetDate:    targetDate,
		TargetStart:   targetRange.Start,
		TargetEnd:     targetRange.End,
		AffectedDates: affected,
	}, nil
}

func targetTimeOf(intent domain.ParsedIntent) *int {
	return intent.TargetTime
}

func blockSlotIDs(block domain.ContinuousBlock) map[uuid.UUID]struct{} {
	ids := make(map[uuid.UUID]struct{}, len(block.Slots))
	for _, s := range block.Slots {
		ids[s.ID()] = struct{}{}
	}
	return ids
}

func overlappingClassSlots(room *domain.Room, date time.Time, rng domain.TimeRange, exclude map[uuid.UUID]struct{}) []*domain.Slot {
	var out []*domain.Slot
	for _, s := range room.SlotsOn(date) {
		if _, skip := exclude[s.ID()]; skip {
			continue
		}
		if s.Range().Overlaps(rng) {
			out = append(out, s)
		}
	}
	return out
}

func firstOtherUser(slots []*domain.Slot, requesterID uuid.UUID) uuid.UUID {
	for _, s := range slots {
		if s.UserID() != requesterID {
			return s.UserID()
		}
	}
	return uuid.Nil
}

func findSlotAt(room *domain.Room, userID uuid.UUID, dateKey string, start, end int) (*domain.Slot, bool) {
	for _, s := range room.Slots() {
		if !s.IsTravel() && s.UserID() == userID && s.DateKey() == dateKey &&
			s.Start() == start && s.End() == end {
			return s, true
		}
	}
	return nil, false
}

func memberColor(room *domain.Room, userID uuid.UUID) string {
	if m, ok := room.MemberOf(userID); ok {
		return m.Color()
	}
	return ""
}

// dateOfWeekday resolves a weekday within the week of base, offset by whole
// weeks.
func dateOfWeekday(base time.Time, weekday time.Weekday, weekOffset int) time.Time {
	return StartOfWeek(base).AddDate(0, 0, 7*weekOffset+weekdayIndex(weekday))
}

// weekdayIndex maps Monday to 0 through Sunday to 6.
func weekdayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// resolveCalendarDate builds a date from month/day in the current year,
// rolling into the next year when the result is far in the past.
func resolveCalendarDate(today time.Time, month, day int) time.Time {
	date := time.Date(today.Year(), time.Month(month), day, 0, 0, 0, 0, today.Location())
	if date.Before(today) && today.Sub(date) > 180*24*time.Hour {
		date = date.AddDate(1, 0, 0)
	}
	return date
}

var weekdayKorean = [...]string{"일", "월", "화", "수", "목", "금", "토"}

// koreanDate renders a date as "M월 D일(요일)".
func koreanDate(t time.Time) string {
	return fmt.Sprintf("%d월 %d일(%s)", int(t.Month()), t.Day(), weekdayKorean[int(t.Weekday())])
}

func formatWindows(windows []domain.TimeRange) string {
	parts := make([]string, 0, len(windows))
	for _, w := range windows {
		parts = append(parts, w.String())
	}
	return strings.Join(parts, ", ")
}
