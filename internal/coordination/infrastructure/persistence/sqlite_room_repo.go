package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/moyeolab/moyeo/internal/coordination/domain"
	sharedPersistence "github.com/moyeolab/moyeo/internal/shared/infrastructure/persistence"
)

// SQLiteRoomRepository is the local-mode room store. Layout mirrors the
// postgres repository with TEXT ids, JSON columns and RFC3339 timestamps.
type SQLiteRoomRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteRoomRepository creates a new SQLiteRoomRepository.
func NewSQLiteRoomRepository(db *sql.DB, logger *slog.Logger) *SQLiteRoomRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteRoomRepository{db: db, logger: logger}
}

// Save upserts the room row and rewrites its slots and requests.
func (r *SQLiteRoomRepository) Save(ctx context.Context, room *domain.Room) error {
	q := sharedPersistence.SQLiteQuerier(ctx, r.db)

	members, err := json.Marshal(membersToDocs(room.Members()))
	if err != nil {
		return fmt.Errorf("marshaling members: %w", err)
	}
	settings, err := json.Marshal(room.Settings())
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}

	var confirmedAt *string
	if t := room.ConfirmedAt(); t != nil {
		s := t.UTC().Format(time.RFC3339)
		confirmedAt = &s
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO coordination_rooms (
			id, name, owner_id, invite_code, members, settings,
			travel_mode, confirmed_travel_mode, state, confirmed_at,
			version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			members = excluded.members,
			settings = excluded.settings,
			travel_mode = excluded.travel_mode,
			confirmed_travel_mode = excluded.confirmed_travel_mode,
			state = excluded.state,
			confirmed_at = excluded.confirmed_at,
			version = coordination_rooms.version + 1,
			updated_at = excluded.updated_at`,
		room.ID().String(), room.Name(), room.OwnerID().String(), room.InviteCode(),
		string(members), string(settings),
		string(room.TravelMode()), string(room.ConfirmedTravelMode()), string(room.State()),
		confirmedAt, room.Version(),
		room.CreatedAt().UTC().Format(time.RFC3339), room.UpdatedAt().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving room: %w", err)
	}

	if err := r.saveSlots(ctx, q, room); err != nil {
		return err
	}
	return r.saveRequests(ctx, q, room)
}

func (r *SQLiteRoomRepository) saveSlots(ctx context.Context, q sharedPersistence.SQLQuerier, room *domain.Room) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM coordination_slots WHERE room_id = ?`, room.ID().String()); err != nil {
		return fmt.Errorf("clearing slots: %w", err)
	}
	for _, s := range room.Slots() {
		var travelInfo *string
		if s.TravelInfo() != nil {
			raw, err := json.Marshal(s.TravelInfo())
			if err != nil {
				return fmt.Errorf("marshaling travel info: %w", err)
			}
			v := string(raw)
			travelInfo = &v
		}
		_, err := q.ExecContext(ctx, `
			INSERT INTO coordination_slots (
				id, room_id, user_id, date, start_min, end_min, is_travel,
				subject, status, travel_info, priority, color, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID().String(), room.ID().String(), s.UserID().String(), s.DateKey(),
			s.Start(), s.End(), s.IsTravel(), s.Subject(), string(s.Status()),
			travelInfo, s.Priority(), s.Color(),
			s.CreatedAt().UTC().Format(time.RFC3339), s.UpdatedAt().UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("saving slot: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRoomRepository) saveRequests(ctx context.Context, q sharedPersistence.SQLQuerier, room *domain.Room) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM coordination_requests WHERE room_id = ?`, room.ID().String()); err != nil {
		return fmt.Errorf("clearing requests: %w", err)
	}
	for _, req := range room.Requests() {
		slots, err := json.Marshal(req.RequesterSlots())
		if err != nil {
			return fmt.Errorf("marshaling requester slots: %w", err)
		}
		target, err := json.Marshal(req.Target())
		if err != nil {
			return fmt.Errorf("marshaling request target: %w", err)
		}
		var targetUser *string
		if req.TargetUserID() != uuid.Nil {
			v := req.TargetUserID().String()
			targetUser = &v
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO coordination_requests (
				id, room_id, requester_id, target_user_id, request_type,
				requester_slots, target_slot, message, status, reject_reason,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			req.ID().String(), room.ID().String(), req.RequesterID().String(), targetUser,
			string(req.RequestType()), string(slots), string(target), req.Message(),
			string(req.Status()), req.RejectReason(),
			req.CreatedAt().UTC().Format(time.RFC3339), req.UpdatedAt().UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("saving request: %w", err)
		}
	}
	return nil
}

// FindByID loads a full room aggregate, nil when absent.
func (r *SQLiteRoomRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	return r.findOne(ctx, `WHERE id = ?`, id.String())
}

// FindByInviteCode loads a room by its invite code, nil when absent.
func (r *SQLiteRoomRepository) FindByInviteCode(ctx context.Context, code string) (*domain.Room, error) {
	return r.findOne(ctx, `WHERE invite_code = ?`, code)
}

// FindByRequestID loads the room owning a request, nil when absent.
func (r *SQLiteRoomRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) (*domain.Room, error) {
	q := sharedPersistence.SQLiteQuerier(ctx, r.db)
	var roomID string
	err := q.QueryRowContext(ctx, `SELECT room_id FROM coordination_requests WHERE id = ?`, requestID.String()).Scan(&roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding room by request: %w", err)
	}
	parsed, err := uuid.Parse(roomID)
	if err != nil {
		return nil, fmt.Errorf("parsing room id: %w", err)
	}
	return r.FindByID(ctx, parsed)
}

// FindByMember lists the rooms a user participates in.
func (r *SQLiteRoomRepository) FindByMember(ctx context.Context, userID uuid.UUID) ([]*domain.Room, error) {
	q := sharedPersistence.SQLiteQuerier(ctx, r.db)
	rows, err := q.QueryContext(ctx,
		`SELECT id FROM coordination_rooms WHERE members LIKE ? ORDER BY created_at`,
		"%"+userID.String()+"%")
	if err != nil {
		return nil, fmt.Errorf("listing rooms by member: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rooms := make([]*domain.Room, 0, len(ids))
	for _, id := range ids {
		room, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if room != nil {
			rooms = append(rooms, room)
		}
	}
	return rooms, nil
}

// Delete removes a room and its child rows.
func (r *SQLiteRoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	q := sharedPersistence.SQLiteQuerier(ctx, r.db)
	for _, stmt := range []string{
		`DELETE FROM coordination_slots WHERE room_id = ?`,
		`DELETE FROM coordination_requests WHERE room_id = ?`,
		`DELETE FROM coordination_rooms WHERE id = ?`,
	} {
		if _, err := q.ExecContext(ctx, stmt, id.String()); err != nil {
			return fmt.Errorf("deleting room: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRoomRepository) findOne(ctx context.Context, where string, arg any) (*domain.Room, error) {
	q := sharedPersistence.SQLiteQuerier(ctx, r.db)

	var (
		idRaw, ownerRaw                  string
		name, inviteCode                 string
		membersRaw, settingsRaw          string
		travelMode, confirmedMode, state string
		confirmedAtRaw                   sql.NullString
		version                          int
		createdAtRaw, updatedAtRaw       string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, name, owner_id, invite_code, members, settings,
		       travel_mode, confirmed_travel_mode, state, confirmed_at,
		       version, created_at, updated_at
		FROM coordination_rooms `+where, arg).Scan(
		&idRaw, &name, &ownerRaw, &inviteCode, &membersRaw, &settingsRaw,
		&travelMode, &confirmedMode, &state, &confirmedAtRaw,
		&version, &createdAtRaw, &updatedAtRaw,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading room: %w", err)
	}

	id, err := uuid.Parse(idRaw)
	if err != nil {
		return nil, fmt.Errorf("parsing room id: %w", err)
	}
	ownerID, err := uuid.Parse(ownerRaw)
	if err != nil {
		return nil, fmt.Errorf("parsing owner id: %w", err)
	}

	var memberDocs []memberDoc
	if err := json.Unmarshal([]byte(membersRaw), &memberDocs); err != nil {
		return nil, fmt.Errorf("unmarshaling members: %w", err)
	}
	var settings domain.RoomSettings
	if err := json.Unmarshal([]byte(settingsRaw), &settings); err != nil {
		return nil, fmt.Errorf("unmarshaling settings: %w", err)
	}

	confirmedAt, err := parseNullTime(confirmedAtRaw)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339, createdAtRaw)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339, updatedAtRaw)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	slots, err := r.loadSlots(ctx, q, id)
	if err != nil {
		return nil, err
	}
	requests, err := r.loadRequests(ctx, q, id)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateRoom(
		id, name, ownerID, inviteCode, docsToMembers(memberDocs), settings,
		domain.TravelMode(travelMode), domain.TravelMode(confirmedMode),
		domain.RoomState(state), confirmedAt, slots, requests,
		version, createdAt, updatedAt,
	), nil
}

func (r *SQLiteRoomRepository) loadSlots(ctx context.Context, q sharedPersistence.SQLQuerier, roomID uuid.UUID) ([]*domain.Slot, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, date, start_min, end_min, is_travel,
		       subject, status, travel_info, priority, color, created_at, updated_at
		FROM coordination_slots
		WHERE room_id = ?
		ORDER BY date, start_min`, roomID.String())
	if err != nil {
		return nil, fmt.Errorf("loading slots: %w", err)
	}
	defer rows.Close()

	var slots []*domain.Slot
	for rows.Next() {
		var (
			idRaw, userRaw             string
			dateKey                    string
			startMin, endMin           int
			isTravel                   bool
			subject, status            string
			travelInfoRaw              sql.NullString
			priority                   int
			color                      string
			createdAtRaw, updatedAtRaw string
		)
		if err := rows.Scan(&idRaw, &userRaw, &dateKey, &startMin, &endMin, &isTravel,
			&subject, &status, &travelInfoRaw, &priority, &color, &createdAtRaw, &updatedAtRaw); err != nil {
			return nil, err
		}

		id, err := uuid.Parse(idRaw)
		if err != nil {
			return nil, err
		}
		userID, err := uuid.Parse(userRaw)
		if err != nil {
			return nil, err
		}
		date, err := time.ParseInLocation("2006-01-02", dateKey, time.Local)
		if err != nil {
			return nil, fmt.Errorf("parsing slot date: %w", err)
		}
		var travelInfo *domain.TravelInfo
		if travelInfoRaw.Valid && travelInfoRaw.String != "" {
			travelInfo = &domain.TravelInfo{}
			if err := json.Unmarshal([]byte(travelInfoRaw.String), travelInfo); err != nil {
				return nil, fmt.Errorf("unmarshaling travel info: %w", err)
			}
		}
		createdAt, err := time.Parse(time.RFC3339, createdAtRaw)
		if err != nil {
			return nil, err
		}
		updatedAt, err := time.Parse(time.RFC3339, updatedAtRaw)
		if err != nil {
			return nil, err
		}

		slots = append(slots, domain.RehydrateSlot(
			id, userID, date, startMin, endMin, isTravel,
			subject, domain.SlotStatus(status), travelInfo, priority, color,
			createdAt, updatedAt,
		))
	}
	return slots, rows.Err()
}

func (r *SQLiteRoomRepository) loadRequests(ctx context.Context, q sharedPersistence.SQLQuerier, roomID uuid.UUID) ([]*domain.ExchangeRequest, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, requester_id, target_user_id, request_type,
		       requester_slots, target_slot, message, status, reject_reason,
		       created_at, updated_at
		FROM coordination_requests
		WHERE room_id = ?
		ORDER BY created_at`, roomID.String())
	if err != nil {
		return nil, fmt.Errorf("loading requests: %w", err)
	}
	defer rows.Close()

	var requests []*domain.ExchangeRequest
	for rows.Next() {
		var (
			idRaw, requesterRaw        string
			targetRawUser              sql.NullString
			requestType                string
			slotsRaw, targetRaw        string
			message, status            string
			rejectReason               string
			createdAtRaw, updatedAtRaw string
		)
		if err := rows.Scan(&idRaw, &requesterRaw, &targetRawUser, &requestType,
			&slotsRaw, &targetRaw, &message, &status, &rejectReason,
			&createdAtRaw, &updatedAtRaw); err != nil {
			return nil, err
		}

		id, err := uuid.Parse(idRaw)
		if err != nil {
			return nil, err
		}
		requesterID, err := uuid.Parse(requesterRaw)
		if err != nil {
			return nil, err
		}
		targetUser := uuid.Nil
		if targetRawUser.Valid && targetRawUser.String != "" {
			targetUser, err = uuid.Parse(targetRawUser.String)
			if err != nil {
				return nil, err
			}
		}
		var snapshots []domain.SlotSnapshot
		if err := json.Unmarshal([]byte(slotsRaw), &snapshots); err != nil {
			return nil, fmt.Errorf("unmarshaling requester slots: %w", err)
		}
		var target domain.TargetSlotRef
		if err := json.Unmarshal([]byte(targetRaw), &target); err != nil {
			return nil, fmt.Errorf("unmarshaling request target: %w", err)
		}
		createdAt, err := time.Parse(time.RFC3339, createdAtRaw)
		if err != nil {
			return nil, err
		}
		updatedAt, err := time.Parse(time.RFC3339, updatedAtRaw)
		if err != nil {
			return nil, err
		}

		requests = append(requests, domain.RehydrateExchangeRequest(
			id, roomID, requesterID, targetUser, domain.RequestType(requestType),
			snapshots, target, message, domain.RequestStatus(status), rejectReason,
			createdAt, updatedAt,
		))
	}
	return requests, rows.Err()
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp: %w", err)
	}
	return &t, nil
}
