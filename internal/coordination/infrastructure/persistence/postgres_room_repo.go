package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moyeolab/moyeo/internal/coordination/domain"
	sharedPersistence "github.com/moyeolab/moyeo/internal/shared/infrastructure/persistence"
)

// PostgresRoomRepository persists room aggregates in PostgreSQL: one row per
// room with JSONB members and settings, child tables for slots and requests.
type PostgresRoomRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresRoomRepository creates a new PostgresRoomRepository.
func NewPostgresRoomRepository(pool *pgxpool.Pool, logger *slog.Logger) *PostgresRoomRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRoomRepository{pool: pool, logger: logger}
}

// Save upserts the room row and rewrites its slots and requests.
func (r *PostgresRoomRepository) Save(ctx context.Context, room *domain.Room) error {
	exec := sharedPersistence.Executor(ctx, r.pool)

	members, err := json.Marshal(membersToDocs(room.Members()))
	if err != nil {
		return fmt.Errorf("marshaling members: %w", err)
	}
	settings, err := json.Marshal(room.Settings())
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}

	_, err = exec.Exec(ctx, `
		INSERT INTO coordination_rooms (
			id, name, owner_id, invite_code, members, settings,
			travel_mode, confirmed_travel_mode, state, confirmed_at,
			version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			members = EXCLUDED.members,
			settings = EXCLUDED.settings,
			travel_mode = EXCLUDED.travel_mode,
			confirmed_travel_mode = EXCLUDED.confirmed_travel_mode,
			state = EXCLUDED.state,
			confirmed_at = EXCLUDED.confirmed_at,
			version = coordination_rooms.version + 1,
			updated_at = EXCLUDED.updated_at`,
		room.ID(), room.Name(), room.OwnerID(), room.InviteCode(), members, settings,
		string(room.TravelMode()), string(room.ConfirmedTravelMode()), string(room.State()),
		room.ConfirmedAt(), room.Version(), room.CreatedAt(), room.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("saving room: %w", err)
	}

	if err := r.saveSlots(ctx, exec, room); err != nil {
		return err
	}
	return r.saveRequests(ctx, exec, room)
}

func (r *PostgresRoomRepository) saveSlots(ctx context.Context, exec sharedPersistence.DBExecutor, room *domain.Room) error {
	if _, err := exec.Exec(ctx, `DELETE FROM coordination_slots WHERE room_id = $1`, room.ID()); err != nil {
		return fmt.Errorf("clearing slots: %w", err)
	}
	for _, s := range room.Slots() {
		var travelInfo []byte
		if s.TravelInfo() != nil {
			var err error
			travelInfo, err = json.Marshal(s.TravelInfo())
			if err != nil {
				return fmt.Errorf("marshaling travel info: %w", err)
			}
		}
		_, err := exec.Exec(ctx, `
			INSERT INTO coordination_slots (
				id, room_id, user_id, date, start_min, end_min, is_travel,
				subject, status, travel_info, priority, color, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			s.ID(), room.ID(), s.UserID(), s.DateKey(), s.Start(), s.End(), s.IsTravel(),
			s.Subject(), string(s.Status()), travelInfo, s.Priority(), s.Color(),
			s.CreatedAt(), s.UpdatedAt(),
		)
		if err != nil {
			return fmt.Errorf("saving slot: %w", err)
		}
	}
	return nil
}

func (r *PostgresRoomRepository) saveRequests(ctx context.Context, exec sharedPersistence.DBExecutor, room *domain.Room) error {
	if _, err := exec.Exec(ctx, `DELETE FROM coordination_requests WHERE room_id = $1`, room.ID()); err != nil {
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
		_, err = exec.Exec(ctx, `
			INSERT INTO coordination_requests (
				id, room_id, requester_id, target_user_id, request_type,
				requester_slots, target_slot, message, status, reject_reason,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			req.ID(), room.ID(), req.RequesterID(), nullableUUID(req.TargetUserID()),
			string(req.RequestType()), slots, target, req.Message(),
			string(req.Status()), req.RejectReason(), req.CreatedAt(), req.UpdatedAt(),
		)
		if err != nil {
			return fmt.Errorf("saving request: %w", err)
		}
	}
	return nil
}

// FindByID loads a full room aggregate, nil when absent.
func (r *PostgresRoomRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindByInviteCode loads a room by its invite code, nil when absent.
func (r *PostgresRoomRepository) FindByInviteCode(ctx context.Context, code string) (*domain.Room, error) {
	return r.findOne(ctx, `WHERE invite_code = $1`, code)
}

// FindByRequestID loads the room owning a request, nil when absent.
func (r *PostgresRoomRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) (*domain.Room, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)
	var roomID uuid.UUID
	err := exec.QueryRow(ctx, `SELECT room_id FROM coordination_requests WHERE id = $1`, requestID).Scan(&roomID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding room by request: %w", err)
	}
	return r.FindByID(ctx, roomID)
}

// FindByMember lists the rooms a user participates in.
func (r *PostgresRoomRepository) FindByMember(ctx context.Context, userID uuid.UUID) ([]*domain.Room, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)
	membership, err := json.Marshal([]map[string]string{{"user_id": userID.String()}})
	if err != nil {
		return nil, err
	}
	rows, err := exec.Query(ctx, `SELECT id FROM coordination_rooms WHERE members @> $1 ORDER BY created_at`, membership)
	if err != nil {
		return nil, fmt.Errorf("listing rooms by member: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
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
func (r *PostgresRoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exec := sharedPersistence.Executor(ctx, r.pool)
	if _, err := exec.Exec(ctx, `DELETE FROM coordination_rooms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting room: %w", err)
	}
	return nil
}

func (r *PostgresRoomRepository) findOne(ctx context.Context, where string, arg any) (*domain.Room, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)

	var (
		id, ownerID                      uuid.UUID
		name, inviteCode                 string
		membersRaw, settingsRaw          []byte
		travelMode, confirmedMode, state string
		confirmedAt                      *time.Time
		version                          int
		createdAt, updatedAt             time.Time
	)
	err := exec.QueryRow(ctx, `
		SELECT id, name, owner_id, invite_code, members, settings,
		       travel_mode, confirmed_travel_mode, state, confirmed_at,
		       version, created_at, updated_at
		FROM coordination_rooms `+where, arg).Scan(
		&id, &name, &ownerID, &inviteCode, &membersRaw, &settingsRaw,
		&travelMode, &confirmedMode, &state, &confirmedAt,
		&version, &createdAt, &updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading room: %w", err)
	}

	var memberDocs []memberDoc
	if err := json.Unmarshal(membersRaw, &memberDocs); err != nil {
		return nil, fmt.Errorf("unmarshaling members: %w", err)
	}
	var settings domain.RoomSettings
	if err := json.Unmarshal(settingsRaw, &settings); err != nil {
		return nil, fmt.Errorf("unmarshaling settings: %w", err)
	}

	slots, err := r.loadSlots(ctx, exec, id)
	if err != nil {
		return nil, err
	}
	requests, err := r.loadRequests(ctx, exec, id)
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

func (r *PostgresRoomRepository) loadSlots(ctx context.Context, exec sharedPersistence.DBExecutor, roomID uuid.UUID) ([]*domain.Slot, error) {
	rows, err := exec.Query(ctx, `
		SELECT id, user_id, date, start_min, end_min, is_travel,
		       subject, status, travel_info, priority, color, created_at, updated_at
		FROM coordination_slots
		WHERE room_id = $1
		ORDER BY date, start_min`, roomID)
	if err != nil {
		return nil, fmt.Errorf("loading slots: %w", err)
	}
	defer rows.Close()

	var slots []*domain.Slot
	for rows.Next() {
		var (
			id, userID           uuid.UUID
			dateKey              string
			startMin, endMin     int
			isTravel             bool
			subject, status      string
			travelInfoRaw        []byte
			priority             int
			color                string
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&id, &userID, &dateKey, &startMin, &endMin, &isTravel,
			&subject, &status, &travelInfoRaw, &priority, &color, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		date, err := time.ParseInLocation("2006-01-02", dateKey, time.Local)
		if err != nil {
			return nil, fmt.Errorf("parsing slot date: %w", err)
		}
		var travelInfo *domain.TravelInfo
		if len(travelInfoRaw) > 0 {
			travelInfo = &domain.TravelInfo{}
			if err := json.Unmarshal(travelInfoRaw, travelInfo); err != nil {
				return nil, fmt.Errorf("unmarshaling travel info: %w", err)
			}
		}
		slots = append(slots, domain.RehydrateSlot(
			id, userID, date, startMin, endMin, isTravel,
			subject, domain.SlotStatus(status), travelInfo, priority, color,
			createdAt, updatedAt,
		))
	}
	return slots, rows.Err()
}

func (r *PostgresRoomRepository) loadRequests(ctx context.Context, exec sharedPersistence.DBExecutor, roomID uuid.UUID) ([]*domain.ExchangeRequest, error) {
	rows, err := exec.Query(ctx, `
		SELECT id, requester_id, target_user_id, request_type,
		       requester_slots, target_slot, message, status, reject_reason,
		       created_at, updated_at
		FROM coordination_requests
		WHERE room_id = $1
		ORDER BY created_at`, roomID)
	if err != nil {
		return nil, fmt.Errorf("loading requests: %w", err)
	}
	defer rows.Close()

	var requests []*domain.ExchangeRequest
	for rows.Next() {
		var (
			id, requesterID      uuid.UUID
			targetUserID         *uuid.UUID
			requestType          string
			slotsRaw, targetRaw  []byte
			message, status      string
			rejectReason         string
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&id, &requesterID, &targetUserID, &requestType,
			&slotsRaw, &targetRaw, &message, &status, &rejectReason,
			&createdAt, &updatedAt); err != nil {
			return nil, err
		}
		var snapshots []domain.SlotSnapshot
		if err := json.Unmarshal(slotsRaw, &snapshots); err != nil {
			return nil, fmt.Errorf("unmarshaling requester slots: %w", err)
		}
		var target domain.TargetSlotRef
		if err := json.Unmarshal(targetRaw, &target); err != nil {
			return nil, fmt.Errorf("unmarshaling request target: %w", err)
		}
		targetUser := uuid.Nil
		if targetUserID != nil {
			targetUser = *targetUserID
		}
		requests = append(requests, domain.RehydrateExchangeRequest(
			id, roomID, requesterID, targetUser, domain.RequestType(requestType),
			snapshots, target, message, domain.RequestStatus(status), rejectReason,
			createdAt, updatedAt,
		))
	}
	return requests, rows.Err()
}

func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
