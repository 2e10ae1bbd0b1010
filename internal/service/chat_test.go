package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/config"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/model"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/repository"
	memorystorage "github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/storage/memory"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/ws"
)

// --- fakes ---

type fakeRooms struct {
	byID     map[string]*model.ChatRoom
	creates  int
	assigned map[string]string
}

func newFakeRooms() *fakeRooms {
	return &fakeRooms{byID: make(map[string]*model.ChatRoom), assigned: make(map[string]string)}
}

func (f *fakeRooms) addRoom(customerID, name string) *model.ChatRoom {
	r := &model.ChatRoom{
		ID:           uuid.NewString(),
		CustomerID:   customerID,
		CustomerName: name,
		Status:       model.RoomStatusActive,
	}
	f.byID[r.ID] = r
	return r
}

func (f *fakeRooms) GetOrCreate(ctx context.Context, customerID, displayName string) (*model.ChatRoom, bool, error) {
	for _, r := range f.byID {
		if r.CustomerID == customerID {
			return r, false, nil
		}
	}
	f.creates++
	return f.addRoom(customerID, displayName), true, nil
}

func (f *fakeRooms) GetByID(ctx context.Context, id string) (*model.ChatRoom, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r, nil
}

func (f *fakeRooms) List(ctx context.Context, page, pageSize int) ([]model.ChatRoom, int, error) {
	out := make([]model.ChatRoom, 0, len(f.byID))
	for _, r := range f.byID {
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (f *fakeRooms) ListByStatus(ctx context.Context, status model.RoomStatus) ([]model.ChatRoom, error) {
	out := make([]model.ChatRoom, 0)
	for _, r := range f.byID {
		if r.Status == status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRooms) SetStatus(ctx context.Context, roomID string, status model.RoomStatus) error {
	r, ok := f.byID[roomID]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = status
	return nil
}

func (f *fakeRooms) AssignTechnician(ctx context.Context, roomID, technicianID string) error {
	r, ok := f.byID[roomID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.AssignedTechnicianID == nil {
		r.AssignedTechnicianID = &technicianID
		f.assigned[roomID] = technicianID
	}
	return nil
}

type fakeMessages struct {
	rooms *fakeRooms
	msgs  []*model.Message
}

func (f *fakeMessages) Append(ctx context.Context, m *model.Message) error {
	if _, ok := f.rooms.byID[m.ChatRoomID]; !ok {
		return repository.ErrNotFound
	}
	cp := *m
	f.msgs = append(f.msgs, &cp)
	return nil
}

func (f *fakeMessages) GetByID(ctx context.Context, id string) (*model.Message, error) {
	for _, m := range f.msgs {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeMessages) ListByRoom(ctx context.Context, roomID string, limit, offset int) ([]model.Message, error) {
	out := make([]model.Message, 0)
	for _, m := range f.msgs {
		if m.ChatRoomID == roomID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessages) GetLastMessage(ctx context.Context, roomID string) (*model.Message, error) {
	for i := len(f.msgs) - 1; i >= 0; i-- {
		if f.msgs[i].ChatRoomID == roomID {
			cp := *f.msgs[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeMessages) Delete(ctx context.Context, id string) (bool, error) {
	for i, m := range f.msgs {
		if m.ID == id {
			f.msgs = append(f.msgs[:i], f.msgs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMessages) MarkReadByCustomer(ctx context.Context, roomID string) (int, error) {
	n := 0
	for _, m := range f.msgs {
		if m.ChatRoomID == roomID && m.SenderRole == model.RoleTechnician && !m.ReadByCustomer {
			m.ReadByCustomer = true
			n++
		}
	}
	return n, nil
}

func (f *fakeMessages) MarkReadByTechnician(ctx context.Context, roomID, technicianID string) (int, error) {
	n := 0
	for _, m := range f.msgs {
		if m.ChatRoomID == roomID && m.SenderRole == model.RoleCustomer && m.ReadByTechnicianID == nil {
			id := technicianID
			m.ReadByTechnicianID = &id
			n++
		}
	}
	return n, nil
}

func (f *fakeMessages) CountUnreadForRoom(ctx context.Context, roomID string) (int, error) {
	n := 0
	for _, m := range f.msgs {
		if m.ChatRoomID == roomID && m.SenderRole == model.RoleCustomer && m.ReadByTechnicianID == nil {
			n++
		}
	}
	return n, nil
}

type fakeLedger struct {
	counts     map[string]int  // tech|room -> unread
	deliveries map[string]bool // message|tech
	failTech   map[string]int  // remaining failures per technician
	resets     []string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		counts:     make(map[string]int),
		deliveries: make(map[string]bool),
		failTech:   make(map[string]int),
	}
}

func (f *fakeLedger) IncrementForMessage(ctx context.Context, technicianID, roomID, messageID string) (bool, error) {
	if f.failTech[technicianID] > 0 {
		f.failTech[technicianID]--
		return false, errors.New("ledger unavailable")
	}
	key := messageID + "|" + technicianID
	if f.deliveries[key] {
		return false, nil
	}
	f.deliveries[key] = true
	f.counts[technicianID+"|"+roomID]++
	return true, nil
}

func (f *fakeLedger) Reset(ctx context.Context, technicianID, roomID string) error {
	f.counts[technicianID+"|"+roomID] = 0
	f.resets = append(f.resets, technicianID+"|"+roomID)
	return nil
}

func (f *fakeLedger) ListForTechnician(ctx context.Context, technicianID string) ([]model.NotificationEntry, error) {
	out := make([]model.NotificationEntry, 0)
	for key, n := range f.counts {
		if n > 0 && len(key) > len(technicianID) && key[:len(technicianID)+1] == technicianID+"|" {
			out = append(out, model.NotificationEntry{
				TechnicianID: technicianID,
				ChatRoomID:   key[len(technicianID)+1:],
				UnreadCount:  n,
			})
		}
	}
	return out, nil
}

func (f *fakeLedger) TotalUnread(ctx context.Context, technicianID string) (int, error) {
	total := 0
	for key, n := range f.counts {
		if len(key) > len(technicianID) && key[:len(technicianID)+1] == technicianID+"|" {
			total += n
		}
	}
	return total, nil
}

func (f *fakeLedger) ResetAll(ctx context.Context, technicianID string) (int, error) {
	cleared := 0
	for key, n := range f.counts {
		if len(key) > len(technicianID) && key[:len(technicianID)+1] == technicianID+"|" {
			if n > 0 {
				cleared++
			}
			f.counts[key] = 0
		}
	}
	return cleared, nil
}

func (f *fakeLedger) SetCount(ctx context.Context, technicianID, roomID string, count int) error {
	if count < 0 {
		count = 0
	}
	f.counts[technicianID+"|"+roomID] = count
	return nil
}

type fakeTechs struct {
	ids []string
}

func (f *fakeTechs) ActiveIDs(ctx context.Context) ([]string, error) { return f.ids, nil }

type sentEvent struct {
	actor string
	msg   ws.OutgoingMessage
}

type fakeHub struct {
	sent []sentEvent
}

func (f *fakeHub) SendToActor(role model.SenderRole, id string, msg ws.OutgoingMessage) {
	f.sent = append(f.sent, sentEvent{actor: ws.ActorKey(role, id), msg: msg})
}

func (f *fakeHub) BroadcastToTechnicians(ids []string, msg ws.OutgoingMessage) {
	for _, id := range ids {
		f.SendToActor(model.RoleTechnician, id, msg)
	}
}

func (f *fakeHub) eventsOfType(t ws.EventType) []sentEvent {
	out := make([]sentEvent, 0)
	for _, e := range f.sent {
		if e.msg.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type notifyCall struct {
	technicianID string
	title        string
}

type fakeNotifier struct {
	calls []notifyCall
}

func (f *fakeNotifier) Notify(ctx context.Context, technicianID, title, body string, data map[string]string) {
	f.calls = append(f.calls, notifyCall{technicianID: technicianID, title: title})
}

type fixture struct {
	rooms    *fakeRooms
	messages *fakeMessages
	ledger   *fakeLedger
	techs    *fakeTechs
	hub      *fakeHub
	notifier *fakeNotifier
	cache    *memorystorage.Client
	svc      *ChatService
}

func newFixture(policy config.PoolPolicy, techIDs ...string) *fixture {
	rooms := newFakeRooms()
	f := &fixture{
		rooms:    rooms,
		messages: &fakeMessages{rooms: rooms},
		ledger:   newFakeLedger(),
		techs:    &fakeTechs{ids: techIDs},
		hub:      &fakeHub{},
		notifier: &fakeNotifier{},
		cache:    memorystorage.New(),
	}
	f.svc = NewChatService(f.rooms, f.messages, f.ledger, f.techs, f.cache, f.hub, f.notifier, policy)
	return f
}

// --- tests ---

func TestOpenRoom_SingleRoomPerCustomer(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1")
	ctx := context.Background()

	first, err := f.svc.OpenRoom(ctx, "cust-1", "Nimal")
	req.NoError(err)
	second, err := f.svc.OpenRoom(ctx, "cust-1", "Nimal")
	req.NoError(err)

	req.Equal(first.ID, second.ID)
	req.Equal(1, f.rooms.creates)
	// room_opened fires only on actual creation
	req.Len(f.hub.eventsOfType(ws.EventRoomOpened), 1)
}

func TestOpenRoom_EmptyCustomerID(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast)

	_, err := f.svc.OpenRoom(context.Background(), "", "x")
	req.ErrorIs(err, ErrInvalidArgument)
}

func TestSend_CustomerMessageBroadcastsToPool(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1", "t2")
	ctx := context.Background()
	room := f.rooms.addRoom("cust-1", "Nimal")

	msg, err := f.svc.Send(ctx, room.ID, model.RoleCustomer, "cust-1", "hello")
	req.NoError(err)
	req.NotEmpty(msg.ID)

	req.Equal(1, f.ledger.counts["t1|"+room.ID])
	req.Equal(1, f.ledger.counts["t2|"+room.ID])
	req.Len(f.notifier.calls, 2)
	req.Len(f.hub.eventsOfType(ws.EventNewMessage), 2)
	req.Len(f.hub.eventsOfType(ws.EventNotificationUpdate), 2)
}

func TestSend_TechnicianMessageDoesNotTouchLedger(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1")
	ctx := context.Background()
	room := f.rooms.addRoom("cust-1", "Nimal")

	_, err := f.svc.Send(ctx, room.ID, model.RoleTechnician, "t1", "hi, how can I help?")
	req.NoError(err)

	req.Empty(f.ledger.counts)
	req.Empty(f.notifier.calls)
	// customer gets the live event
	events := f.hub.eventsOfType(ws.EventNewMessage)
	req.Len(events, 1)
	req.Equal(ws.ActorKey(model.RoleCustomer, "cust-1"), events[0].actor)
}

func TestSend_ClaimPolicyNotifiesOnlyAssignee(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolClaim, "t1", "t2", "t3")
	ctx := context.Background()
	room := f.rooms.addRoom("cust-1", "Nimal")
	assignee := "t2"
	room.AssignedTechnicianID = &assignee

	_, err := f.svc.Send(ctx, room.ID, model.RoleCustomer, "cust-1", "still broken")
	req.NoError(err)

	req.Equal(1, f.ledger.counts["t2|"+room.ID])
	req.Zero(f.ledger.counts["t1|"+room.ID])
	req.Zero(f.ledger.counts["t3|"+room.ID])
	req.Len(f.notifier.calls, 1)
	req.Equal("t2", f.notifier.calls[0].technicianID)
}

func TestSend_ClaimPolicyUnassignedBroadcasts(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolClaim, "t1", "t2")
	ctx := context.Background()
	room := f.rooms.addRoom("cust-1", "Nimal")

	_, err := f.svc.Send(ctx, room.ID, model.RoleCustomer, "cust-1", "anyone there?")
	req.NoError(err)

	req.Equal(1, f.ledger.counts["t1|"+room.ID])
	req.Equal(1, f.ledger.counts["t2|"+room.ID])
}

func TestSend_LedgerFailureDoesNotFailSend(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1", "t2")
	ctx := context.Background()
	room := f.rooms.addRoom("cust-1", "Nimal")
	// t1's ledger fails the first attempt, succeeds on retry
	f.ledger.failTech["t1"] = 1

	_, err := f.svc.Send(ctx, room.ID, model.RoleCustomer, "cust-1", "hello")
	req.NoError(err)
	req.Equal(1, f.ledger.counts["t1|"+room.ID])
	req.Equal(1, f.ledger.counts["t2|"+room.ID])
}

func TestSend_PersistentLedgerFailureIsMissedNotification(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1", "t2")
	ctx := context.Background()
	room := f.rooms.addRoom("cust-1", "Nimal")
	// both attempts for t1 fail; the message must still be appended
	f.ledger.failTech["t1"] = 2

	msg, err := f.svc.Send(ctx, room.ID, model.RoleCustomer, "cust-1", "hello")
	req.NoError(err)
	req.NotNil(msg)
	req.Len(f.messages.msgs, 1)

	req.Zero(f.ledger.counts["t1|"+room.ID])
	req.Equal(1, f.ledger.counts["t2|"+room.ID])
}

func TestSend_InvalidArguments(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1")
	ctx := context.Background()
	room := f.rooms.addRoom("cust-1", "Nimal")

	_, err := f.svc.Send(ctx, room.ID, "manager", "x", "hello")
	req.ErrorIs(err, ErrInvalidArgument)

	_, err = f.svc.Send(ctx, room.ID, model.RoleCustomer, "", "hello")
	req.ErrorIs(err, ErrInvalidArgument)

	_, err = f.svc.Send(ctx, room.ID, model.RoleCustomer, "cust-1", "   ")
	req.ErrorIs(err, ErrInvalidArgument)

	// a rejected send leaves no trace: no message, no counters
	req.Empty(f.messages.msgs)
	req.Empty(f.ledger.counts)
}

func TestSend_RoomNotFound(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1")

	_, err := f.svc.Send(context.Background(), uuid.NewString(), model.RoleCustomer, "cust-1", "hello")
	req.ErrorIs(err, repository.ErrNotFound)
}

func TestMarkRead_CustomerFlipsTechnicianMessages(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1")
	ctx := context.Background()
	room := f.rooms.addRoom("cust-1", "Nimal")

	_, err := f.svc.Send(ctx, room.ID, model.RoleTechnician, "t1", "first")
	req.NoError(err)
	_, err = f.svc.Send(ctx, room.ID, model.RoleTechnician, "t1", "second")
	req.NoError(err)

	count, err := f.svc.MarkRead(ctx, room.ID, model.RoleCustomer, "cust-1")
	req.NoError(err)
	req.Equal(2, count)

	// already read; idempotent
	count, err = f.svc.MarkRead(ctx, room.ID, model.RoleCustomer, "cust-1")
	req.NoError(err)
	req.Zero(count)
}

func TestMarkRead_TechnicianResetsLedger(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1", "t2")
	ctx := context.Background()
	room := f.rooms.addRoom("cust-1", "Nimal")

	_, err := f.svc.Send(ctx, room.ID, model.RoleCustomer, "cust-1", "hello")
	req.NoError(err)
	req.Equal(1, f.ledger.counts["t1|"+room.ID])

	count, err := f.svc.MarkRead(ctx, room.ID, model.RoleTechnician, "t1")
	req.NoError(err)
	req.Equal(1, count)
	req.Zero(f.ledger.counts["t1|"+room.ID])
	// the other technician's counter is untouched
	req.Equal(1, f.ledger.counts["t2|"+room.ID])
}

func TestMarkRead_ZeroUnreadStillResetsLedger(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1")
	ctx := context.Background()
	room := f.rooms.addRoom("cust-1", "Nimal")
	// counter drifted ahead of the message log
	f.ledger.counts["t1|"+room.ID] = 3

	count, err := f.svc.MarkRead(ctx, room.ID, model.RoleTechnician, "t1")
	req.NoError(err)
	req.Zero(count)
	req.Zero(f.ledger.counts["t1|"+room.ID])
}

func TestMarkRead_ClaimPolicyAssignsRoom(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolClaim, "t1", "t2")
	ctx := context.Background()
	room := f.rooms.addRoom("cust-1", "Nimal")

	_, err := f.svc.Send(ctx, room.ID, model.RoleCustomer, "cust-1", "hello")
	req.NoError(err)

	_, err = f.svc.MarkRead(ctx, room.ID, model.RoleTechnician, "t1")
	req.NoError(err)
	req.Equal("t1", f.rooms.assigned[room.ID])

	// the first claim wins
	_, err = f.svc.MarkRead(ctx, room.ID, model.RoleTechnician, "t2")
	req.NoError(err)
	req.Equal("t1", f.rooms.assigned[room.ID])
}

func TestMarkRead_UnknownRole(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1")
	room := f.rooms.addRoom("cust-1", "Nimal")

	_, err := f.svc.MarkRead(context.Background(), room.ID, "manager", "x")
	req.ErrorIs(err, ErrInvalidArgument)
}

func TestDeleteMessage_MissingReturnsFalse(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1")

	deleted, err := f.svc.DeleteMessage(context.Background(), uuid.NewString())
	req.NoError(err)
	req.False(deleted)
}

func TestDeleteMessage_LeavesCounterThenRecomputeReconciles(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1")
	ctx := context.Background()
	room := f.rooms.addRoom("cust-1", "Nimal")

	m1, err := f.svc.Send(ctx, room.ID, model.RoleCustomer, "cust-1", "one")
	req.NoError(err)
	_, err = f.svc.Send(ctx, room.ID, model.RoleCustomer, "cust-1", "two")
	req.NoError(err)
	req.Equal(2, f.ledger.counts["t1|"+room.ID])

	deleted, err := f.svc.DeleteMessage(ctx, m1.ID)
	req.NoError(err)
	req.True(deleted)
	// drift: counter still says 2
	req.Equal(2, f.ledger.counts["t1|"+room.ID])

	count, err := f.svc.RecomputeUnread(ctx, "t1", room.ID)
	req.NoError(err)
	req.Equal(1, count)
	req.Equal(1, f.ledger.counts["t1|"+room.ID])
}

func TestNotificationScenario_TwoTechnicians(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1", "t2")
	ctx := context.Background()
	room := f.rooms.addRoom("cust-1", "Jane")

	var third *model.Message
	for i, body := range []string{"one", "two", "three"} {
		m, err := f.svc.Send(ctx, room.ID, model.RoleCustomer, "cust-1", body)
		req.NoError(err)
		if i == 2 {
			third = m
		}
	}
	req.Equal(3, f.ledger.counts["t1|"+room.ID])
	req.Equal(3, f.ledger.counts["t2|"+room.ID])

	_, err := f.svc.MarkRead(ctx, room.ID, model.RoleTechnician, "t1")
	req.NoError(err)
	req.Zero(f.ledger.counts["t1|"+room.ID])
	req.Equal(3, f.ledger.counts["t2|"+room.ID])

	// deleting a message does not retroactively change t2's counter
	deleted, err := f.svc.DeleteMessage(ctx, third.ID)
	req.NoError(err)
	req.True(deleted)
	req.Equal(3, f.ledger.counts["t2|"+room.ID])
}

func TestListRoomsForDashboard_InvalidStatus(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1")

	_, _, err := f.svc.ListRoomsForDashboard(context.Background(), 1, 20, "archived")
	req.ErrorIs(err, ErrInvalidArgument)
}

func TestListRoomsForDashboard_StatusFilter(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1")
	ctx := context.Background()
	active := f.rooms.addRoom("cust-1", "Nimal")
	closed := f.rooms.addRoom("cust-2", "Kamala")
	closed.Status = model.RoomStatusClosed

	rooms, total, err := f.svc.ListRoomsForDashboard(ctx, 1, 20, "active")
	req.NoError(err)
	req.Equal(1, total)
	req.Len(rooms, 1)
	req.Equal(active.ID, rooms[0].Room.ID)
}

func TestListRoomsForDashboard_IncludesLastMessage(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1")
	ctx := context.Background()
	room := f.rooms.addRoom("cust-1", "Nimal")

	_, err := f.svc.Send(ctx, room.ID, model.RoleCustomer, "cust-1", "first")
	req.NoError(err)
	last, err := f.svc.Send(ctx, room.ID, model.RoleCustomer, "cust-1", "latest")
	req.NoError(err)

	rooms, _, err := f.svc.ListRoomsForDashboard(ctx, 1, 20, "")
	req.NoError(err)
	req.Len(rooms, 1)
	req.NotNil(rooms[0].LastMessage)
	req.Equal(last.ID, rooms[0].LastMessage.ID)
}

func TestUnreadSummary_TotalServedFromCache(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1")
	ctx := context.Background()
	room := f.rooms.addRoom("cust-1", "Nimal")

	_, err := f.svc.Send(ctx, room.ID, model.RoleCustomer, "cust-1", "hello")
	req.NoError(err)

	summary, err := f.svc.UnreadSummary(ctx, "t1")
	req.NoError(err)
	req.Equal(1, summary.Total)
	req.Len(summary.Entries, 1)

	// bypass the service to drift the ledger; the cached total stays stale
	// until the next write invalidates it
	f.ledger.counts["t1|"+room.ID] = 5
	summary, err = f.svc.UnreadSummary(ctx, "t1")
	req.NoError(err)
	req.Equal(1, summary.Total)
}

func TestUnreadSummary_WriteInvalidatesCache(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1")
	ctx := context.Background()
	room := f.rooms.addRoom("cust-1", "Nimal")

	_, err := f.svc.Send(ctx, room.ID, model.RoleCustomer, "cust-1", "one")
	req.NoError(err)
	summary, err := f.svc.UnreadSummary(ctx, "t1")
	req.NoError(err)
	req.Equal(1, summary.Total)

	_, err = f.svc.Send(ctx, room.ID, model.RoleCustomer, "cust-1", "two")
	req.NoError(err)
	summary, err = f.svc.UnreadSummary(ctx, "t1")
	req.NoError(err)
	req.Equal(2, summary.Total)
}

func TestMarkAllRead_ClearsEverything(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1")
	ctx := context.Background()
	roomA := f.rooms.addRoom("cust-1", "Nimal")
	roomB := f.rooms.addRoom("cust-2", "Kamala")

	_, err := f.svc.Send(ctx, roomA.ID, model.RoleCustomer, "cust-1", "a")
	req.NoError(err)
	_, err = f.svc.Send(ctx, roomB.ID, model.RoleCustomer, "cust-2", "b")
	req.NoError(err)

	cleared, err := f.svc.MarkAllRead(ctx, "t1")
	req.NoError(err)
	req.Equal(2, cleared)

	summary, err := f.svc.UnreadSummary(ctx, "t1")
	req.NoError(err)
	req.Zero(summary.Total)
	req.Empty(summary.Entries)
}

func TestCloseAndReopenRoom(t *testing.T) {
	req := require.New(t)
	f := newFixture(config.PoolBroadcast, "t1")
	ctx := context.Background()
	room := f.rooms.addRoom("cust-1", "Nimal")

	req.NoError(f.svc.CloseRoom(ctx, room.ID))
	req.Equal(model.RoomStatusClosed, f.rooms.byID[room.ID].Status)

	// messages still flow into a closed room
	_, err := f.svc.Send(ctx, room.ID, model.RoleCustomer, "cust-1", "one more thing")
	req.NoError(err)

	req.NoError(f.svc.ReopenRoom(ctx, room.ID))
	req.Equal(model.RoomStatusActive, f.rooms.byID[room.ID].Status)

	req.ErrorIs(f.svc.CloseRoom(ctx, uuid.NewString()), repository.ErrNotFound)
}
