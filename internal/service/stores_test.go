package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"debate_live/internal/models"
	"debate_live/internal/realtime"
	"debate_live/internal/repository"
)

// fakeRoomRepo 以記憶體地圖模擬房間倉儲
type fakeRoomRepo struct {
	mu     sync.Mutex
	rooms  map[uint]models.Room
	nextID uint
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[uint]models.Room)}
}

func (r *fakeRoomRepo) Create(room *models.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	room.ID = r.nextID
	r.rooms[room.ID] = *room
	return nil
}

func (r *fakeRoomRepo) FindByID(id uint) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &room, nil
}

func (r *fakeRoomRepo) Update(room *models.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.ID] = *room
	return nil
}

func (r *fakeRoomRepo) FindAll() ([]models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	return out, nil
}

func (r *fakeRoomRepo) seed(room models.Room) uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	room.ID = r.nextID
	r.rooms[room.ID] = room
	return room.ID
}

type fakeMessageRepo struct {
	mu   sync.Mutex
	msgs []models.Message
}

func (r *fakeMessageRepo) Create(message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, *message)
	return nil
}

func (r *fakeMessageRepo) FindByRoomID(roomID uint) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, m := range r.msgs {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeArchiveRepo struct {
	mu       sync.Mutex
	archives []models.DebateArchive
}

func (r *fakeArchiveRepo) Create(archive *models.DebateArchive) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archives = append(r.archives, *archive)
	return nil
}

func (r *fakeArchiveRepo) FindByRoomID(roomID uint) ([]models.DebateArchive, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DebateArchive
	for _, a := range r.archives {
		if a.RoomID == roomID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeArchiveRepo) all() []models.DebateArchive {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.DebateArchive, len(r.archives))
	copy(out, r.archives)
	return out
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	actions []models.StreamAction
}

func (r *fakeAuditRepo) Create(action *models.StreamAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, *action)
	return nil
}

func (r *fakeAuditRepo) FindByRoomID(roomID uint) ([]models.StreamAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.StreamAction
	for _, a := range r.actions {
		if a.RoomID == roomID {
			out = append(out, a)
		}
	}
	return out, nil
}

func newFakeRepos() (*repository.Repositories, *fakeRoomRepo, *fakeArchiveRepo, *fakeAuditRepo) {
	rooms := newFakeRoomRepo()
	archives := &fakeArchiveRepo{}
	audits := &fakeAuditRepo{}
	repos := &repository.Repositories{
		Room:    rooms,
		Message: &fakeMessageRepo{},
		Archive: archives,
		Audit:   audits,
	}
	return repos, rooms, archives, audits
}

func TestRealtimeStoresLookup(t *testing.T) {
	t.Parallel()

	repos, rooms, _, _ := newFakeRepos()
	debateID := rooms.seed(models.Room{Kind: models.RoomKindDebate, Status: models.RoomStatusWaiting})
	streamID := rooms.seed(models.Room{Kind: models.RoomKindStream, Status: models.RoomStatusWaiting, ModeratorID: 9})
	stores := realtimeStores{repos: repos}

	info, err := stores.Lookup(debateID)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, realtime.KindDebate, info.Kind)
	assert.Zero(t, info.ModeratorID)

	info, err = stores.Lookup(streamID)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, realtime.KindStream, info.Kind)
	assert.Equal(t, uint(9), info.ModeratorID)

	// 沒有記錄不是錯誤，讓即時層退回信封提示
	info, err = stores.Lookup(404)
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestRealtimeStoresSaveChat(t *testing.T) {
	t.Parallel()

	repos, _, _, _ := newFakeRepos()
	stores := realtimeStores{repos: repos}

	at := time.Now()
	require.NoError(t, stores.SaveChat(1, 10, "proponent", "立論", at))

	msgs, err := repos.Message.FindByRoomID(1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, uint(10), msgs[0].UserID)
	assert.Equal(t, "proponent", msgs[0].Role)
	assert.Equal(t, "立論", msgs[0].Content)
	assert.Equal(t, at, msgs[0].Timestamp)
}

func TestRealtimeStoresSaveDebateArchivesAndFinishes(t *testing.T) {
	t.Parallel()

	repos, rooms, archives, _ := newFakeRepos()
	roomID := rooms.seed(models.Room{Kind: models.RoomKindDebate, Status: models.RoomStatusOngoing})
	stores := realtimeStores{repos: repos}

	err := stores.SaveDebate(realtime.DebateOutcome{
		RoomID:          roomID,
		ProponentID:     10,
		OpponentID:      20,
		ProponentTurns:  3,
		OpponentTurns:   3,
		ProponentBallot: &realtime.Ballot{Logic: 4, Politeness: 5, Openness: 3, Continue: true},
		OpponentBallot:  &realtime.Ballot{Logic: 5, Politeness: 4, Openness: 4, Continue: false},
		Continued:       false,
	})
	require.NoError(t, err)

	require.Len(t, archives.all(), 1)
	archive := archives.all()[0]
	assert.Equal(t, roomID, archive.RoomID)
	assert.Equal(t, 4, archive.ProponentLogic)
	assert.Equal(t, 5, archive.ProponentPoliteness)
	assert.True(t, archive.ProponentContinue)
	assert.Equal(t, 5, archive.OpponentLogic)
	assert.False(t, archive.OpponentContinue)
	assert.False(t, archive.Continued)

	// 房間記錄收尾並補上雙方身分
	room, err := rooms.FindByID(roomID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusFinished, room.Status)
	assert.Equal(t, uint(10), room.ProponentID)
	assert.Equal(t, uint(20), room.OpponentID)
}

func TestRealtimeStoresSaveDebateWithoutRoomRecord(t *testing.T) {
	t.Parallel()

	// 臨時房間沒有持久化記錄，歸檔照存、收尾靜默跳過
	repos, _, archives, _ := newFakeRepos()
	stores := realtimeStores{repos: repos}

	err := stores.SaveDebate(realtime.DebateOutcome{RoomID: 999, ProponentID: 10, Expired: true})
	require.NoError(t, err)
	require.Len(t, archives.all(), 1)
	assert.True(t, archives.all()[0].Expired)
}

func TestRealtimeStoresRecordAudit(t *testing.T) {
	t.Parallel()

	repos, rooms, _, _ := newFakeRepos()
	roomID := rooms.seed(models.Room{Kind: models.RoomKindStream, Status: models.RoomStatusOngoing, ModeratorID: 100})
	stores := realtimeStores{repos: repos}

	now := time.Now()
	mute := realtime.StreamAction{ID: "01A", Kind: realtime.ActionMute, ActorID: 100, TargetID: 200, At: now}
	require.NoError(t, stores.Record(roomID, mute, true, ""))

	// 被拒絕的嘗試同樣留痕，但不影響房間狀態
	denied := realtime.StreamAction{ID: "01B", Kind: realtime.ActionEndStream, ActorID: 200, At: now}
	require.NoError(t, stores.Record(roomID, denied, false, "not_moderator"))

	room, err := rooms.FindByID(roomID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusOngoing, room.Status)

	// 主持人結束直播時房間記錄一併收尾
	end := realtime.StreamAction{ID: "01C", Kind: realtime.ActionEndStream, ActorID: 100, At: now}
	require.NoError(t, stores.Record(roomID, end, true, ""))

	room, err = rooms.FindByID(roomID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusFinished, room.Status)

	saved, err := repos.Audit.FindByRoomID(roomID)
	require.NoError(t, err)
	require.Len(t, saved, 3)
	assert.True(t, saved[0].Allowed)
	assert.False(t, saved[1].Allowed)
	assert.Equal(t, "not_moderator", saved[1].Reason)
	assert.Equal(t, "end_stream", saved[2].Action)
}

func TestRoomServiceCreateRoom(t *testing.T) {
	t.Parallel()

	repos, _, _, _ := newFakeRepos()
	svc := NewRoomService(repos)

	_, err := svc.CreateRoom("壞房間", "", models.RoomKind("karaoke"), 1)
	assert.Error(t, err)

	debate, err := svc.CreateRoom("辯論室", "今晚的主題", models.RoomKindDebate, 1)
	require.NoError(t, err)
	assert.NotZero(t, debate.ID)
	assert.Equal(t, models.RoomStatusWaiting, debate.Status)
	assert.Zero(t, debate.ModeratorID)

	// 直播房間的建立者自動成為主持人
	stream, err := svc.CreateRoom("直播間", "", models.RoomKindStream, 7)
	require.NoError(t, err)
	assert.Equal(t, uint(7), stream.ModeratorID)
	assert.Equal(t, uint(7), stream.CreatorID)

	rooms, err := svc.ListRooms()
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}
