package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamNonModeratorRejected(t *testing.T) {
	t.Parallel()

	s := newStreamSession(1, 100)

	action, err := s.apply(200, ActionMute, 300)
	assert.ErrorIs(t, err, ErrNotModerator)
	assert.Nil(t, action)

	// 被拒絕的指令不寫入動作日誌，狀態也不變
	assert.Empty(t, s.replay())
	assert.Equal(t, StreamLive, s.status)
	assert.False(t, s.muted[300])
}

func TestStreamAuthorizeDoesNotMutate(t *testing.T) {
	t.Parallel()

	s := newStreamSession(1, 100)

	// 授權錯誤優先於其他拒絕條件
	assert.ErrorIs(t, s.authorize(200, ActionKind("ban"), 0), ErrNotModerator)
	assert.ErrorIs(t, s.authorize(100, ActionResumeStream, 0), ErrOutOfPhase)

	// 通過驗證也不寫日誌、不動狀態，執行是 apply 的事
	require.NoError(t, s.authorize(100, ActionMute, 200))
	require.NoError(t, s.authorize(100, ActionEndStream, 0))
	assert.Empty(t, s.replay())
	assert.Equal(t, StreamLive, s.status)
	assert.NoError(t, s.canChat(200))
}

func TestStreamMuteUnmuteControlsChat(t *testing.T) {
	t.Parallel()

	s := newStreamSession(1, 100)
	require.NoError(t, s.canChat(200))

	_, err := s.apply(100, ActionMute, 200)
	require.NoError(t, err)
	assert.ErrorIs(t, s.canChat(200), ErrMuted)
	// 其他觀眾不受影響
	assert.NoError(t, s.canChat(201))

	_, err = s.apply(100, ActionUnmute, 200)
	require.NoError(t, err)
	assert.NoError(t, s.canChat(200))
}

func TestStreamTargetedActionsRequireTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind    ActionKind
		target  uint
		wantErr error
	}{
		{kind: ActionMute, target: 0, wantErr: ErrBadEnvelope},
		{kind: ActionUnmute, target: 0, wantErr: ErrBadEnvelope},
		{kind: ActionKick, target: 0, wantErr: ErrBadEnvelope},
		{kind: ActionPauseStream, target: 0, wantErr: nil},
		{kind: ActionKind("ban"), target: 200, wantErr: ErrBadEnvelope},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			s := newStreamSession(1, 100)
			_, err := s.apply(100, tt.kind, tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStreamPauseResumeEndLifecycle(t *testing.T) {
	t.Parallel()

	s := newStreamSession(1, 100)

	// live 狀態不能 resume
	_, err := s.apply(100, ActionResumeStream, 0)
	assert.ErrorIs(t, err, ErrOutOfPhase)

	_, err = s.apply(100, ActionPauseStream, 0)
	require.NoError(t, err)
	assert.Equal(t, StreamPaused, s.status)

	// paused 狀態不能再 pause
	_, err = s.apply(100, ActionPauseStream, 0)
	assert.ErrorIs(t, err, ErrOutOfPhase)

	_, err = s.apply(100, ActionResumeStream, 0)
	require.NoError(t, err)
	assert.Equal(t, StreamLive, s.status)

	_, err = s.apply(100, ActionEndStream, 0)
	require.NoError(t, err)
	assert.Equal(t, StreamEnded, s.status)
	assert.True(t, s.terminal())
}

func TestStreamEndedIsAbsorbing(t *testing.T) {
	t.Parallel()

	s := newStreamSession(1, 100)
	_, err := s.apply(100, ActionEndStream, 0)
	require.NoError(t, err)
	logLen := len(s.replay())

	// 結束後所有指令都被拒絕，包括主持人自己的
	for _, kind := range []ActionKind{
		ActionResumeStream, ActionPauseStream, ActionMute, ActionEndStream,
	} {
		_, err := s.apply(100, kind, 200)
		assert.ErrorIs(t, err, ErrStreamEnded, "kind=%s", kind)
	}
	assert.Len(t, s.replay(), logLen)
	assert.ErrorIs(t, s.canChat(200), ErrStreamEnded)
}

func TestStreamActionLogOrderedAndReplayable(t *testing.T) {
	t.Parallel()

	s := newStreamSession(1, 100)
	steps := []struct {
		kind   ActionKind
		target uint
	}{
		{ActionMute, 200},
		{ActionPauseStream, 0},
		{ActionResumeStream, 0},
		{ActionUnmute, 200},
		{ActionKick, 300},
	}
	for _, step := range steps {
		_, err := s.apply(100, step.kind, step.target)
		require.NoError(t, err)
	}

	log := s.replay()
	require.Len(t, log, len(steps))
	for i, action := range log {
		assert.Equal(t, steps[i].kind, action.Kind)
		assert.Equal(t, uint(100), action.ActorID)
		assert.Equal(t, steps[i].target, action.TargetID)
		if i > 0 {
			// ULID 在同一行程內單調遞增，日誌天然按字典序排好
			assert.Less(t, log[i-1].ID, action.ID)
		}
	}

	// replay 回傳副本，呼叫端改動不影響日誌本體
	log[0].Kind = ActionEndStream
	assert.Equal(t, ActionMute, s.replay()[0].Kind)
}

func TestStreamViewerCountExcludesModerator(t *testing.T) {
	t.Parallel()

	s := newStreamSession(1, 100)
	members := map[string]*member{
		"a": {userID: 100, role: RoleModerator},
		"b": {userID: 200, role: RoleViewer},
		"c": {userID: 300, role: RoleViewer},
	}
	assert.Equal(t, 2, s.viewerCount(members))

	assert.Equal(t, RoleModerator, s.roleOf(100))
	assert.Equal(t, RoleViewer, s.roleOf(200))
}
