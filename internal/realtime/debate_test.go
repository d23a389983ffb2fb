package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebateAdmitAssignsRoles(t *testing.T) {
	t.Parallel()

	d := newDebateSession(1, 10, 3)

	role, err := d.admit(10)
	require.NoError(t, err)
	assert.Equal(t, RoleProponent, role)

	role, err = d.admit(20)
	require.NoError(t, err)
	assert.Equal(t, RoleOpponent, role)

	// 既有辯論者重回拿回原角色
	role, err = d.admit(20)
	require.NoError(t, err)
	assert.Equal(t, RoleOpponent, role)

	// 第三個不同身分被容量錯誤拒絕
	_, err = d.admit(30)
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, uint(10), d.proponent)
	assert.Equal(t, uint(20), d.opponent)
}

func TestDebateTurnCounterMonotonicAndCapped(t *testing.T) {
	t.Parallel()

	d := newDebateSession(1, 10, 3)

	for i := 1; i <= 3; i++ {
		counted, toVoting, err := d.acceptChat(10)
		require.NoError(t, err)
		assert.True(t, counted)
		assert.False(t, toVoting)
		assert.Equal(t, i, d.turns[10])
	}

	// 回合用盡後的發言被拒絕，計數不變
	_, _, err := d.acceptChat(10)
	assert.ErrorIs(t, err, ErrTurnLimit)
	assert.Equal(t, 3, d.turns[10])
	assert.NotEqual(t, PhaseVoting, d.phase)
}

func TestDebateOpeningMovesToTurnsOnFirstMessage(t *testing.T) {
	t.Parallel()

	d := newDebateSession(1, 10, 3)
	assert.Equal(t, PhaseOpening, d.phase)

	_, _, err := d.acceptChat(10)
	require.NoError(t, err)
	assert.Equal(t, PhaseTurns, d.phase)
}

func TestDebateVotingRequiresBothExhausted(t *testing.T) {
	t.Parallel()

	d := newDebateSession(1, 10, 3)
	_, err := d.admit(20)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, toVoting, err := d.acceptChat(10)
		require.NoError(t, err)
		assert.False(t, toVoting)
	}
	for i := 0; i < 2; i++ {
		_, toVoting, err := d.acceptChat(20)
		require.NoError(t, err)
		assert.False(t, toVoting)
	}

	// 最後一則讓雙方都用盡回合，場次轉入互評
	_, toVoting, err := d.acceptChat(20)
	require.NoError(t, err)
	assert.True(t, toVoting)
	assert.Equal(t, PhaseVoting, d.phase)

	// 互評期間不接受發言
	_, _, err = d.acceptChat(10)
	assert.ErrorIs(t, err, ErrTurnLimit)
}

func TestDebateNoVotingBeforeOpponentArrives(t *testing.T) {
	t.Parallel()

	// 正方可以先開場；對手還沒出現時即使回合用盡也不進入互評
	d := newDebateSession(1, 10, 3)
	for i := 0; i < 3; i++ {
		_, toVoting, err := d.acceptChat(10)
		require.NoError(t, err)
		assert.False(t, toVoting)
	}
	assert.Equal(t, PhaseTurns, d.phase)
}

func TestDebatePrematureBallotRejected(t *testing.T) {
	t.Parallel()

	d := newDebateSession(1, 10, 3)
	_, err := d.admit(20)
	require.NoError(t, err)
	_, _, err = d.acceptChat(10)
	require.NoError(t, err)

	_, err = d.castBallot(10, Ballot{Logic: 3, Politeness: 3, Openness: 3})
	assert.ErrorIs(t, err, ErrOutOfPhase)
}

func TestDebateBallotValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		ballot Ballot
		valid  bool
	}{
		{name: "all minimum", ballot: Ballot{Logic: 1, Politeness: 1, Openness: 1}, valid: true},
		{name: "all maximum", ballot: Ballot{Logic: 5, Politeness: 5, Openness: 5}, valid: true},
		{name: "zero logic", ballot: Ballot{Logic: 0, Politeness: 3, Openness: 3}, valid: false},
		{name: "politeness above range", ballot: Ballot{Logic: 3, Politeness: 6, Openness: 3}, valid: false},
		{name: "negative openness", ballot: Ballot{Logic: 3, Politeness: 3, Openness: -1}, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ballot.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidVote)
			}
		})
	}
}

// votingSession 建立一個雙方回合都已用盡、進入互評階段的場次
func votingSession(t *testing.T) *DebateSession {
	t.Helper()
	d := newDebateSession(1, 10, 3)
	_, err := d.admit(20)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, _, err := d.acceptChat(10)
		require.NoError(t, err)
		_, _, err = d.acceptChat(20)
		require.NoError(t, err)
	}
	require.Equal(t, PhaseVoting, d.phase)
	return d
}

func TestDebateBothMustAgreeContinuation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		a, b      bool
		wantPhase DebatePhase
	}{
		{name: "both continue", a: true, b: true, wantPhase: PhaseFreeform},
		{name: "only proponent continues", a: true, b: false, wantPhase: PhaseConcluded},
		{name: "only opponent continues", a: false, b: true, wantPhase: PhaseConcluded},
		{name: "neither continues", a: false, b: false, wantPhase: PhaseConcluded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := votingSession(t)

			result, err := d.castBallot(10, Ballot{Logic: 4, Politeness: 5, Openness: 3, Continue: tt.a})
			require.NoError(t, err)
			assert.Nil(t, result) // 等待另一方

			result, err = d.castBallot(20, Ballot{Logic: 5, Politeness: 4, Openness: 4, Continue: tt.b})
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, tt.a && tt.b, result.Continued)
			assert.Equal(t, tt.wantPhase, d.phase)
			require.NotNil(t, result.ProponentBallot)
			require.NotNil(t, result.OpponentBallot)
			assert.Equal(t, 4, result.ProponentBallot.Logic)
			assert.Equal(t, 5, result.OpponentBallot.Logic)
		})
	}
}

func TestDebateBallotOverwriteBeforePeerVotes(t *testing.T) {
	t.Parallel()

	d := votingSession(t)

	_, err := d.castBallot(10, Ballot{Logic: 1, Politeness: 1, Openness: 1, Continue: false})
	require.NoError(t, err)

	// 對手投票前允許改評分
	_, err = d.castBallot(10, Ballot{Logic: 5, Politeness: 5, Openness: 5, Continue: true})
	require.NoError(t, err)

	result, err := d.castBallot(20, Ballot{Logic: 3, Politeness: 3, Openness: 3, Continue: true})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Continued)
	assert.Equal(t, 5, result.ProponentBallot.Logic)
}

func TestDebateBallotsFrozenAfterResult(t *testing.T) {
	t.Parallel()

	d := votingSession(t)

	_, err := d.castBallot(10, Ballot{Logic: 4, Politeness: 4, Openness: 4, Continue: true})
	require.NoError(t, err)
	result, err := d.castBallot(20, Ballot{Logic: 4, Politeness: 4, Openness: 4, Continue: true})
	require.NoError(t, err)
	require.NotNil(t, result)

	// 結果出爐後評分凍結
	_, err = d.castBallot(10, Ballot{Logic: 1, Politeness: 1, Openness: 1})
	assert.ErrorIs(t, err, ErrOutOfPhase)
	assert.Equal(t, 4, d.ballots[10].Logic)
}

func TestDebateFreeformDoesNotCountTurns(t *testing.T) {
	t.Parallel()

	d := votingSession(t)
	_, err := d.castBallot(10, Ballot{Logic: 4, Politeness: 4, Openness: 4, Continue: true})
	require.NoError(t, err)
	_, err = d.castBallot(20, Ballot{Logic: 4, Politeness: 4, Openness: 4, Continue: true})
	require.NoError(t, err)
	require.Equal(t, PhaseFreeform, d.phase)

	// 自由討論不設回合限制，計數也不再增加
	for i := 0; i < 10; i++ {
		counted, toVoting, err := d.acceptChat(10)
		require.NoError(t, err)
		assert.False(t, counted)
		assert.False(t, toVoting)
	}
	assert.Equal(t, 3, d.turns[10])
}

func TestDebateConcludedIsAbsorbing(t *testing.T) {
	t.Parallel()

	d := votingSession(t)
	_, err := d.castBallot(10, Ballot{Logic: 4, Politeness: 4, Openness: 4, Continue: true})
	require.NoError(t, err)
	_, err = d.castBallot(20, Ballot{Logic: 4, Politeness: 4, Openness: 4, Continue: false})
	require.NoError(t, err)
	require.Equal(t, PhaseConcluded, d.phase)
	assert.True(t, d.terminal())

	_, _, err = d.acceptChat(10)
	assert.ErrorIs(t, err, ErrOutOfPhase)
	err = d.acceptLiveVote(10, LiveVoteFor)
	assert.ErrorIs(t, err, ErrOutOfPhase)
}

func TestDebateLiveVoteIsAdvisory(t *testing.T) {
	t.Parallel()

	d := newDebateSession(1, 10, 3)
	_, err := d.admit(20)
	require.NoError(t, err)

	require.NoError(t, d.acceptLiveVote(10, LiveVoteFor))
	require.NoError(t, d.acceptLiveVote(20, LiveVoteNeutral))

	// 即席投票不影響階段與回合
	assert.Equal(t, PhaseOpening, d.phase)
	assert.Equal(t, 0, d.turns[10])

	assert.ErrorIs(t, d.acceptLiveVote(10, LiveVote("abstain")), ErrInvalidVote)
	assert.ErrorIs(t, d.acceptLiveVote(99, LiveVoteFor), ErrNotInRoom)
}

func TestDebateOutcomeExport(t *testing.T) {
	t.Parallel()

	d := votingSession(t)
	_, err := d.castBallot(10, Ballot{Logic: 4, Politeness: 5, Openness: 3, Continue: true})
	require.NoError(t, err)
	_, err = d.castBallot(20, Ballot{Logic: 5, Politeness: 4, Openness: 4, Continue: false})
	require.NoError(t, err)

	out := d.outcome(false)
	assert.Equal(t, uint(1), out.RoomID)
	assert.Equal(t, uint(10), out.ProponentID)
	assert.Equal(t, uint(20), out.OpponentID)
	assert.Equal(t, 3, out.ProponentTurns)
	assert.Equal(t, 3, out.OpponentTurns)
	require.NotNil(t, out.ProponentBallot)
	require.NotNil(t, out.OpponentBallot)
	assert.False(t, out.Continued)
	assert.False(t, out.Expired)
}

func TestDebateReaperConcludeIsTerminal(t *testing.T) {
	t.Parallel()

	d := newDebateSession(1, 10, 3)
	require.False(t, d.terminal())

	d.conclude()
	assert.True(t, d.terminal())

	out := d.outcome(true)
	assert.True(t, out.Expired)
	assert.Nil(t, out.ProponentBallot)
}
