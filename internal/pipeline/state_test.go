package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_FullSequence(t *testing.T) {
	var observed [][2]State
	m := NewMachine(func(from, to State) { observed = append(observed, [2]State{from, to}) })

	sequence := []State{
		StateExtracting, StateSkillMatching, StateExperienceScoring,
		StateEducationScoring, StateAggregating, StateAuditing, StateDone,
	}
	for _, s := range sequence {
		require.NoError(t, m.Transition(s))
	}

	assert.Equal(t, StateDone, m.Current())
	assert.Equal(t, append([]State{StateInit}, sequence...), m.History())
	require.Len(t, observed, len(sequence))
	assert.Equal(t, [2]State{StateInit, StateExtracting}, observed[0])
}

func TestMachine_RejectsSkips(t *testing.T) {
	m := NewMachine(nil)
	err := m.Transition(StateSkillMatching)
	assert.Error(t, err)
	assert.Equal(t, StateInit, m.Current())

	require.NoError(t, m.Transition(StateExtracting))
	assert.Error(t, m.Transition(StateExtracting))
	assert.Error(t, m.Transition(StateDone))
}

func TestMachine_FailedIsTerminal(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.Transition(StateExtracting))
	require.NoError(t, m.Transition(StateFailed))

	assert.True(t, m.Current().Terminal())
	assert.Error(t, m.Transition(StateSkillMatching))
	assert.Error(t, m.Transition(StateFailed))
	assert.Equal(t, []State{StateInit, StateExtracting, StateFailed}, m.History())
}

func TestMachine_FailFromInit(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.Transition(StateFailed))
	assert.Equal(t, StateFailed, m.Current())
}

func TestMachine_DoneIsTerminal(t *testing.T) {
	m := NewMachine(nil)
	for _, s := range []State{StateExtracting, StateSkillMatching, StateExperienceScoring, StateEducationScoring, StateAggregating, StateAuditing, StateDone} {
		require.NoError(t, m.Transition(s))
	}
	assert.Error(t, m.Transition(StateFailed))
}
