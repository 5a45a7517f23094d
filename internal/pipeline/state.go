package pipeline

import (
	"fmt"
	"sync"
)

type State string

const (
	StateInit              State = "INIT"
	StateExtracting        State = "EXTRACTING"
	StateSkillMatching     State = "SKILL_MATCHING"
	StateExperienceScoring State = "EXPERIENCE_SCORING"
	StateEducationScoring  State = "EDUCATION_SCORING"
	StateAggregating       State = "AGGREGATING"
	StateAuditing          State = "AUDITING"
	StateDone              State = "DONE"
	StateFailed            State = "FAILED"
)

// transitions lists the legal successors of every non-terminal state.
// FAILED is reachable from all of them and is added by Transition.
var transitions = map[State]State{
	StateInit:              StateExtracting,
	StateExtracting:        StateSkillMatching,
	StateSkillMatching:     StateExperienceScoring,
	StateExperienceScoring: StateEducationScoring,
	StateEducationScoring:  StateAggregating,
	StateAggregating:       StateAuditing,
	StateAuditing:          StateDone,
}

func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// TransitionFunc observes state changes of a run.
type TransitionFunc func(from, to State)

// Machine tracks the state of a single run. A failed run is never resumed.
type Machine struct {
	mu      sync.Mutex
	current State
	history []State
	observe TransitionFunc
}

func NewMachine(observe TransitionFunc) *Machine {
	return &Machine{
		current: StateInit,
		history: []State{StateInit},
		observe: observe,
	}
}

func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// History returns every state visited, starting with INIT.
func (m *Machine) History() []State {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]State, len(m.history))
	copy(out, m.history)
	return out
}

func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	from := m.current
	if from.Terminal() {
		m.mu.Unlock()
		return fmt.Errorf("illegal transition %s -> %s: run already finished", from, to)
	}
	if to != StateFailed && transitions[from] != to {
		m.mu.Unlock()
		return fmt.Errorf("illegal transition %s -> %s", from, to)
	}
	m.current = to
	m.history = append(m.history, to)
	m.mu.Unlock()

	if m.observe != nil {
		m.observe(from, to)
	}
	return nil
}
