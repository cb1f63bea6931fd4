package state

import (
	"sync"

	"github.com/pkg/errors"
)

// 状态机接口
type StateMachine interface {
	ChangeState(state State) error
	GetCurrentState() State
	AddTransition(from State, to State, condition func() bool) error
}

// 状态接口
type State interface {
	OnEnter()
	OnExit()
	GetID() string
}

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// 基础状态机实现
type BaseStateMachine struct {
	currentState State
	transitions  map[string]map[string]func() bool // fromState -> toState -> condition
	strict       bool
	mutex        sync.RWMutex
}

// NewBaseStateMachine allows any transition unless a registered condition refuses it.
func NewBaseStateMachine(initialState State) *BaseStateMachine {
	machine := &BaseStateMachine{
		currentState: initialState,
		transitions:  make(map[string]map[string]func() bool),
	}
	initialState.OnEnter()
	return machine
}

// NewStrictStateMachine only allows transitions registered with AddTransition.
func NewStrictStateMachine(initialState State) *BaseStateMachine {
	machine := NewBaseStateMachine(initialState)
	machine.strict = true
	return machine
}

func (sm *BaseStateMachine) ChangeState(newState State) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	currentID := sm.currentState.GetID()
	newID := newState.GetID()

	// 检查是否有转换条件
	conditions, exists := sm.transitions[currentID]
	condition, registered := conditions[newID]
	if !exists || !registered {
		if sm.strict {
			return errors.Wrapf(ErrTransitionNotAllowed, "%s -> %s", currentID, newID)
		}
	} else if condition != nil && !condition() {
		return errors.Wrapf(ErrTransitionNotAllowed, "%s -> %s", currentID, newID)
	}

	sm.currentState.OnExit()
	sm.currentState = newState
	sm.currentState.OnEnter()

	return nil
}

// Restore puts a previous state back without running any hook. It is meant for
// rolling back a transition whose side effects failed.
func (sm *BaseStateMachine) Restore(s State) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	sm.currentState = s
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

func (sm *BaseStateMachine) AddTransition(from State, to State, condition func() bool) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	fromID := from.GetID()
	toID := to.GetID()

	if _, exists := sm.transitions[fromID]; !exists {
		sm.transitions[fromID] = make(map[string]func() bool)
	}

	sm.transitions[fromID][toID] = condition
	return nil
}

// 座位状态基础结构
type SeatStateBase struct {
	ID   string
	Seat SeatContext
}

func (s *SeatStateBase) GetID() string {
	return s.ID
}

func (s *SeatStateBase) OnEnter() {
	// 默认实现
}

func (s *SeatStateBase) OnExit() {
	// 默认实现
}
