package screen

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrDuplicateScreen = errors.New("screen id already in use")

// --- 界面管理器 ---

// Manager 管理所有选人界面
type Manager struct {
	screens map[string]*Screen
	ctx     context.Context
	mutex   sync.RWMutex
}

// NewManager 创建一个新的界面管理器. Screens created by it stop when ctx is cancelled.
func NewManager(ctx context.Context) *Manager {
	return &Manager{
		screens: make(map[string]*Screen),
		ctx:     ctx,
	}
}

// CreateScreen 创建一个新界面并添加到管理器
func (m *Manager) CreateScreen(opts Options) (*Screen, error) {
	return m.Create(uuid.NewString(), opts)
}

// Create adds a screen with a caller-chosen id, e.g. when the broadcaster must know it first.
func (m *Manager) Create(id string, opts Options) (*Screen, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.screens[id]; exists {
		return nil, errors.Wrapf(ErrDuplicateScreen, "%q", id)
	}
	s, err := New(m.ctx, id, opts)
	if err != nil {
		return nil, err
	}
	m.screens[id] = s
	return s, nil
}

// RemoveScreen 从管理器中移除并关闭一个界面
func (m *Manager) RemoveScreen(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if s, exists := m.screens[id]; exists {
		s.Shutdown()
		delete(m.screens, id)
	}
}

// GetScreen 从管理器中获取一个界面
func (m *Manager) GetScreen(id string) (*Screen, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	s, exists := m.screens[id]
	return s, exists
}

// Screens lists the managed screens, oldest first.
func (m *Manager) Screens() []*Screen {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make([]*Screen, 0, len(m.screens))
	for _, s := range m.screens {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Count is the number of managed screens.
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.screens)
}

// ShutdownAll stops every screen.
func (m *Manager) ShutdownAll() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for id, s := range m.screens {
		s.Shutdown()
		delete(m.screens, id)
	}
}
