package constraint

import (
	"sort"
	"sync"

	"github.com/paiban/kinmu/pkg/calendar"
	"github.com/paiban/kinmu/pkg/model"
)

// Manager 约束管理器
type Manager struct {
	constraints []Constraint
	mu          sync.RWMutex
}

// NewManager 创建约束管理器
func NewManager() *Manager {
	return &Manager{
		constraints: make([]Constraint, 0),
	}
}

// Register 注册约束，同类型的约束会被替换
func (m *Manager) Register(c Constraint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.constraints {
		if existing.Type() == c.Type() {
			m.constraints[i] = c
			return
		}
	}

	m.constraints = append(m.constraints, c)

	// 硬约束在前，权重高的在前
	sort.SliceStable(m.constraints, func(i, j int) bool {
		ci, cj := m.constraints[i], m.constraints[j]
		if ci.Category() != cj.Category() {
			return ci.Category() == CategoryHard
		}
		return ci.Weight() > cj.Weight()
	})
}

// GetAll 获取所有约束
func (m *Manager) GetAll() []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Constraint, len(m.constraints))
	copy(result, m.constraints)
	return result
}

// Names 按构建顺序列出约束类型
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.constraints))
	for i, c := range m.constraints {
		names[i] = string(c.Type())
	}
	return names
}

// Build 校验参数并依次应用全部约束，得到完整的 0-1 规划模型
func (m *Manager) Build(cal *calendar.Calendar, policy model.PolicyParameters) (*Builder, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	b := NewBuilder(cal, policy)
	for _, c := range m.GetAll() {
		if err := c.Apply(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Count 约束数量
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.constraints)
}
