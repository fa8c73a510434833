// Package solver 提供 0-1 规划求解器
package solver

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/paiban/kinmu/pkg/mip"
)

// Status 求解状态
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusTimedOut   Status = "timed_out"
	StatusUnknown    Status = "unknown"
)

// Solver 求解器接口，时间预算由 ctx 的截止时间给出
type Solver interface {
	// Solve 求解模型
	Solve(ctx context.Context, m *mip.Model) (*Result, error)

	// Name 返回求解器名称
	Name() string
}

// Result 求解结果，只有 StatusOptimal 时 Values 才可用于抽取排班
type Result struct {
	Status    Status        `json:"status"`
	Solver    string        `json:"solver,omitempty"` // 实际求解的求解器，空时取调用方名称
	Objective float64       `json:"objective"`
	Values    []float64     `json:"-"`
	Duration  time.Duration `json:"duration"`
	Nodes     int64         `json:"nodes,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// Factory 求解器构造函数
type Factory func() Solver

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register 注册求解器
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// New 按名称创建求解器
func New(name string) (Solver, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("未注册的求解器 %q，可用: %v", name, Names())
	}
	return f(), nil
}

// Names 已注册的求解器名称
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(SearchName, func() Solver { return NewSearch() })
}
