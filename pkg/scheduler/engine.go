// Package scheduler 串联日历、约束模型、求解器、抽取与统计，完成一次排班
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/kinmu/pkg/calendar"
	apperrors "github.com/paiban/kinmu/pkg/errors"
	"github.com/paiban/kinmu/pkg/logger"
	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler/constraint"
	"github.com/paiban/kinmu/pkg/scheduler/constraint/builtin"
	"github.com/paiban/kinmu/pkg/scheduler/solver"
	"github.com/paiban/kinmu/pkg/stats"
	"github.com/paiban/kinmu/pkg/validator"
)

// DefaultTimeout 默认求解时间预算
const DefaultTimeout = 300 * time.Second

// Config 引擎配置
type Config struct {
	Solver  string        `json:"solver" mapstructure:"solver"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	Stats   stats.Options `json:"stats" mapstructure:"stats"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{Solver: solver.AutoName, Timeout: DefaultTimeout}
}

// Request 一次排班的输入
type Request struct {
	Start  time.Time              `json:"start"`
	End    time.Time              `json:"end"`
	Policy model.PolicyParameters `json:"policy"`
}

// ModelSize 模型规模
type ModelSize struct {
	Vars  int `json:"vars"`
	Rows  int `json:"rows"`
	Rules int `json:"rules"`
}

// RunResult 一次成功排班的全部产物，由调用方持有
type RunResult struct {
	RunID      uuid.UUID              `json:"run_id"`
	Start      string                 `json:"start"`
	End        string                 `json:"end"`
	Calendar   *calendar.Calendar     `json:"-"`
	Policy     model.PolicyParameters `json:"-"`
	Assignment *model.Assignment      `json:"assignment"`
	Statistics stats.Statistics       `json:"statistics"`
	Coverage   *stats.CoverageMetrics `json:"coverage"`
	Objective  float64                `json:"objective"`
	Solver     string                 `json:"solver"`
	Status     solver.Status          `json:"status"`
	Model      ModelSize              `json:"model"`
	Duration   time.Duration          `json:"duration"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Engine 排班引擎，每次 Run 独立构建模型，不在多次运行之间共享状态
type Engine struct {
	config  Config
	manager *constraint.Manager
	solver  solver.Solver
	auditor *validator.Auditor
	logger  *logger.SchedulerLogger
}

// NewEngine 按配置创建引擎
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Solver == "" {
		cfg.Solver = solver.AutoName
	}
	s, err := solver.New(cfg.Solver)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "求解器配置错误")
	}
	return &Engine{
		config:  cfg,
		manager: builtin.NewDefaultManager(),
		solver:  s,
		auditor: validator.NewAuditor(nil),
		logger:  logger.NewSchedulerLogger(),
	}, nil
}

// WithSolver 替换求解器
func (e *Engine) WithSolver(s solver.Solver) *Engine {
	e.solver = s
	return e
}

// SolverName 当前求解器名称
func (e *Engine) SolverName() string {
	return e.solver.Name()
}

// Manager 约束管理器
func (e *Engine) Manager() *constraint.Manager {
	return e.manager
}

// Calendar 构建请求对应的日历
func (e *Engine) Calendar(req Request) (*calendar.Calendar, error) {
	return calendar.New(req.Start, req.End, calendar.MarkersFrom(req.Policy))
}

// BuildModel 只构建模型不求解
func (e *Engine) BuildModel(req Request) (*constraint.Builder, error) {
	cal, err := e.Calendar(req)
	if err != nil {
		return nil, err
	}
	return e.manager.Build(cal, req.Policy)
}

// Run 生成排班；失败时不返回任何部分结果
func (e *Engine) Run(ctx context.Context, req Request) (*RunResult, error) {
	start := time.Now()
	runID := uuid.New()
	rid := runID.String()

	result, err := e.run(ctx, req, runID)
	if err != nil {
		e.logger.RunFailed(rid, err)
		return nil, err
	}
	result.Duration = time.Since(start)
	e.logger.ScheduleComplete(rid, result.Duration, result.Objective)
	return result, nil
}

func (e *Engine) run(ctx context.Context, req Request, runID uuid.UUID) (*RunResult, error) {
	rid := runID.String()
	cal, err := e.Calendar(req)
	if err != nil {
		return nil, err
	}
	e.logger.StartRun(ctx, rid, cal.Len(), e.solver.Name())

	b, err := e.manager.Build(cal, req.Policy)
	if err != nil {
		return nil, err
	}
	size := ModelSize{Vars: b.Model.NumVars(), Rows: b.Model.NumRows(), Rules: e.manager.Count()}
	e.logger.ModelBuilt(rid, size.Vars, size.Rows, e.manager.Names())

	res, err := e.solve(ctx, rid, b)
	if err != nil {
		return nil, err
	}

	asg, err := Extract(b, res.Values)
	if err != nil {
		return nil, err
	}

	if conflicts := e.auditor.Audit(cal, req.Policy, asg); len(conflicts) > 0 {
		for _, c := range conflicts {
			e.logger.AuditViolation(string(c.Type), c.String())
		}
		return nil, apperrors.InvariantViolation("audit", validator.Summary(conflicts))
	}

	return &RunResult{
		RunID:      runID,
		Start:      model.FormatDate(cal.Start()),
		End:        model.FormatDate(cal.End()),
		Calendar:   cal,
		Policy:     req.Policy,
		Assignment: asg,
		Statistics: stats.ComputeWith(asg, e.config.Stats),
		Coverage:   stats.Analyze(cal, asg),
		Objective:  res.Objective,
		Solver:     solverName(res, e.solver),
		Status:     res.Status,
		Model:      size,
		CreatedAt:  time.Now(),
	}, nil
}

// solve 在时间预算内求解，只有最优解才继续
func (e *Engine) solve(ctx context.Context, rid string, b *constraint.Builder) (*solver.Result, error) {
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	res, err := e.solver.Solve(ctx, b.Model)
	if err != nil {
		if _, ok := err.(*apperrors.AppError); ok {
			return nil, err
		}
		return nil, apperrors.SolverFailure(e.solver.Name(), err)
	}
	e.logger.SolverFinished(rid, solverName(res, e.solver), string(res.Status), res.Duration, res.Objective)

	switch res.Status {
	case solver.StatusOptimal:
		return res, nil
	case solver.StatusInfeasible:
		return nil, apperrors.NoFeasibleSolution("约束模型无可行解，请调整休息配额、指定休息日或班次区间")
	default:
		return nil, apperrors.Timeout(solverName(res, e.solver), e.config.Timeout.String())
	}
}

// Audit 对已有排班表做独立审计
func (e *Engine) Audit(req Request, a *model.Assignment) ([]validator.Conflict, error) {
	if err := req.Policy.Validate(); err != nil {
		return nil, err
	}
	cal, err := e.Calendar(req)
	if err != nil {
		return nil, err
	}
	return e.auditor.Audit(cal, req.Policy, a), nil
}

// solverName 实际求解的求解器名称
func solverName(res *solver.Result, s solver.Solver) string {
	if res.Solver != "" {
		return res.Solver
	}
	return s.Name()
}
