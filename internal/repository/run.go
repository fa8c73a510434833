package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/kinmu/pkg/model"
	"github.com/paiban/kinmu/pkg/scheduler"
	"github.com/paiban/kinmu/pkg/stats"
)

// Schema 归档表结构
const Schema = `
CREATE TABLE IF NOT EXISTS schedule_runs (
	id          UUID PRIMARY KEY,
	start_date  DATE NOT NULL,
	end_date    DATE NOT NULL,
	solver      TEXT NOT NULL,
	status      TEXT NOT NULL,
	objective   DOUBLE PRECISION NOT NULL,
	vars        INTEGER NOT NULL,
	rows        INTEGER NOT NULL,
	duration_ms BIGINT NOT NULL,
	policy      JSONB NOT NULL,
	assignment  JSONB NOT NULL,
	statistics  JSONB NOT NULL,
	coverage    JSONB,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_schedule_runs_range ON schedule_runs (start_date, end_date);
`

// Run 归档的一次排班结果
type Run struct {
	ID         uuid.UUID              `json:"id"`
	StartDate  string                 `json:"start_date"`
	EndDate    string                 `json:"end_date"`
	Solver     string                 `json:"solver"`
	Status     string                 `json:"status"`
	Objective  float64                `json:"objective"`
	Vars       int                    `json:"vars"`
	Rows       int                    `json:"rows"`
	DurationMS int64                  `json:"duration_ms"`
	Policy     model.PolicyParameters `json:"policy"`
	Assignment *model.Assignment      `json:"assignment"`
	Statistics stats.Statistics       `json:"statistics"`
	Coverage   *stats.CoverageMetrics `json:"coverage,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// FromResult 由排班结果构造归档记录
func FromResult(res *scheduler.RunResult) *Run {
	return &Run{
		ID:         res.RunID,
		StartDate:  res.Start,
		EndDate:    res.End,
		Solver:     res.Solver,
		Status:     string(res.Status),
		Objective:  res.Objective,
		Vars:       res.Model.Vars,
		Rows:       res.Model.Rows,
		DurationMS: res.Duration.Milliseconds(),
		Policy:     res.Policy,
		Assignment: res.Assignment,
		Statistics: res.Statistics,
		Coverage:   res.Coverage,
		CreatedAt:  res.CreatedAt,
	}
}

// RunStore 归档存储接口
type RunStore interface {
	Create(ctx context.Context, run *Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)
	List(ctx context.Context, filter ListFilter) ([]*Run, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RunRepository 基于 PostgreSQL 的归档存储
type RunRepository struct {
	db DB
}

// NewRunRepository 创建归档仓储
func NewRunRepository(db DB) *RunRepository {
	return &RunRepository{db: db}
}

// Migrate 创建归档表
func (r *RunRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("创建归档表失败: %w", err)
	}
	return nil
}

const runColumns = `id, start_date, end_date, solver, status, objective, vars, rows,
	duration_ms, policy, assignment, statistics, coverage, created_at`

// Create 写入归档记录
func (r *RunRepository) Create(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	policy, err := json.Marshal(run.Policy)
	if err != nil {
		return fmt.Errorf("序列化排班参数失败: %w", err)
	}
	assignment, err := json.Marshal(run.Assignment)
	if err != nil {
		return fmt.Errorf("序列化排班表失败: %w", err)
	}
	statistics, err := json.Marshal(run.Statistics)
	if err != nil {
		return fmt.Errorf("序列化统计失败: %w", err)
	}
	var coverage []byte
	if run.Coverage != nil {
		if coverage, err = json.Marshal(run.Coverage); err != nil {
			return fmt.Errorf("序列化在岗统计失败: %w", err)
		}
	}

	query := `INSERT INTO schedule_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = r.db.ExecContext(ctx, query,
		run.ID, run.StartDate, run.EndDate, run.Solver, run.Status, run.Objective, run.Vars, run.Rows,
		run.DurationMS, policy, assignment, statistics, coverage, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("写入归档记录失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取归档记录
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM schedule_runs WHERE id = $1`
	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// Delete 删除归档记录
func (r *RunRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM schedule_runs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("删除归档记录失败: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// List 列出归档记录
func (r *RunRepository) List(ctx context.Context, filter ListFilter) ([]*Run, int, error) {
	where, args := buildWhere(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM schedule_runs " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计归档数量失败: %w", err)
	}

	query, args := buildListQuery(filter, where, args)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询归档列表失败: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("读取归档列表失败: %w", err)
	}
	return runs, total, nil
}

func buildWhere(filter ListFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Solver != "" {
		add("solver = $%d", filter.Solver)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.StartDate != "" {
		add("start_date >= $%d", filter.StartDate)
	}
	if filter.EndDate != "" {
		add("end_date <= $%d", filter.EndDate)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

var orderColumns = map[string]bool{
	"created_at": true, "start_date": true, "end_date": true, "objective": true, "duration_ms": true,
}

func buildListQuery(filter ListFilter, where string, args []interface{}) (string, []interface{}) {
	orderBy := filter.OrderBy
	if !orderColumns[orderBy] {
		orderBy = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(filter.OrderDir, "asc") {
		dir = "ASC"
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	n := len(args)
	query := fmt.Sprintf("SELECT %s FROM schedule_runs %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		runColumns, where, orderBy, dir, n+1, n+2)
	return query, append(args, limit, filter.Offset)
}

func scanRun(s Scanner) (*Run, error) {
	var (
		run                                  Run
		start, end                           time.Time
		policy, assignment, statistics, cov []byte
	)
	err := s.Scan(&run.ID, &start, &end, &run.Solver, &run.Status, &run.Objective, &run.Vars, &run.Rows,
		&run.DurationMS, &policy, &assignment, &statistics, &cov, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("扫描归档记录失败: %w", err)
	}
	run.StartDate = model.FormatDate(start)
	run.EndDate = model.FormatDate(end)

	run.Assignment = &model.Assignment{}
	if err := json.Unmarshal(policy, &run.Policy); err != nil {
		return nil, fmt.Errorf("解析排班参数失败: %w", err)
	}
	if err := json.Unmarshal(assignment, run.Assignment); err != nil {
		return nil, fmt.Errorf("解析排班表失败: %w", err)
	}
	if err := json.Unmarshal(statistics, &run.Statistics); err != nil {
		return nil, fmt.Errorf("解析统计失败: %w", err)
	}
	if len(cov) > 0 {
		run.Coverage = &stats.CoverageMetrics{}
		if err := json.Unmarshal(cov, run.Coverage); err != nil {
			return nil, fmt.Errorf("解析在岗统计失败: %w", err)
		}
	}
	return &run, nil
}
