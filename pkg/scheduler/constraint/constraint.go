// Package constraint 定义约束接口、模型构建器和管理器
package constraint

// Type 约束类型标识
type Type string

const (
	// 每日结构
	TypeOneShiftPerDay  Type = "one_shift_per_day"
	TypeDailyCoverage   Type = "daily_coverage"
	TypeLateTypeByDay   Type = "late_type_by_day"
	TypeSupportRotation Type = "support_rotation"
	TypeCheerDay        Type = "cheer_day"
	TypeCampaignDay     Type = "campaign_day"

	// 个人配额与序列
	TypeRestQuota          Type = "rest_quota"
	TypeMandatoryOff       Type = "mandatory_off"
	TypeMaxConsecutiveWork Type = "max_consecutive_work"
	TypeMaxConsecutiveRest Type = "max_consecutive_rest"
	TypeShiftMixing        Type = "shift_mixing"
	TypeIsolatedWorkday    Type = "isolated_workday"
	TypeShiftBalance       Type = "shift_balance"

	// 目标
	TypePriorityCoverage Type = "priority_coverage"
)

// Category 约束类别
type Category string

const (
	CategoryHard      Category = "hard"      // 硬约束（必须满足）
	CategoryObjective Category = "objective" // 目标项
)

// Constraint 约束接口
type Constraint interface {
	// Name 返回约束名称
	Name() string

	// Type 返回约束类型
	Type() Type

	// Category 返回约束类别
	Category() Category

	// Weight 返回构建顺序权重，越大越先写入模型
	Weight() int

	// Apply 把规则写成模型中的变量与约束行
	Apply(b *Builder) error
}
