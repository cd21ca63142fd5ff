package scheduler

import (
	"time"

	"github.com/zhiban/zhiban/pkg/sat"
)

// Stage 求解阶段标识
type Stage int

const (
	// StageStrict1 严格模型第一轮
	StageStrict1 Stage = iota
	// StageStrict2 严格模型第二轮（加大并行度、打乱搜索顺序）
	StageStrict2
	// StageStrict3 严格模型第三轮（关闭预处理、再换种子）
	StageStrict3
	// StageRelaxed 宽松模型：仅保留互斥与请假约束
	StageRelaxed
	// StageRelaxedRetry 宽松模型重试（仅在宽松模型超时未果时执行）
	StageRelaxedRetry
	// StageSimplified 简化模型：降低人力需求下限
	StageSimplified
)

// String 返回阶段名称
func (s Stage) String() string {
	switch s {
	case StageStrict1:
		return "strict_1"
	case StageStrict2:
		return "strict_2"
	case StageStrict3:
		return "strict_3"
	case StageRelaxed:
		return "relaxed"
	case StageRelaxedRetry:
		return "relaxed_retry"
	case StageSimplified:
		return "simplified"
	default:
		return "unknown"
	}
}

// Strict 检查阶段是否属于严格模型
func (s Stage) Strict() bool {
	return s == StageStrict1 || s == StageStrict2 || s == StageStrict3
}

// StageSpec 单个阶段的模型编译选项与求解参数
type StageSpec struct {
	Stage   Stage
	Compile CompileOptions
	Params  sat.Params
	// RetryOnly 仅在前一阶段超时未果时执行
	RetryOnly bool
}

// StagePlan 级联降级的阶段序列
type StagePlan []StageSpec

// DefaultPlan 构建默认阶段计划。base 为基准时间预算，
// 各阶段预算按基准的 1~6 倍递增；严格模型三轮依次加大
// 并行度并变换搜索策略与种子，降级模型放弃目标函数换取可行性。
func DefaultPlan(base time.Duration, workers int, seed int64) StagePlan {
	if base <= 0 {
		base = 30 * time.Second
	}
	if workers < 1 {
		workers = 1
	}
	moreWorkers := workers * 2
	maxWorkers := workers * 4

	strictCompile := CompileOptions{
		Groups:       GroupsStrict,
		Staffing:     DefaultStaffing,
		UseOverrides: true,
		Objective:    true,
	}
	relaxedCompile := CompileOptions{
		Groups: GroupsRelaxed,
	}
	simplifiedCompile := CompileOptions{
		Groups:          GroupsSimplified,
		Staffing:        LoweredStaffing,
		MinimumStaffing: true,
	}

	return StagePlan{
		{
			Stage:   StageStrict1,
			Compile: strictCompile,
			Params: sat.Params{
				TimeBudget: base,
				Workers:    workers,
				Strategy:   sat.StrategyFixed,
				Presolve:   true,
				Seed:       seed,
			},
		},
		{
			Stage:   StageStrict2,
			Compile: strictCompile,
			Params: sat.Params{
				TimeBudget: 2 * base,
				Workers:    moreWorkers,
				Strategy:   sat.StrategyShuffle,
				Presolve:   true,
				Seed:       seed + 1,
			},
		},
		{
			Stage:   StageStrict3,
			Compile: strictCompile,
			Params: sat.Params{
				TimeBudget: 3 * base,
				Workers:    maxWorkers,
				Strategy:   sat.StrategyShuffle,
				Presolve:   false,
				Seed:       seed + 2,
			},
		},
		{
			Stage:   StageRelaxed,
			Compile: relaxedCompile,
			Params: sat.Params{
				TimeBudget: 4 * base,
				Workers:    workers,
				Strategy:   sat.StrategyFixed,
				Presolve:   true,
				Seed:       seed,
			},
		},
		{
			Stage:     StageRelaxedRetry,
			Compile:   relaxedCompile,
			RetryOnly: true,
			Params: sat.Params{
				TimeBudget: 5 * base,
				Workers:    moreWorkers,
				Strategy:   sat.StrategyShuffle,
				Presolve:   true,
				Seed:       seed + 3,
			},
		},
		{
			Stage:   StageSimplified,
			Compile: simplifiedCompile,
			Params: sat.Params{
				TimeBudget: 6 * base,
				Workers:    moreWorkers,
				Strategy:   sat.StrategyShuffle,
				Presolve:   true,
				Seed:       seed + 4,
			},
		},
	}
}
