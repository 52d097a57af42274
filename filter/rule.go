package filter

import (
	"context"

	"github.com/rushteam/crossell/core"
	"github.com/rushteam/crossell/pkg/dsl"
)

// RuleFilter 是规则驱动的过滤器：表达式命中（求值为 true）的候选被保留，
// 未命中的被剔除。表达式为空时不过滤任何候选。
//
// 用于运营侧的橱窗规则，例如：
//   - `item.rating >= 2.0` 只保留评分达标的商品
//   - `item.category != "Libros"` 某场景下屏蔽整个类目
type RuleFilter struct {
	prg *dsl.Program
}

// NewRuleFilter 编译表达式并创建过滤器；表达式非法时在构造期报错。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	if expr == "" {
		return &RuleFilter{}, nil
	}
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &RuleFilter{prg: prg}, nil
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.prg == nil {
		return false, nil
	}

	keep, err := f.prg.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}

var _ Filter = (*RuleFilter)(nil)
