package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/crossell/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	if celEnv == nil && err == nil {
		err = fmt.Errorf("cel env not initialized")
	}
	return celEnv, err
}

// Program 是一条编译后的 CEL 规则表达式，可跨请求复用、线程安全。
//
// 表达式语法（CEL 标准语法）：
//   - 属性：item.rating >= 3.0 / item.category != "Libros"
//   - 标签：label.recall_source == "latent"
//   - 逻辑：item.rating > 2.0 && item.score > 0.1
//
// 示例：
//   - `item.category != "Electrónica"` → 剔除某类目
//   - `item.rating >= 2.0` → 剔除低评分商品
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译规则表达式；表达式非法时立即报错，而不是留到请求期。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, err
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// Eval 对单个候选求值，返回布尔结果。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据。
// label.key 直接取 Label 的 Value，方便写 label.recall_source == "latent"。
func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(it.Labels))
	for k, v := range it.Labels {
		labels[k] = v.Value
	}

	item := map[string]any{
		"id":       it.ID,
		"score":    it.Score,
		"rating":   it.Rating,
		"category": it.Category,
		"features": it.Features,
		"meta":     it.Meta,
	}

	rctxMap := map[string]any{}
	if rctx != nil {
		rctxMap = map[string]any{
			"user_index":       rctx.UserIndex,
			"n":                rctx.N,
			"max_per_category": rctx.MaxPerCategory,
			"params":           rctx.Params,
		}
	}

	return map[string]any{
		"item":  item,
		"label": labels,
		"rctx":  rctxMap,
	}
}
