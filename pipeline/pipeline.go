package pipeline

import (
	"context"

	"github.com/rushteam/crossell/core"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链，依次执行。
// 任一 Node 出错即中断整条链路，错误原样上抛。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
