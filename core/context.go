package core

import "github.com/rushteam/crossell/pkg/utils"

// RecommendContext 承载单次推荐请求的信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	// UserIndex 是交互矩阵的行下标（训练时按客户 ID 排序确定，服务期不变）
	UserIndex int

	// N 期望返回的推荐数量
	N int

	// MaxPerCategory 单个类目在结果中允许出现的最大次数
	MaxPerCategory int

	// Labels 是请求级标签，可驱动 Pipeline 行为（如灰度、解释）
	Labels map[string]utils.Label

	// Params 请求级上下文参数（设备、场景等，供规则过滤表达式使用）
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
