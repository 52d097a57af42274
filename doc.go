// Package crossell 是一个交叉销售推荐引擎。
//
// 离线侧把订单历史聚合为用户 x 商品交互矩阵并做截断 SVD 分解，
// 同时计算带时间衰减的全局流行度；在线侧把相似度个性化分与
// 流行度按 0.7/0.3 融合，按 (评分, 融合分) 排序后做类目多样性
// 约束，返回 TopN 商品。
//
// 设计要点：
// - Pipeline-first: 在线逻辑通过 Node 串联（Recall → Filter → Rank → ReRank）
// - 快照不可变: 六件训练产物整体加载、整体原子替换，服务期只读
// - Labels-first: labels 全链路透传，支持 explain / 观测 / 规则驱动
package crossell

import "github.com/rushteam/crossell/pipeline"

// 轻量 facade：便于用户直接 import "crossell" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
