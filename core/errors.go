package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 训练、快照、服务各层的领域错误都使用此类型
//   - 提供错误代码（Code）和消息（Message），消息可直接透出到请求边界
//   - 支持错误检查函数（IsXXX），兼容 fmt.Errorf("%w") 包装
type DomainError struct {
	Code    string // 错误代码（如 "UNKNOWN_USER", "MISSING_ARTIFACT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "dataset", "model", "snapshot"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// GetDomainError 获取 DomainError；支持解开 %w 包装链，不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// 错误代码常量
const (
	// ErrorCodeUnknownUser 用户 ID 不在交互矩阵的行范围内（请求边界可恢复）
	ErrorCodeUnknownUser = "UNKNOWN_USER"
	// ErrorCodeDataInsufficient 训练输入退化：订单为空，无法构建交互矩阵
	ErrorCodeDataInsufficient = "DATA_INSUFFICIENT"
	// ErrorCodeInsufficientRank 分解秩 k <= 0：用户或商品少于 2 个
	ErrorCodeInsufficientRank = "INSUFFICIENT_RANK"
	// ErrorCodeMissingArtifact 必需的持久化产物缺失或损坏（服务启动致命）
	ErrorCodeMissingArtifact = "MISSING_ARTIFACT"
	// ErrorCodeInvalidInput 调用方契约违反（如 n < 1）
	ErrorCodeInvalidInput = "INVALID_INPUT"
	// ErrorCodeNotFound 资源不存在
	ErrorCodeNotFound = "NOT_FOUND"
	// ErrorCodeNotSupported 操作不支持
	ErrorCodeNotSupported = "NOT_SUPPORTED"
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 存储模块
	ModuleDataset   = "dataset"   // 数据集模块（交互矩阵/流行度）
	ModuleModel     = "model"     // 模型模块（矩阵分解）
	ModuleSnapshot  = "snapshot"  // 产物快照模块
	ModuleRecommend = "recommend" // 推荐服务模块
)

func codeIs(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsUnknownUser 检查错误是否为 UNKNOWN_USER
func IsUnknownUser(err error) bool { return codeIs(err, ErrorCodeUnknownUser) }

// IsDataInsufficient 检查错误是否为 DATA_INSUFFICIENT
func IsDataInsufficient(err error) bool { return codeIs(err, ErrorCodeDataInsufficient) }

// IsInsufficientRank 检查错误是否为 INSUFFICIENT_RANK
func IsInsufficientRank(err error) bool { return codeIs(err, ErrorCodeInsufficientRank) }

// IsMissingArtifact 检查错误是否为 MISSING_ARTIFACT
func IsMissingArtifact(err error) bool { return codeIs(err, ErrorCodeMissingArtifact) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return codeIs(err, ErrorCodeInvalidInput) }

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return codeIs(err, ErrorCodeNotFound) }
