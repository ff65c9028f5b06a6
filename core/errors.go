package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型，调用方（API 层）根据 Code 决定 HTTP 状态码映射
//   - 携带 UserID / ItemID / Action 等结构化上下文，便于调用方重试或上报
//   - 通过 errors.Is 匹配 Module + Code，附带上下文的实例与哨兵错误等价
//
// 使用场景：
//   - Interaction 错误：INVALID_ACTION, ITEM_NOT_FOUND, DUPLICATE
//   - Catalog 错误：UNAVAILABLE
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
type DomainError struct {
	Code    string // 错误代码（如 "INVALID_ACTION", "UNAVAILABLE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "interaction", "catalog", "store"）

	UserID string
	ItemID string
	Action string

	// Err 是底层原因（可选）
	Err error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is 只比较 Module 与 Code，使 errors.Is(err, ErrInvalidAction) 对带上下文的实例同样成立。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// With 复制一份错误并附加上下文。
func (e *DomainError) With(userID, itemID, action string) *DomainError {
	cp := *e
	cp.UserID = userID
	cp.ItemID = itemID
	cp.Action = action
	return &cp
}

// Wrap 复制一份错误并附加底层原因。
func (e *DomainError) Wrap(err error) *DomainError {
	cp := *e
	cp.Err = err
	return &cp
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// GetDomainError 沿错误链查找 DomainError，找不到返回 nil
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// IsDomainError 检查错误链中是否包含 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInvalidAction = "INVALID_ACTION" // 未知的交互动作
	ErrorCodeDuplicate     = "DUPLICATE"      // 幂等键重复
)

// 模块名称常量
const (
	ModuleStore       = "store"
	ModuleInteraction = "interaction"
	ModuleCatalog     = "catalog"
	ModuleSocial      = "social"
	ModuleFeed        = "feed"
	ModuleFilter      = "filter"
)

var (
	// ErrInvalidAction 表示交互动作不在 like/pass/save 之内，直接拒绝，不做猜测
	ErrInvalidAction = NewDomainError(ModuleInteraction, ErrorCodeInvalidAction, "interaction: invalid action")

	// ErrItemNotFound 表示引用的物品不存在或已下架
	ErrItemNotFound = NewDomainError(ModuleInteraction, ErrorCodeNotFound, "interaction: item not found")

	// ErrDuplicateInteraction 表示相同幂等键（user+item+timestamp）的事件已写入
	ErrDuplicateInteraction = NewDomainError(ModuleInteraction, ErrorCodeDuplicate, "interaction: duplicate event")

	// ErrCatalogUnavailable 表示候选源不可用，整个 feed 请求失败，绝不降级为空页
	ErrCatalogUnavailable = NewDomainError(ModuleCatalog, ErrorCodeUnavailable, "catalog: candidate source unavailable")

	// ErrInvalidFilter 表示 feed 过滤条件非法（例如 CEL 表达式编译失败、价格区间颠倒）
	ErrInvalidFilter = NewDomainError(ModuleFeed, ErrorCodeInvalidInput, "feed: invalid filter")

	// ErrInvalidRequest 表示请求缺少必填字段（例如用户 ID）
	ErrInvalidRequest = NewDomainError(ModuleFeed, ErrorCodeInvalidInput, "feed: invalid request")

	// ErrBlacklistUnavailable 表示黑名单读取失败且没有可用的缓存。
	// 黑名单是运营下架手段，读不到时整页失败，不会放出被拉黑的物品
	ErrBlacklistUnavailable = NewDomainError(ModuleFilter, ErrorCodeUnavailable, "filter: blacklist unavailable")

	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")
)

func hasCode(err error, module, code string) bool {
	domainErr := GetDomainError(err)
	if domainErr == nil {
		return false
	}
	return domainErr.Module == module && domainErr.Code == code
}

// IsInvalidAction 检查错误是否为 INVALID_ACTION
func IsInvalidAction(err error) bool {
	return hasCode(err, ModuleInteraction, ErrorCodeInvalidAction)
}

// IsItemNotFound 检查错误是否为物品不存在
func IsItemNotFound(err error) bool {
	return hasCode(err, ModuleInteraction, ErrorCodeNotFound)
}

// IsDuplicateInteraction 检查错误是否为重复事件
func IsDuplicateInteraction(err error) bool {
	return hasCode(err, ModuleInteraction, ErrorCodeDuplicate)
}

// IsCatalogUnavailable 检查错误是否为候选源不可用
func IsCatalogUnavailable(err error) bool {
	return hasCode(err, ModuleCatalog, ErrorCodeUnavailable)
}

// IsBlacklistUnavailable 检查错误是否为黑名单不可用
func IsBlacklistUnavailable(err error) bool {
	return hasCode(err, ModuleFilter, ErrorCodeUnavailable)
}

// IsStoreNotFound 检查错误是否为 key 不存在
func IsStoreNotFound(err error) bool {
	return hasCode(err, ModuleStore, ErrorCodeNotFound)
}

// IsStoreNotSupported 检查错误是否为操作不支持
func IsStoreNotSupported(err error) bool {
	return hasCode(err, ModuleStore, ErrorCodeNotSupported)
}

// IsInvalidInput 检查错误是否为输入无效（不区分模块）
func IsInvalidInput(err error) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Code == ErrorCodeInvalidInput
}
