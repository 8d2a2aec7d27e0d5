package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：调用方可修正的错误（入参、认证、资源缺失、域失败）
// - 5xxx：系统错误（依赖配置缺失或内部异常）
const (
	OK            = 0
	Validation    = 4000
	Unauthorized  = 4010
	Forbidden     = 4030
	NotFound      = 4040
	Conflict      = 4090
	DomainFailure = 4220
	RateLimited   = 4290
	SystemError   = 5000
	Misconfigured = 5001
)
