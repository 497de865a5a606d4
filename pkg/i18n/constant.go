package i18n

var ALLOW_LANG = map[string]bool{
	"en":    true,
	"zh-CN": true,
}

const DEFAULT_LANG = "en"

const (
	ERROR_INTERNAL          = "error.internal"
	ERROR_NOT_FOUND         = "error.notfound"
	ERROR_INVALIDARGUMENT   = "error.invalidargument"
	ERROR_UNAUTHORIZED      = "error.unauthorized"
	ERROR_FORBIDDEN         = "error.forbidden"
	ERROR_TOO_MANY_REQUESTS = "error.tooManyRequests"

	ERROR_VERIFICATION_FAILED = "error.verification.failed"
	ERROR_CODE_IN_USE         = "error.code.in.use"
	ERROR_CODE_EXHAUSTED      = "error.code.exhausted"
	ERROR_SHARE_EXPIRED       = "error.share.expired"
	ERROR_FILE_NOT_FOUND      = "error.file.notfound"
	ERROR_EMPTY_TARGET        = "error.share.empty.target"
	ERROR_INVALID_TARGET      = "error.share.invalid.target"
	ERROR_EMPTY_CONTENT       = "error.share.empty.content"
	ERROR_EMPTY_FILE          = "error.share.empty.file"
	ERROR_INVALID_SHARE_TYPE  = "error.share.invalid.type"
	ERROR_PASSWORD_REQUIRED   = "error.share.password.required"
)
