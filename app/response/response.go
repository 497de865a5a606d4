package response

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shortshare/shortshare/pkg/errors"
	"github.com/shortshare/shortshare/pkg/i18n"
	"github.com/shortshare/shortshare/pkg/utils"
)

func ProvideResponseLocalizer(l i18n.Localizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("i18n", l)
	}
}

func InjectResponseLocalizer(c *gin.Context) i18n.Localizer {
	return c.MustGet("i18n").(i18n.Localizer)
}

// 常量定义
const (
	RequestIDKey = "request_id"
)

// ErrorBody 创建接口的失败响应体
type ErrorBody struct {
	Error string `json:"error"`
}

func GetLangFromRequestOrDefault(c *gin.Context) string {
	lang := c.Request.Header.Get("Accept-Language")
	if lang == "zh" {
		lang = "zh-CN"
	}
	if i18n.ALLOW_LANG[lang] {
		return lang
	}
	return i18n.DEFAULT_LANG
}

// LocalizedMessage 取错误对应的本地化文案，非业务错误统一落到内部错误
func LocalizedMessage(c *gin.Context, err error) (int, string) {
	l := InjectResponseLocalizer(c)
	lang := GetLangFromRequestOrDefault(c)

	cerrptr, ok := err.(*errors.CustomizedError)
	if !ok {
		return http.StatusInternalServerError, l.Get(lang, i18n.ERROR_INTERNAL)
	}
	return cerrptr.GetCode(), l.Get(lang, cerrptr.Message())
}

// APIError api响应失败，JSON {"error": "..."}
func APIError(c *gin.Context, err error) {
	c.Abort()

	httpStatus, message := LocalizedMessage(c, err)
	c.JSON(httpStatus, ErrorBody{Error: message})
	printErrorLog(c, httpStatus, err)
}

// PageError 解析路径的失败响应，纯文本而非 JSON
func PageError(c *gin.Context, err error) {
	c.Abort()

	httpStatus, message := LocalizedMessage(c, err)
	c.String(httpStatus, message)
	printErrorLog(c, httpStatus, err)
}

func printErrorLog(c *gin.Context, status int, err error) {
	endTime := time.Now().Unix()
	// 统一打印日志
	var logFields = map[string]any{
		"request_uri": c.Request.URL.Path,
		"end_time":    endTime,
		"code":        status,
		"error":       err.Error(),
		"request_id":  c.GetString(RequestIDKey),
	}

	slog.Error("response error", slog.Any("fields", logFields))
}

func printSuccessLog(c *gin.Context) {
	endTime := time.Now().Unix()
	// 统一打印日志
	var logFields = map[string]any{
		"request_uri": c.Request.URL.Path,
		"end_time":    endTime,
		"request_id":  c.GetString(RequestIDKey),
	}

	if c.Request.Method == "POST" {
		logFields["params"] = c.Request.PostForm.Encode()
	} else {
		logFields["params"] = c.Request.URL.Query().Encode()
	}

	slog.Info("request success", slog.Any("fields", logFields))
}

// APISuccess api响应成功，直接输出业务载荷
func APISuccess(c *gin.Context, response interface{}) {
	c.Abort()
	if response == nil {
		response = gin.H{}
	}
	c.JSON(http.StatusOK, response)
	printSuccessLog(c)
}

// NewResponse 为每个请求注入 request id
func NewResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(RequestIDKey, utils.GenUniqIDStr())
	}
}
