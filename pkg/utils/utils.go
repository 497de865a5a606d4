package utils

import (
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/holdno/snowFlakeByGo"

	"github.com/shortshare/shortshare/pkg/errors"
	"github.com/shortshare/shortshare/pkg/i18n"
)

var (
	// IdWorker 全局唯一id生成器实例
	idWorker *snowFlakeByGo.Worker
)

func SetupIDWorker(clusterID int64) {
	idWorker, _ = snowFlakeByGo.NewWorker(clusterID)
}

func GenUniqID() int64 {
	return idWorker.GetId()
}

func GenUniqIDStr() string {
	return strconv.FormatInt(GenUniqID(), 10)
}

// ShortCodeAlphabet 短码字符集，去掉了 0/O、1/l/I 等易混淆字符
const ShortCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz"

// ShortCodeLength 短码固定长度
const ShortCodeLength = 6

// GenShortCodeCandidate 生成一个候选短码，唯一性检查由调用方完成
func GenShortCodeCandidate() string {
	var b strings.Builder
	for i := 0; i < ShortCodeLength; i++ {
		b.WriteByte(ShortCodeAlphabet[rand.Intn(len(ShortCodeAlphabet))])
	}
	return b.String()
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeCustomCode 去掉首尾空白，内部空白折叠为单个 "-"
func NormalizeCustomCode(code string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(code), "-")
}

// CompleteURL 为缺少 scheme 的地址补全 https://，并校验补全后的结果
func CompleteURL(raw string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(raw), "http://") && !strings.HasPrefix(strings.ToLower(raw), "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	return raw, nil
}

// AttachmentDisposition 按 RFC 5987 编码附件文件名
func AttachmentDisposition(filename string) string {
	if filename == "" {
		filename = "file"
	}
	return fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename))
}

func BindArgsWithGin(c *gin.Context, req interface{}) error {
	err := c.ShouldBindWith(req, binding.Default(c.Request.Method, c.ContentType()))
	if err != nil {
		return errors.New(fmt.Sprintf("Gin.ShouldBindWith.%s.%s", c.Request.Method, c.Request.URL.Path), i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest)
	}
	return nil
}
