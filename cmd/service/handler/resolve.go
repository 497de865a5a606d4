package handler

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	v1 "github.com/shortshare/shortshare/app/logic/v1"
	"github.com/shortshare/shortshare/app/response"
	"github.com/shortshare/shortshare/pkg/utils"
)

// Index GET / 首页，直接回静态文件
func (s *HttpSrv) Index(c *gin.Context) {
	c.File(filepath.Join(s.staticDir(), "index.html"))
}

// ResolveShare GET /:code 短码解析入口
// 含 "." 的路径一律不当短码处理，回落到静态资源
func (s *HttpSrv) ResolveShare(c *gin.Context) {
	rawCode, _ := c.Params.Get("code")
	if strings.Contains(rawCode, ".") {
		s.serveStatic(c, rawCode)
		return
	}

	timer := s.Core.Metrics().ApiResponseTimer("resolve")
	defer timer.ObserveDuration()

	logic := v1.NewShareLogic(c.Request.Context(), s.Core)

	if c.Query("raw") == "true" {
		decision, err := logic.ResolveRaw(rawCode, c.Query("password"))
		if err != nil {
			response.PageError(c, err)
			return
		}
		s.writeBlob(c, decision, "inline")
		return
	}

	res, err := logic.Resolve(rawCode, v1.ResolveOptions{
		Password:      c.Query("password"),
		Download:      c.Query("download") == "true",
		OriginCountry: originCountry(c),
	})
	if err != nil {
		response.PageError(c, err)
		return
	}

	switch res.Outcome {
	case v1.OutcomeNotFound:
		s.serveStatic(c, rawCode)
	case v1.OutcomeStats:
		response.APISuccess(c, res.Stats)
	case v1.OutcomeNeedsPassword:
		c.HTML(http.StatusUnauthorized, "password.html", gin.H{
			"code": res.Code,
		})
	case v1.OutcomeContent:
		s.renderDecision(c, res.Code, res.Decision)
	}
}

func (s *HttpSrv) renderDecision(c *gin.Context, code string, d *v1.DispatchDecision) {
	switch d.Mode {
	case v1.ModeRedirectPage:
		c.HTML(http.StatusOK, "redirect.html", gin.H{
			"target": d.Target,
		})
	case v1.ModeMessagePage:
		c.HTML(http.StatusOK, "message.html", gin.H{
			"content": d.Content,
		})
	case v1.ModeTextPage:
		c.HTML(http.StatusOK, "text.html", gin.H{
			"filename":    d.Filename,
			"content":     d.Content,
			"downloadURL": s.shareURL(c, code, "download"),
			"oneTime":     d.OneTime,
		})
	case v1.ModeAttachment:
		s.writeBlob(c, d, utils.AttachmentDisposition(d.Filename))
	case v1.ModeInline:
		s.writeBlob(c, d, "inline")
	case v1.ModePreviewPage:
		c.HTML(http.StatusOK, "preview.html", gin.H{
			"filename":    d.Filename,
			"contentType": d.ContentType,
			"isVideo":     strings.HasPrefix(d.ContentType, "video/"),
			"isAudio":     strings.HasPrefix(d.ContentType, "audio/"),
			"isPDF":       d.ContentType == "application/pdf",
			"rawURL":      s.shareURL(c, code, "raw"),
			"downloadURL": s.shareURL(c, code, "download"),
		})
	case v1.ModeDownloadPage:
		c.HTML(http.StatusOK, "download.html", gin.H{
			"filename":    d.Filename,
			"downloadURL": s.shareURL(c, code, "download"),
		})
	}
}

func (s *HttpSrv) writeBlob(c *gin.Context, d *v1.DispatchDecision, disposition string) {
	contentType := d.ContentType
	if contentType == "" && d.Blob != nil {
		contentType = d.Blob.FileType
	}
	c.Header("Content-Disposition", disposition)
	c.Data(http.StatusOK, contentType, d.Blob.File)
}

// shareURL 二跳地址要带上密码，否则预览页内嵌取流会被门禁拦下
func (s *HttpSrv) shareURL(c *gin.Context, code, mode string) string {
	query := url.Values{}
	query.Set(mode, "true")
	if password := c.Query("password"); password != "" {
		query.Set("password", password)
	}
	return "/" + code + "?" + query.Encode()
}

func (s *HttpSrv) staticDir() string {
	if dir := s.Core.Cfg().Site.StaticDir; dir != "" {
		return dir
	}
	return "./public"
}

// serveStatic 非短码路径回落到静态目录，找不到才 404
func (s *HttpSrv) serveStatic(c *gin.Context, name string) {
	path := filepath.Join(s.staticDir(), filepath.Base(name))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		c.File(path)
		return
	}
	c.String(http.StatusNotFound, "not found")
}

// NotFound 多段路径不可能是短码，尝试静态资源
func (s *HttpSrv) NotFound(c *gin.Context) {
	s.serveStatic(c, c.Request.URL.Path)
}

func originCountry(c *gin.Context) string {
	if country := c.GetHeader("CF-IPCountry"); country != "" {
		return country
	}
	return "??"
}
