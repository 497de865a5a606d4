package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	v1 "github.com/shortshare/shortshare/app/logic/v1"
	"github.com/shortshare/shortshare/app/response"
	"github.com/shortshare/shortshare/cmd/service/middleware"
	"github.com/shortshare/shortshare/pkg/errors"
	"github.com/shortshare/shortshare/pkg/i18n"
)

type CreateShareResponse struct {
	ShortURL string `json:"shortUrl"`
}

// CreateShare POST /api/create，multipart 表单
func (s *HttpSrv) CreateShare(c *gin.Context) {
	timer := s.Core.Metrics().ApiResponseTimer("create")
	defer timer.ObserveDuration()

	args := v1.CreateShareArgs{
		Kind:           c.PostForm("type"),
		CustomCode:     c.PostForm("customCode"),
		Password:       c.PostForm("password"),
		OneTime:        c.PostForm("oneTime") == "true",
		Expiry:         c.PostForm("expiry"),
		Target:         c.PostForm("target"),
		Content:        c.PostForm("content"),
		IsAdmin:        s.isAdmin(c),
		TurnstileToken: c.PostForm("cf-turnstile-response"),
		ClientIP:       c.ClientIP(),
	}

	if args.Kind == "file" {
		file, err := s.readFilePayload(c)
		if err != nil {
			s.Core.Metrics().ApiErrorInc(c.Request.Method, "create", http.StatusBadRequest)
			response.APIError(c, err)
			return
		}
		args.File = file
	}

	code, err := v1.NewShareLogic(c.Request.Context(), s.Core).CreateShare(args)
	if err != nil {
		status := http.StatusInternalServerError
		if ce, ok := err.(*errors.CustomizedError); ok {
			status = ce.GetCode()
		}
		s.Core.Metrics().ApiErrorInc(c.Request.Method, "create", status)
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, CreateShareResponse{
		ShortURL: strings.TrimSuffix(s.Core.Cfg().Site.AppURL, "/") + "/" + code,
	})
}

func (s *HttpSrv) isAdmin(c *gin.Context) bool {
	secret := s.Core.Cfg().Site.AdminSecret
	return secret != "" && c.GetHeader(middleware.ADMIN_SECRET_HEADER_KEY) == secret
}

func (s *HttpSrv) readFilePayload(c *gin.Context) (*v1.FilePayload, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, errors.New("api.CreateShare.FormFile", i18n.ERROR_EMPTY_FILE, err).Code(http.StatusBadRequest)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, errors.New("api.CreateShare.file.Open", i18n.ERROR_INTERNAL, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.New("api.CreateShare.file.ReadAll", i18n.ERROR_INTERNAL, err)
	}

	return &v1.FilePayload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}
