package service

import (
	"time"

	"github.com/shortshare/shortshare/app/core"
	"github.com/shortshare/shortshare/app/response"
	"github.com/shortshare/shortshare/cmd/service/handler"
	"github.com/shortshare/shortshare/cmd/service/middleware"
	"github.com/shortshare/shortshare/pkg/metrics"
)

func serve(core *core.Core) {
	httpSrv := &handler.HttpSrv{
		Core:   core,
		Engine: core.HttpEngine(),
	}
	setupHttpRouter(httpSrv)

	core.HttpEngine().Run(core.Cfg().Addr)
}

func setupHttpRouter(s *handler.HttpSrv) {
	tplGlob := s.Core.Cfg().Site.TemplateGlob
	if tplGlob == "" {
		tplGlob = "./tpls/*"
	}
	s.Engine.LoadHTMLGlob(tplGlob)

	s.Engine.Use(middleware.I18n(), response.NewResponse())
	s.Engine.Use(middleware.Cors)

	s.Engine.GET("/metrics", metrics.DefaultExportHandler())

	api := s.Engine.Group("/api")
	{
		api.POST("/create", middleware.UseLimit("create", middleware.WithLimit(10), middleware.WithRange(time.Minute)), s.CreateShare)
	}

	// 短码解析放最后，避免吞掉上面的固定路由
	s.Engine.GET("/", s.Index)
	s.Engine.GET("/:code", s.ResolveShare)
	s.Engine.NoRoute(s.NotFound)
}
