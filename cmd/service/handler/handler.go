package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/shortshare/shortshare/app/core"
)

type HttpSrv struct {
	Core   *core.Core
	Engine *gin.Engine
}
