package process

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shortshare/shortshare/app/core"
	"github.com/shortshare/shortshare/pkg/safe"
	"github.com/shortshare/shortshare/pkg/types"
)

// Process 后台清扫进程，主路径依然是解析时的惰性过期，清扫只是补充回收对象存储
type Process struct {
	cron *cron.Cron
	core *core.Core
}

func NewProcess(core *core.Core) *Process {
	return &Process{
		cron: cron.New(),
		core: core,
	}
}

// Start 未配置 cron_spec 时不做任何事
func (p *Process) Start() {
	spec := p.core.Cfg().Reaper.CronSpec
	if spec == "" {
		return
	}

	if _, err := p.cron.AddFunc(spec, func() {
		safe.Run(func() {
			p.sweepExpired()
		})
	}); err != nil {
		slog.Error("failed to register reaper cron", slog.String("spec", spec), slog.String("error", err.Error()))
		return
	}

	p.cron.Start()
	slog.Info("expiry reaper started", slog.String("spec", spec))
}

func (p *Process) Stop() {
	p.cron.Stop()
}

func (p *Process) sweepExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	codes, err := p.core.Store().ListCodes(ctx)
	if err != nil {
		slog.Error("reaper list codes failed", slog.String("error", err.Error()))
		return
	}

	now := time.Now()
	var removed int
	for _, code := range codes {
		item, err := p.core.Store().Get(ctx, code)
		if err != nil {
			slog.Error("reaper get failed", slog.String("code", code), slog.String("error", err.Error()))
			continue
		}
		if item == nil || !item.Expired(now) {
			continue
		}

		if _, err = p.core.Store().Delete(ctx, code); err != nil {
			slog.Error("reaper delete record failed", slog.String("code", code), slog.String("error", err.Error()))
			continue
		}
		if item.Kind == types.KindFile {
			if err = p.core.FileStorage().DeleteFile(ctx, code); err != nil {
				slog.Error("reaper delete blob failed", slog.String("code", code), slog.String("error", err.Error()))
				continue
			}
		}
		removed++
	}

	if removed > 0 {
		slog.Info("expiry reaper finished", slog.Int("removed", removed))
	}
}
