package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/shortshare/shortshare/pkg/errors"
	"github.com/shortshare/shortshare/pkg/i18n"
	"github.com/shortshare/shortshare/pkg/types"
)

// StatsSuffix 短码带该后缀时为只读统计请求，不消费记录
const StatsSuffix = "+"

type ResolutionOutcome int

const (
	// OutcomeNotFound 短码不存在，调用方回落到静态资源而不是直接 404
	OutcomeNotFound ResolutionOutcome = iota + 1
	// OutcomeStats 只读统计快照
	OutcomeStats
	// OutcomeNeedsPassword 密码不匹配，渲染输入页，无任何状态变更
	OutcomeNeedsPassword
	// OutcomeContent 完成一次消费，Decision 描述如何渲染
	OutcomeContent
)

type Resolution struct {
	Outcome  ResolutionOutcome
	Code     string
	Stats    *types.ShareStats
	Decision *DispatchDecision
}

type ResolveOptions struct {
	Password      string
	Download      bool
	OriginCountry string
}

// Resolve 短码解析状态机
func (l *ShareLogic) Resolve(rawCode string, opts ResolveOptions) (*Resolution, error) {
	code := strings.TrimSuffix(rawCode, StatsSuffix)
	isStats := code != rawCode

	item, err := l.core.Store().Get(l.ctx, code)
	if err != nil {
		return nil, errors.New("ShareLogic.Resolve.Get", i18n.ERROR_INTERNAL, err)
	}
	if item == nil {
		return &Resolution{Outcome: OutcomeNotFound, Code: code}, nil
	}

	if isStats {
		stats := item.Stats()
		l.core.Metrics().ShareResolvedInc(string(item.Kind), "stats")
		return &Resolution{Outcome: OutcomeStats, Code: code, Stats: &stats}, nil
	}

	if !passwordMatches(item, opts.Password) {
		l.core.Metrics().ShareResolvedInc(string(item.Kind), "gated")
		return &Resolution{Outcome: OutcomeNeedsPassword, Code: code}, nil
	}

	now := time.Now()
	if item.Expired(now) {
		if err = l.purge(code, item); err != nil {
			return nil, errors.Trace("ShareLogic.Resolve", err)
		}
		l.core.Metrics().ShareResolvedInc(string(item.Kind), "expired")
		return nil, errors.New("ShareLogic.Resolve.expired", i18n.ERROR_SHARE_EXPIRED, nil).Code(http.StatusGone)
	}

	item.RecordView(now, opts.OriginCountry)
	if item.OneTime {
		return l.consumeOneTime(code, item, opts)
	}

	if err = l.core.Store().Update(l.ctx, code, item); err != nil {
		return nil, errors.New("ShareLogic.Resolve.Update", i18n.ERROR_INTERNAL, err)
	}

	decision, err := l.dispatch(code, item, opts.Download)
	if err != nil {
		return nil, errors.Trace("ShareLogic.Resolve", err)
	}

	l.core.Metrics().ShareResolvedInc(string(item.Kind), "consumed")
	return &Resolution{Outcome: OutcomeContent, Code: code, Decision: decision}, nil
}

// consumeOneTime 先原子地摘掉记录再投递内容：删除数是消费凭证，并发消费只有
// 一个赢家继续，输家按未命中处理。对象在内容装入内存后才删除，保证首个访问
// 拿到完整内容
func (l *ShareLogic) consumeOneTime(code string, item *types.ShareItem, opts ResolveOptions) (*Resolution, error) {
	removed, err := l.core.Store().Delete(l.ctx, code)
	if err != nil {
		return nil, errors.New("ShareLogic.consumeOneTime.Delete", i18n.ERROR_INTERNAL, err)
	}
	if !removed {
		return &Resolution{Outcome: OutcomeNotFound, Code: code}, nil
	}

	decision, err := l.dispatch(code, item, opts.Download)
	if err != nil {
		return nil, errors.Trace("ShareLogic.consumeOneTime", err)
	}

	if item.Kind == types.KindFile {
		if err = l.core.FileStorage().DeleteFile(l.ctx, code); err != nil {
			return nil, errors.New("ShareLogic.consumeOneTime.DeleteFile", i18n.ERROR_INTERNAL, err)
		}
	}

	l.core.Metrics().ShareResolvedInc(string(item.Kind), "consumed")
	return &Resolution{Outcome: OutcomeContent, Code: code, Decision: decision}, nil
}

// ResolveRaw 预览页内嵌媒体的二次取流，不计入访问也不消费一次性记录
func (l *ShareLogic) ResolveRaw(code, password string) (*DispatchDecision, error) {
	item, err := l.core.Store().Get(l.ctx, code)
	if err != nil {
		return nil, errors.New("ShareLogic.ResolveRaw.Get", i18n.ERROR_INTERNAL, err)
	}
	if item == nil || item.Kind != types.KindFile {
		return nil, errors.New("ShareLogic.ResolveRaw.notfound", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}
	if !passwordMatches(item, password) {
		return nil, errors.New("ShareLogic.ResolveRaw.password", i18n.ERROR_PASSWORD_REQUIRED, nil).Code(http.StatusUnauthorized)
	}
	if item.Expired(time.Now()) {
		if err = l.purge(code, item); err != nil {
			return nil, errors.Trace("ShareLogic.ResolveRaw", err)
		}
		return nil, errors.New("ShareLogic.ResolveRaw.expired", i18n.ERROR_SHARE_EXPIRED, nil).Code(http.StatusGone)
	}

	blob, err := l.fetchBlob(code)
	if err != nil {
		return nil, errors.Trace("ShareLogic.ResolveRaw", err)
	}
	return &DispatchDecision{
		Mode:        ModeInline,
		Filename:    item.Filename,
		ContentType: item.ContentType,
		Blob:        blob,
	}, nil
}

// passwordMatches 明文比较，后续换散列策略只改这里
func passwordMatches(item *types.ShareItem, supplied string) bool {
	if !item.HasPassword() {
		return true
	}
	return supplied == item.Password
}

// purge 记录与对象一起删除，二者的删除都必须是幂等的
func (l *ShareLogic) purge(code string, item *types.ShareItem) error {
	if _, err := l.core.Store().Delete(l.ctx, code); err != nil {
		return errors.New("ShareLogic.purge.Delete", i18n.ERROR_INTERNAL, err)
	}
	if item.Kind == types.KindFile {
		if err := l.core.FileStorage().DeleteFile(l.ctx, code); err != nil {
			return errors.New("ShareLogic.purge.DeleteFile", i18n.ERROR_INTERNAL, err)
		}
	}
	return nil
}

// fetchBlob 记录存在但对象丢失时删除孤儿记录并报 404，保持两边一致
func (l *ShareLogic) fetchBlob(code string) (*types.GetObjectResult, error) {
	blob, err := l.core.FileStorage().DownloadFile(l.ctx, code)
	if err != nil {
		return nil, errors.New("ShareLogic.fetchBlob.DownloadFile", i18n.ERROR_INTERNAL, err)
	}
	if blob == nil {
		if _, err = l.core.Store().Delete(l.ctx, code); err != nil {
			return nil, errors.New("ShareLogic.fetchBlob.Delete", i18n.ERROR_INTERNAL, err)
		}
		return nil, errors.New("ShareLogic.fetchBlob.missing", i18n.ERROR_FILE_NOT_FOUND, nil).Code(http.StatusNotFound)
	}
	return blob, nil
}
