package v1

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/shortshare/shortshare/app/core"
	"github.com/shortshare/shortshare/pkg/errors"
	"github.com/shortshare/shortshare/pkg/i18n"
	"github.com/shortshare/shortshare/pkg/types"
	"github.com/shortshare/shortshare/pkg/utils"
)

// GenerateMaxAttempts 随机短码生成的重试上限，超过即认为存储异常或命名空间饱和
const GenerateMaxAttempts = 10

// AnonymousFileTTL 匿名上传文件的最长有效期
const AnonymousFileTTL = 24 * time.Hour

type ShareLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewShareLogic(ctx context.Context, core *core.Core) *ShareLogic {
	return &ShareLogic{
		ctx:  ctx,
		core: core,
	}
}

// FilePayload 上传的文件载荷
type FilePayload struct {
	Filename    string
	ContentType string
	Content     []byte
}

type CreateShareArgs struct {
	Kind       string
	CustomCode string
	Password   string
	OneTime    bool
	Expiry     string // "never" 或 "<N>d"
	Target     string
	Content    string
	File       *FilePayload

	IsAdmin        bool
	TurnstileToken string
	ClientIP       string
}

// CreateShare 创建分享记录并返回短码
// 文件对象先于记录写入，记录永远不会指向一个不存在的对象
func (l *ShareLogic) CreateShare(args CreateShareArgs) (string, error) {
	if err := l.authorizeCreation(args.IsAdmin, args.TurnstileToken, args.ClientIP); err != nil {
		return "", errors.Trace("ShareLogic.CreateShare", err)
	}

	now := time.Now()

	item, err := l.buildItem(args, now)
	if err != nil {
		return "", errors.Trace("ShareLogic.CreateShare", err)
	}

	expiry, err := parseExpiry(args.Expiry)
	if err != nil {
		return "", errors.Trace("ShareLogic.CreateShare", err)
	}
	if item.Kind == types.KindFile && !args.IsAdmin {
		// 匿名文件上限 24h，取用户选择与上限中较小者
		expiry = lo.ToPtr(lo.Min([]time.Duration{lo.FromPtrOr(expiry, AnonymousFileTTL), AnonymousFileTTL}))
	}
	if expiry != nil {
		item.ExpiresAt = lo.ToPtr(now.Add(*expiry))
	}

	item.Password = args.Password
	item.OneTime = args.OneTime

	customCode := utils.NormalizeCustomCode(args.CustomCode)
	if customCode != "" {
		if err = l.claimCustomCode(customCode, args.File, item, now); err != nil {
			return "", errors.Trace("ShareLogic.CreateShare", err)
		}
		l.core.Metrics().ShareCreatedInc(string(item.Kind))
		return customCode, nil
	}

	code, err := l.claimGeneratedCode(args.File, item, now)
	if err != nil {
		return "", errors.Trace("ShareLogic.CreateShare", err)
	}
	l.core.Metrics().ShareCreatedInc(string(item.Kind))
	return code, nil
}

// authorizeCreation 管理员跳过人机验证，其余创建者必须携带有效 token
func (l *ShareLogic) authorizeCreation(isAdmin bool, token, ip string) error {
	if isAdmin {
		return nil
	}
	if token == "" {
		return errors.New("ShareLogic.authorizeCreation.empty_token", i18n.ERROR_VERIFICATION_FAILED, nil).Code(http.StatusForbidden)
	}
	ok, err := l.core.Verifier().Verify(l.ctx, token, ip)
	if err != nil {
		return errors.New("ShareLogic.authorizeCreation.Verify", i18n.ERROR_VERIFICATION_FAILED, err).Code(http.StatusForbidden)
	}
	if !ok {
		return errors.New("ShareLogic.authorizeCreation.rejected", i18n.ERROR_VERIFICATION_FAILED, nil).Code(http.StatusForbidden)
	}
	return nil
}

func (l *ShareLogic) buildItem(args CreateShareArgs, now time.Time) (*types.ShareItem, error) {
	switch types.ShareKind(args.Kind) {
	case types.KindLink:
		if args.Target == "" {
			return nil, errors.New("ShareLogic.buildItem.empty_target", i18n.ERROR_EMPTY_TARGET, nil).Code(http.StatusBadRequest)
		}
		target, err := utils.CompleteURL(args.Target)
		if err != nil {
			return nil, errors.New("ShareLogic.buildItem.CompleteURL", i18n.ERROR_INVALID_TARGET, err).Code(http.StatusBadRequest)
		}
		return types.NewLinkItem(target, now), nil
	case types.KindMessage:
		if args.Content == "" {
			return nil, errors.New("ShareLogic.buildItem.empty_content", i18n.ERROR_EMPTY_CONTENT, nil).Code(http.StatusBadRequest)
		}
		return types.NewMessageItem(args.Content, now), nil
	case types.KindFile:
		if args.File == nil || len(args.File.Content) == 0 {
			return nil, errors.New("ShareLogic.buildItem.empty_file", i18n.ERROR_EMPTY_FILE, nil).Code(http.StatusBadRequest)
		}
		return types.NewFileItem(args.File.Filename, args.File.ContentType, now), nil
	default:
		return nil, errors.New("ShareLogic.buildItem.kind", i18n.ERROR_INVALID_SHARE_TYPE, fmt.Errorf("unknown share type %q", args.Kind)).Code(http.StatusBadRequest)
	}
}

// parseExpiry "never"/空 表示永不过期，"<N>d" 表示 N 天
func parseExpiry(expiry string) (*time.Duration, error) {
	if expiry == "" || expiry == "never" {
		return nil, nil
	}
	if !strings.HasSuffix(expiry, "d") {
		return nil, errors.New("ShareLogic.parseExpiry.format", i18n.ERROR_INVALIDARGUMENT, fmt.Errorf("bad expiry %q", expiry)).Code(http.StatusBadRequest)
	}
	days, err := strconv.Atoi(strings.TrimSuffix(expiry, "d"))
	if err != nil || days <= 0 {
		return nil, errors.New("ShareLogic.parseExpiry.days", i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest)
	}
	return lo.ToPtr(time.Duration(days) * 24 * time.Hour), nil
}

func (l *ShareLogic) claimCustomCode(code string, file *FilePayload, item *types.ShareItem, now time.Time) error {
	// 先查一次提前拒绝，SETNX 仍然兜底并发竞争
	existing, err := l.core.Store().Get(l.ctx, code)
	if err != nil {
		return errors.New("ShareLogic.claimCustomCode.Get", i18n.ERROR_INTERNAL, err)
	}
	if existing != nil {
		return errors.New("ShareLogic.claimCustomCode.exists", i18n.ERROR_CODE_IN_USE, nil).Code(http.StatusBadRequest)
	}

	if err = l.saveBlobThenRecord(code, file, item, now); err != nil {
		return err
	}
	return nil
}

func (l *ShareLogic) claimGeneratedCode(file *FilePayload, item *types.ShareItem, now time.Time) (string, error) {
	for i := 0; i < GenerateMaxAttempts; i++ {
		code := utils.GenShortCodeCandidate()
		existing, err := l.core.Store().Get(l.ctx, code)
		if err != nil {
			return "", errors.New("ShareLogic.claimGeneratedCode.Get", i18n.ERROR_INTERNAL, err)
		}
		if existing != nil {
			continue
		}
		if err = l.saveBlobThenRecord(code, file, item, now); err != nil {
			if ce, ok := err.(*errors.CustomizedError); ok && ce.Message() == i18n.ERROR_CODE_IN_USE {
				// 极小概率的并发撞码，换一个继续
				continue
			}
			return "", err
		}
		return code, nil
	}
	return "", errors.New("ShareLogic.claimGeneratedCode.exhausted", i18n.ERROR_CODE_EXHAUSTED, nil).Code(http.StatusInternalServerError)
}

// saveBlobThenRecord 对象写入成功后才写记录；SETNX 失败说明短码被并发抢走，回收对象
func (l *ShareLogic) saveBlobThenRecord(code string, file *FilePayload, item *types.ShareItem, now time.Time) error {
	if item.Kind == types.KindFile {
		err := l.core.FileStorage().SaveFile(l.ctx, code, bytes.NewReader(file.Content), types.BlobMeta{
			ContentType: item.ContentType,
			Filename:    item.Filename,
		})
		if err != nil {
			return errors.New("ShareLogic.saveBlobThenRecord.SaveFile", i18n.ERROR_INTERNAL, err)
		}
	}

	ok, err := l.core.Store().Create(l.ctx, code, item, item.TTL(now))
	if err != nil {
		return errors.New("ShareLogic.saveBlobThenRecord.Create", i18n.ERROR_INTERNAL, err)
	}
	if !ok {
		if item.Kind == types.KindFile {
			if derr := l.core.FileStorage().DeleteFile(l.ctx, code); derr != nil {
				return errors.New("ShareLogic.saveBlobThenRecord.DeleteFile", i18n.ERROR_INTERNAL, derr)
			}
		}
		return errors.New("ShareLogic.saveBlobThenRecord.conflict", i18n.ERROR_CODE_IN_USE, nil).Code(http.StatusBadRequest)
	}
	return nil
}
