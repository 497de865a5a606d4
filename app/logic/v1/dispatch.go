package v1

import (
	"path/filepath"
	"strings"

	"github.com/shortshare/shortshare/pkg/errors"
	"github.com/shortshare/shortshare/pkg/i18n"
	"github.com/shortshare/shortshare/pkg/types"
)

type DispatchMode int

const (
	// ModeRedirectPage 渲染跳转中间页而不是直接 302，访客可以查看或取消
	ModeRedirectPage DispatchMode = iota + 1
	// ModeMessagePage 以 markdown 渲染消息内容
	ModeMessagePage
	// ModeTextPage 文本类文件读出内容走消息渲染路径，附下载入口
	ModeTextPage
	// ModeAttachment 以附件形式下发对象
	ModeAttachment
	// ModeInline 浏览器内联展示（图片、raw 取流）
	ModeInline
	// ModePreviewPage 内嵌媒体的预览页，附下载入口
	ModePreviewPage
	// ModeDownloadPage 通用的下载落地页
	ModeDownloadPage
)

type DispatchDecision struct {
	Mode        DispatchMode
	Target      string
	Content     string
	Filename    string
	ContentType string
	OneTime     bool
	Blob        *types.GetObjectResult
}

// textExtensions 这些后缀直接当文本渲染
var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".log": true, ".csv": true,
	".json": true, ".xml": true, ".yaml": true, ".yml": true, ".toml": true,
	".ini": true, ".conf": true, ".env": true, ".sql": true,
	".go": true, ".py": true, ".js": true, ".ts": true, ".java": true,
	".c": true, ".h": true, ".cpp": true, ".hpp": true, ".rs": true,
	".rb": true, ".php": true, ".sh": true, ".bat": true, ".pl": true,
	".html": true, ".htm": true, ".css": true,
}

// IsTextFilename 按文件名后缀判断是否按文本渲染
func IsTextFilename(filename string) bool {
	return textExtensions[strings.ToLower(filepath.Ext(filename))]
}

// IsPreviewableContentType 能在预览页内嵌播放/展示的类型
func IsPreviewableContentType(contentType string) bool {
	return strings.HasPrefix(contentType, "video/") ||
		strings.HasPrefix(contentType, "audio/") ||
		contentType == "application/pdf"
}

// dispatch 根据记录类型与请求上下文决定渲染方式
// 一次性文件不走落地页/预览页：这两种页面要二跳取流，届时记录已删除必然 404，
// 所以退化为直接下发；文本与图片的内容随本次响应返回，不受影响
func (l *ShareLogic) dispatch(code string, item *types.ShareItem, forceDownload bool) (*DispatchDecision, error) {
	switch item.Kind {
	case types.KindLink:
		return &DispatchDecision{Mode: ModeRedirectPage, Target: item.Target}, nil
	case types.KindMessage:
		return &DispatchDecision{Mode: ModeMessagePage, Content: item.Content}, nil
	case types.KindFile:
		return l.dispatchFile(code, item, forceDownload)
	default:
		return nil, errors.New("ShareLogic.dispatch.kind", i18n.ERROR_INTERNAL, nil)
	}
}

func (l *ShareLogic) dispatchFile(code string, item *types.ShareItem, forceDownload bool) (*DispatchDecision, error) {
	decision := &DispatchDecision{
		Filename:    item.Filename,
		ContentType: item.ContentType,
		OneTime:     item.OneTime,
	}

	switch {
	case IsTextFilename(item.Filename):
		blob, err := l.fetchBlob(code)
		if err != nil {
			return nil, err
		}
		decision.Mode = ModeTextPage
		decision.Content = string(blob.File)
		return decision, nil

	case forceDownload:
		blob, err := l.fetchBlob(code)
		if err != nil {
			return nil, err
		}
		decision.Mode = ModeAttachment
		decision.Blob = blob
		return decision, nil

	case strings.HasPrefix(item.ContentType, "image/"):
		blob, err := l.fetchBlob(code)
		if err != nil {
			return nil, err
		}
		decision.Mode = ModeInline
		decision.Blob = blob
		return decision, nil

	case IsPreviewableContentType(item.ContentType) && !item.OneTime:
		decision.Mode = ModePreviewPage
		return decision, nil

	case item.OneTime:
		blob, err := l.fetchBlob(code)
		if err != nil {
			return nil, err
		}
		decision.Mode = ModeAttachment
		decision.Blob = blob
		return decision, nil

	default:
		decision.Mode = ModeDownloadPage
		return decision, nil
	}
}
