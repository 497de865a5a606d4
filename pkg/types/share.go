package types

import (
	"time"
)

type ShareKind string

const (
	KindLink    ShareKind = "link"
	KindMessage ShareKind = "message"
	KindFile    ShareKind = "file"
)

func (k ShareKind) Valid() bool {
	switch k {
	case KindLink, KindMessage, KindFile:
		return true
	default:
		return false
	}
}

// HistoryLimit 访问历史仅保留最近 N 条，views 总数不受影响
const HistoryLimit = 100

// ViewRecord 单次访问记录
type ViewRecord struct {
	Time          time.Time `json:"time"`
	OriginCountry string    `json:"origin_country"`
}

// ShareItem 一个短码对应的分享记录，kind 决定哪个载荷字段有效
type ShareItem struct {
	Kind        ShareKind    `json:"kind"`
	Target      string       `json:"target,omitempty"`
	Content     string       `json:"content,omitempty"`
	Filename    string       `json:"filename,omitempty"`
	ContentType string       `json:"content_type,omitempty"`
	Password    string       `json:"password,omitempty"`
	OneTime     bool         `json:"one_time,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Views       int64        `json:"views"`
	History     []ViewRecord `json:"history,omitempty"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
}

func NewLinkItem(target string, now time.Time) *ShareItem {
	return &ShareItem{Kind: KindLink, Target: target, CreatedAt: now}
}

func NewMessageItem(content string, now time.Time) *ShareItem {
	return &ShareItem{Kind: KindMessage, Content: content, CreatedAt: now}
}

func NewFileItem(filename, contentType string, now time.Time) *ShareItem {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &ShareItem{Kind: KindFile, Filename: filename, ContentType: contentType, CreatedAt: now}
}

// Expired 仅对文件类型做惰性过期判断，其他类型交给存储层 TTL 淘汰
func (s *ShareItem) Expired(now time.Time) bool {
	return s.Kind == KindFile && s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// RecordView 累加访问计数并将最新记录插入历史头部
func (s *ShareItem) RecordView(now time.Time, originCountry string) {
	s.Views++
	history := make([]ViewRecord, 0, len(s.History)+1)
	history = append(history, ViewRecord{Time: now, OriginCountry: originCountry})
	history = append(history, s.History...)
	if len(history) > HistoryLimit {
		history = history[:HistoryLimit]
	}
	s.History = history
}

// TTL 根据过期时间推导存储层 TTL，0 表示永不过期
func (s *ShareItem) TTL(now time.Time) time.Duration {
	if s.ExpiresAt == nil {
		return 0
	}
	ttl := s.ExpiresAt.Sub(now)
	if ttl <= 0 {
		ttl = time.Second
	}
	return ttl
}

func (s *ShareItem) HasPassword() bool {
	return s.Password != ""
}

// ShareStats 只读统计快照，info 请求（code+）返回的内容
type ShareStats struct {
	Kind        ShareKind    `json:"type"`
	CreatedAt   time.Time    `json:"createdAt"`
	Views       int64        `json:"views"`
	OneTime     bool         `json:"oneTime"`
	HasPassword bool         `json:"hasPassword"`
	ExpiresAt   *time.Time   `json:"expiresAt,omitempty"`
	Filename    string       `json:"filename,omitempty"`
	History     []ViewRecord `json:"history,omitempty"`
}

func (s *ShareItem) Stats() ShareStats {
	return ShareStats{
		Kind:        s.Kind,
		CreatedAt:   s.CreatedAt,
		Views:       s.Views,
		OneTime:     s.OneTime,
		HasPassword: s.HasPassword(),
		ExpiresAt:   s.ExpiresAt,
		Filename:    s.Filename,
		History:     s.History,
	}
}
