package types

import (
	"testing"
	"time"
)

func TestShareItemExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		item ShareItem
		want bool
	}{
		{
			name: "文件已过期",
			item: ShareItem{Kind: KindFile, ExpiresAt: &past},
			want: true,
		},
		{
			name: "文件未过期",
			item: ShareItem{Kind: KindFile, ExpiresAt: &future},
			want: false,
		},
		{
			name: "文件永不过期",
			item: ShareItem{Kind: KindFile},
			want: false,
		},
		{
			name: "非文件类型交给存储层 TTL",
			item: ShareItem{Kind: KindLink, ExpiresAt: &past},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShareItemTTL(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(2 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		item ShareItem
		want time.Duration
	}{
		{
			name: "永不过期",
			item: ShareItem{Kind: KindMessage},
			want: 0,
		},
		{
			name: "剩余时长",
			item: ShareItem{Kind: KindMessage, ExpiresAt: &future},
			want: 2 * time.Hour,
		},
		{
			name: "已过期兜底为最小 TTL",
			item: ShareItem{Kind: KindFile, ExpiresAt: &past},
			want: time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.TTL(now); got != tt.want {
				t.Errorf("TTL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordViewHistoryCap(t *testing.T) {
	item := NewMessageItem("hi", time.Now())

	for i := 0; i < HistoryLimit+20; i++ {
		item.RecordView(time.Now(), "US")
	}

	if item.Views != int64(HistoryLimit+20) {
		t.Errorf("Views = %d, want %d", item.Views, HistoryLimit+20)
	}
	if len(item.History) != HistoryLimit {
		t.Errorf("len(History) = %d, want %d", len(item.History), HistoryLimit)
	}
}

func TestRecordViewOrder(t *testing.T) {
	item := NewMessageItem("hi", time.Now())
	item.RecordView(time.Now(), "US")
	item.RecordView(time.Now(), "JP")

	if item.History[0].OriginCountry != "JP" {
		t.Errorf("History[0] = %s, want JP", item.History[0].OriginCountry)
	}
	if item.History[1].OriginCountry != "US" {
		t.Errorf("History[1] = %s, want US", item.History[1].OriginCountry)
	}
}

func TestNewFileItemDefaultContentType(t *testing.T) {
	item := NewFileItem("a.bin", "", time.Now())
	if item.ContentType != "application/octet-stream" {
		t.Errorf("ContentType = %s", item.ContentType)
	}
}

func TestStatsSnapshot(t *testing.T) {
	now := time.Now()
	item := NewFileItem("a.bin", "application/zip", now)
	item.Password = "pw"
	item.OneTime = true
	item.RecordView(now, "DE")

	stats := item.Stats()
	if stats.Kind != KindFile {
		t.Errorf("Kind = %s", stats.Kind)
	}
	if !stats.HasPassword {
		t.Error("HasPassword should be true")
	}
	if !stats.OneTime {
		t.Error("OneTime should be true")
	}
	if stats.Views != 1 || len(stats.History) != 1 {
		t.Errorf("Views = %d, len(History) = %d", stats.Views, len(stats.History))
	}
}
