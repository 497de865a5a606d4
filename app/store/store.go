package store

import (
	"context"
	"time"

	"github.com/shortshare/shortshare/pkg/types"
)

// ShareStore 短码到分享记录的 KV 存储
//
// Get 未命中返回 (nil, nil)，不是短链接的路径由调用方回落到静态资源
// Create 以原子方式认领短码，短码已存在时返回 false
// Update 覆盖记录并保留剩余 TTL
// Delete 对不存在的 key 是 no-op，返回值表示 key 之前是否存在；
// 并发消费一次性记录时，只有拿到 true 的一方继续投递
type ShareStore interface {
	Get(ctx context.Context, code string) (*types.ShareItem, error)
	Create(ctx context.Context, code string, item *types.ShareItem, ttl time.Duration) (bool, error)
	Update(ctx context.Context, code string, item *types.ShareItem) error
	Delete(ctx context.Context, code string) (bool, error)
	ListCodes(ctx context.Context) ([]string, error)
}
