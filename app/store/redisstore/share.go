package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shortshare/shortshare/app/store"
	"github.com/shortshare/shortshare/pkg/types"
	"github.com/shortshare/shortshare/pkg/types/protocol"
)

type ShareStore struct {
	cli redis.UniversalClient
}

var _ store.ShareStore = (*ShareStore)(nil)

func NewShareStore(cli redis.UniversalClient) *ShareStore {
	return &ShareStore{cli: cli}
}

func (s *ShareStore) Get(ctx context.Context, code string) (*types.ShareItem, error) {
	raw, err := s.cli.Get(ctx, protocol.GenShareEntryKey(code)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var item types.ShareItem
	if err = json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create SETNX 认领短码，避免自定义短码 check-then-write 覆盖他人记录
func (s *ShareStore) Create(ctx context.Context, code string, item *types.ShareItem, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return false, err
	}
	return s.cli.SetNX(ctx, protocol.GenShareEntryKey(code), raw, ttl).Result()
}

// Update KEEPTTL 覆盖，消费计数后的重写不重置剩余有效期
func (s *ShareStore) Update(ctx context.Context, code string, item *types.ShareItem) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return s.cli.SetArgs(ctx, protocol.GenShareEntryKey(code), raw, redis.SetArgs{
		KeepTTL: true,
	}).Err()
}

// Delete DEL 的删除数即消费凭证，并发消费只有一方能拿到 true
func (s *ShareStore) Delete(ctx context.Context, code string) (bool, error) {
	n, err := s.cli.Del(ctx, protocol.GenShareEntryKey(code)).Result()
	return n > 0, err
}

// ListCodes SCAN 出当前所有短码，仅供过期清扫任务使用
func (s *ShareStore) ListCodes(ctx context.Context) ([]string, error) {
	var (
		codes  []string
		cursor uint64
	)
	for {
		keys, next, err := s.cli.Scan(ctx, cursor, protocol.ShareEntryKeyPattern(), 200).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			if code := protocol.ShareCodeFromKey(key); code != "" {
				codes = append(codes, code)
			}
		}
		if next == 0 {
			return codes, nil
		}
		cursor = next
	}
}
