package protocol

import (
	"strings"
)

// REDIS_CACHE_KEY_PREFIX redis cache key generator
const (
	REDIS_CACHE_KEY_PREFIX = "shortshare_"
)

const (
	RedisCacheKeyNamespaceSep string = ":"
)

const (
	RedisCacheKeyPrefixShare RedisCacheKeyDomainPrefix = "share"

	RedisCacheKeyPrefixShareEntry = "entry"
)

type RedisCacheKeyDomainPrefix string

func GenRedisCacheKey(d RedisCacheKeyDomainPrefix, fields ...string) string {
	return REDIS_CACHE_KEY_PREFIX + strings.Join(append([]string{string(d)}, fields...), RedisCacheKeyNamespaceSep)
}

// GenShareEntryKey shortshare_share:entry:{code}
func GenShareEntryKey(code string) string {
	return GenRedisCacheKey(RedisCacheKeyPrefixShare, RedisCacheKeyPrefixShareEntry, code)
}

// ShareEntryKeyPattern 过期清扫任务 SCAN 用的匹配模式
func ShareEntryKeyPattern() string {
	return GenShareEntryKey("*")
}

// ShareCodeFromKey 从完整 key 还原短码，非本命名空间的 key 返回空
func ShareCodeFromKey(key string) string {
	prefix := GenShareEntryKey("")
	if !strings.HasPrefix(key, prefix) {
		return ""
	}
	return strings.TrimPrefix(key, prefix)
}
