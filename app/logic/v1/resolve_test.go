package v1_test

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/shortshare/shortshare/app/logic/v1"
	"github.com/shortshare/shortshare/pkg/errors"
)

func mustCreate(t *testing.T, args v1.CreateShareArgs) string {
	t.Helper()
	args.IsAdmin = true
	code, err := setupShareLogic().CreateShare(args)
	require.NoError(t, err)
	return code
}

func TestResolveNotFound(t *testing.T) {
	logic := setupShareLogic()

	res, err := logic.Resolve("zzzzzz", v1.ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, v1.OutcomeNotFound, res.Outcome)
}

func TestResolveLink(t *testing.T) {
	logic := setupShareLogic()
	code := mustCreate(t, v1.CreateShareArgs{Kind: "link", Target: "https://example.com"})

	res, err := logic.Resolve(code, v1.ResolveOptions{OriginCountry: "DE"})
	require.NoError(t, err)
	require.Equal(t, v1.OutcomeContent, res.Outcome)
	assert.Equal(t, v1.ModeRedirectPage, res.Decision.Mode)
	assert.Equal(t, "https://example.com", res.Decision.Target)

	// 访问被计数且带来源
	item, err := testStore.Get(ctx, code)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.EqualValues(t, 1, item.Views)
	require.Len(t, item.History, 1)
	assert.Equal(t, "DE", item.History[0].OriginCountry)
}

func TestResolveStats(t *testing.T) {
	logic := setupShareLogic()
	code := mustCreate(t, v1.CreateShareArgs{Kind: "message", Content: "hi", Password: "pw", OneTime: true})

	// 先走一次正常访问
	_, err := logic.Resolve(code, v1.ResolveOptions{Password: "pw", OriginCountry: "JP"})
	require.NoError(t, err)

	// 一次性记录已被消费，统计请求也查不到了
	res, err := logic.Resolve(code+v1.StatsSuffix, v1.ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, v1.OutcomeNotFound, res.Outcome)

	code2 := mustCreate(t, v1.CreateShareArgs{Kind: "message", Content: "hi", Password: "pw"})
	_, err = logic.Resolve(code2, v1.ResolveOptions{Password: "pw", OriginCountry: "JP"})
	require.NoError(t, err)

	// 统计请求不需要密码，不消费也不计数
	res, err = logic.Resolve(code2+v1.StatsSuffix, v1.ResolveOptions{})
	require.NoError(t, err)
	require.Equal(t, v1.OutcomeStats, res.Outcome)
	require.NotNil(t, res.Stats)
	assert.EqualValues(t, 1, res.Stats.Views)
	assert.True(t, res.Stats.HasPassword)
	require.Len(t, res.Stats.History, 1)
	assert.Equal(t, "JP", res.Stats.History[0].OriginCountry)

	item, err := testStore.Get(ctx, code2)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.EqualValues(t, 1, item.Views)
}

func TestResolvePasswordGate(t *testing.T) {
	logic := setupShareLogic()
	code := mustCreate(t, v1.CreateShareArgs{Kind: "message", Content: "secret", Password: "open"})

	// 无密码
	res, err := logic.Resolve(code, v1.ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, v1.OutcomeNeedsPassword, res.Outcome)

	// 错误密码
	res, err = logic.Resolve(code, v1.ResolveOptions{Password: "wrong"})
	require.NoError(t, err)
	assert.Equal(t, v1.OutcomeNeedsPassword, res.Outcome)

	// 密码门不产生计数
	item, err := testStore.Get(ctx, code)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.EqualValues(t, 0, item.Views)

	res, err = logic.Resolve(code, v1.ResolveOptions{Password: "open"})
	require.NoError(t, err)
	require.Equal(t, v1.OutcomeContent, res.Outcome)
	assert.Equal(t, "secret", res.Decision.Content)
}

func TestResolveOneTimeFile(t *testing.T) {
	logic := setupShareLogic()
	code := mustCreate(t, v1.CreateShareArgs{
		Kind:    "file",
		OneTime: true,
		File:    &v1.FilePayload{Filename: "big.zip", ContentType: "application/zip", Content: []byte("zipdata")},
	})

	res, err := logic.Resolve(code, v1.ResolveOptions{})
	require.NoError(t, err)
	require.Equal(t, v1.OutcomeContent, res.Outcome)
	// 一次性文件直接下发附件而不是落地页
	assert.Equal(t, v1.ModeAttachment, res.Decision.Mode)
	require.NotNil(t, res.Decision.Blob)
	assert.Equal(t, []byte("zipdata"), res.Decision.Blob.File)

	// 记录与对象都已删除
	item, err := testStore.Get(ctx, code)
	require.NoError(t, err)
	assert.Nil(t, item)
	assert.False(t, testFiles.has(code))

	res, err = logic.Resolve(code, v1.ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, v1.OutcomeNotFound, res.Outcome)
}

func TestResolveOneTimeImageStaysInline(t *testing.T) {
	logic := setupShareLogic()
	code := mustCreate(t, v1.CreateShareArgs{
		Kind:    "file",
		OneTime: true,
		File:    &v1.FilePayload{Filename: "photo.png", ContentType: "image/png", Content: []byte("png")},
	})

	res, err := logic.Resolve(code, v1.ResolveOptions{})
	require.NoError(t, err)
	require.Equal(t, v1.OutcomeContent, res.Outcome)
	// 图片内容随本次响应内联返回，不需要二跳，一次性不改变渲染方式
	assert.Equal(t, v1.ModeInline, res.Decision.Mode)
	require.NotNil(t, res.Decision.Blob)
	assert.Equal(t, []byte("png"), res.Decision.Blob.File)
	assert.False(t, testFiles.has(code))
}

func TestResolveOneTimeTextFile(t *testing.T) {
	logic := setupShareLogic()
	code := mustCreate(t, v1.CreateShareArgs{
		Kind:    "file",
		OneTime: true,
		File:    &v1.FilePayload{Filename: "notes.md", ContentType: "text/markdown", Content: []byte("# once")},
	})

	res, err := logic.Resolve(code, v1.ResolveOptions{})
	require.NoError(t, err)
	require.Equal(t, v1.OutcomeContent, res.Outcome)
	assert.Equal(t, v1.ModeTextPage, res.Decision.Mode)
	assert.Equal(t, "# once", res.Decision.Content)
	assert.True(t, res.Decision.OneTime)
	assert.False(t, testFiles.has(code))
}

func TestResolveOneTimeVideoDegradesToAttachment(t *testing.T) {
	logic := setupShareLogic()
	code := mustCreate(t, v1.CreateShareArgs{
		Kind:    "file",
		OneTime: true,
		File:    &v1.FilePayload{Filename: "clip.mp4", ContentType: "video/mp4", Content: []byte("frames")},
	})

	res, err := logic.Resolve(code, v1.ResolveOptions{})
	require.NoError(t, err)
	require.Equal(t, v1.OutcomeContent, res.Outcome)
	// 预览页的二跳取流在记录删除后必然落空，所以直接下发
	assert.Equal(t, v1.ModeAttachment, res.Decision.Mode)
	require.NotNil(t, res.Decision.Blob)
	assert.Equal(t, []byte("frames"), res.Decision.Blob.File)
}

func TestResolveOneTimeConcurrentConsumption(t *testing.T) {
	logic := setupShareLogic()
	code := mustCreate(t, v1.CreateShareArgs{
		Kind:    "file",
		OneTime: true,
		File:    &v1.FilePayload{Filename: "race.zip", ContentType: "application/zip", Content: []byte("zipdata")},
	})

	const racers = 2
	var (
		wg      sync.WaitGroup
		results [racers]*v1.Resolution
		errs    [racers]error
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = logic.Resolve(code, v1.ResolveOptions{})
		}(i)
	}
	wg.Wait()

	var delivered int
	for i := 0; i < racers; i++ {
		// 输家不报错，按未命中处理
		require.NoError(t, errs[i])
		if results[i].Outcome == v1.OutcomeContent {
			delivered++
			assert.Equal(t, []byte("zipdata"), results[i].Decision.Blob.File)
		} else {
			assert.Equal(t, v1.OutcomeNotFound, results[i].Outcome)
		}
	}
	assert.Equal(t, 1, delivered)

	item, err := testStore.Get(ctx, code)
	require.NoError(t, err)
	assert.Nil(t, item)
	assert.False(t, testFiles.has(code))
}

func TestResolveExpiredFile(t *testing.T) {
	logic := setupShareLogic()
	code := mustCreate(t, v1.CreateShareArgs{
		Kind: "file",
		File: &v1.FilePayload{Filename: "old.bin", Content: []byte("x")},
	})

	// 直接把过期时间改到过去
	item, err := testStore.Get(ctx, code)
	require.NoError(t, err)
	require.NotNil(t, item)
	item.ExpiresAt = lo.ToPtr(time.Now().Add(-time.Minute))
	require.NoError(t, testStore.Update(ctx, code, item))

	_, err = logic.Resolve(code, v1.ResolveOptions{})
	require.Error(t, err)
	ce, ok := err.(*errors.CustomizedError)
	require.True(t, ok)
	assert.Equal(t, http.StatusGone, ce.GetCode())

	// 惰性过期同时清理记录与对象
	item, err = testStore.Get(ctx, code)
	require.NoError(t, err)
	assert.Nil(t, item)
	assert.False(t, testFiles.has(code))
}

func TestResolveMissingBlobSelfHeals(t *testing.T) {
	logic := setupShareLogic()
	code := mustCreate(t, v1.CreateShareArgs{
		Kind: "file",
		File: &v1.FilePayload{Filename: "gone.bin", Content: []byte("x")},
	})

	require.NoError(t, testFiles.DeleteFile(ctx, code))

	_, err := logic.Resolve(code, v1.ResolveOptions{Download: true})
	require.Error(t, err)
	ce, ok := err.(*errors.CustomizedError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, ce.GetCode())

	// 孤儿记录被顺手删掉
	item, err := testStore.Get(ctx, code)
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestResolveRaw(t *testing.T) {
	logic := setupShareLogic()
	code := mustCreate(t, v1.CreateShareArgs{
		Kind:     "file",
		Password: "pw",
		File:     &v1.FilePayload{Filename: "clip.mp4", ContentType: "video/mp4", Content: []byte("frames")},
	})

	_, err := logic.ResolveRaw(code, "")
	require.Error(t, err)

	decision, err := logic.ResolveRaw(code, "pw")
	require.NoError(t, err)
	assert.Equal(t, v1.ModeInline, decision.Mode)
	assert.Equal(t, []byte("frames"), decision.Blob.File)

	// raw 取流不计数也不消费
	item, err := testStore.Get(ctx, code)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.EqualValues(t, 0, item.Views)

	// 非文件类型没有 raw
	msgCode := mustCreate(t, v1.CreateShareArgs{Kind: "message", Content: "hi"})
	_, err = logic.ResolveRaw(msgCode, "")
	require.Error(t, err)
}

func TestResolveHistoryOrder(t *testing.T) {
	logic := setupShareLogic()
	code := mustCreate(t, v1.CreateShareArgs{Kind: "message", Content: "hi"})

	for _, country := range []string{"US", "DE", "JP"} {
		_, err := logic.Resolve(code, v1.ResolveOptions{OriginCountry: country})
		require.NoError(t, err)
	}

	item, err := testStore.Get(ctx, code)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.EqualValues(t, 3, item.Views)
	require.Len(t, item.History, 3)
	// 最新访问在最前
	assert.Equal(t, "JP", item.History[0].OriginCountry)
	assert.Equal(t, "US", item.History[2].OriginCountry)
}
