package core

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/shortshare/shortshare/app/store"
	"github.com/shortshare/shortshare/app/store/redisstore"
	"github.com/shortshare/shortshare/pkg/object-storage/minio"
	"github.com/shortshare/shortshare/pkg/object-storage/s3"
	"github.com/shortshare/shortshare/pkg/turnstile"
	"github.com/shortshare/shortshare/pkg/types"
	"github.com/shortshare/shortshare/pkg/utils"
)

// Verifier 人机验证协作方，生产实现为 Cloudflare Turnstile
type Verifier interface {
	Verify(ctx context.Context, token, ip string) (bool, error)
}

type Core struct {
	cfg CoreConfig

	httpClient *http.Client
	httpEngine *gin.Engine

	redis       redis.UniversalClient
	shareStore  store.ShareStore
	fileStorage types.FileStorage
	verifier    Verifier

	metrics *Metrics
}

type SetupOption func(*Core)

// WithShareStore 替换记录存储，测试用
func WithShareStore(s store.ShareStore) SetupOption {
	return func(c *Core) {
		c.shareStore = s
	}
}

// WithFileStorage 替换对象存储，测试用
func WithFileStorage(s types.FileStorage) SetupOption {
	return func(c *Core) {
		c.fileStorage = s
	}
}

// WithVerifier 替换人机验证实现，测试用
func WithVerifier(v Verifier) SetupOption {
	return func(c *Core) {
		c.verifier = v
	}
}

func MustSetupCore(cfg CoreConfig, opts ...SetupOption) *Core {
	{
		var writer io.Writer = os.Stdout
		if cfg.Log.Path != "" {
			writer = &lumberjack.Logger{
				Filename:   cfg.Log.Path,
				MaxSize:    500, // megabytes
				MaxBackups: 3,
				MaxAge:     28,   //days
				Compress:   true, // disabled by default
			}
		}
		l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level: cfg.Log.SlogLevel(),
		}))
		slog.SetDefault(l)
	}

	utils.SetupIDWorker(1)

	core := &Core{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Second * 3},
		metrics:    NewMetrics("shortshare", "core"),
		httpEngine: gin.New(),
	}

	for _, opt := range opts {
		opt(core)
	}

	if core.shareStore == nil {
		setupRedisStore(core)
	}
	if core.fileStorage == nil {
		setupFileStorage(core)
	}
	if core.verifier == nil {
		tsOpts := []turnstile.Option{turnstile.WithHTTPClient(core.httpClient)}
		if cfg.Site.TurnstileEndpoint != "" {
			tsOpts = append(tsOpts, turnstile.WithEndpoint(cfg.Site.TurnstileEndpoint))
		}
		core.verifier = turnstile.NewClient(cfg.Site.TurnstileSecret, tsOpts...)
	}

	return core
}

func setupRedisStore(core *Core) {
	cfg := core.cfg.Redis
	if cfg.Cluster {
		core.redis = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.ClusterAddrs,
			Password:     cfg.ClusterPasswd,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			MaxRetries:   cfg.MaxRetries,
			DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		})
	} else {
		core.redis = redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			MaxRetries:   cfg.MaxRetries,
			DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		})
	}

	core.shareStore = redisstore.NewShareStore(core.redis)
}

func setupFileStorage(core *Core) {
	cfg := core.cfg.ObjectStorage
	switch cfg.Driver {
	case "minio":
		if cfg.Minio == nil {
			panic("object_storage.minio config missing")
		}
		storage, err := minio.NewMinioClient(cfg.Minio.Endpoint, cfg.Minio.Bucket, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
		if err != nil {
			panic(err)
		}
		core.fileStorage = storage
	default:
		if cfg.S3 == nil {
			panic("object_storage.s3 config missing")
		}
		core.fileStorage = s3.NewS3Client(
			cfg.S3.Endpoint,
			cfg.S3.Region,
			cfg.S3.Bucket,
			cfg.S3.AccessKey,
			cfg.S3.SecretKey,
			s3.WithPathStyle(cfg.S3.UsePathStyle),
		)
	}
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) HttpEngine() *gin.Engine {
	return s.httpEngine
}

func (s *Core) HttpClient() *http.Client {
	return s.httpClient
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

func (s *Core) Store() store.ShareStore {
	return s.shareStore
}

func (s *Core) FileStorage() types.FileStorage {
	return s.fileStorage
}

func (s *Core) Verifier() Verifier {
	return s.verifier
}
