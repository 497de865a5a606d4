package core

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf := &CoreConfig{}
	if err = toml.Unmarshal(raw, conf); err != nil {
		panic(err)
	}

	return *conf
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	c.FromENV()
	return c
}

type CoreConfig struct {
	Addr          string              `toml:"addr"`
	Log           Log                 `toml:"log"`
	Redis         RedisConfig         `toml:"redis"`
	Site          Site                `toml:"site"`
	ObjectStorage ObjectStorageDriver `toml:"object_storage"`
	Reaper        ReaperConfig        `toml:"reaper"`
}

type ObjectStorageDriver struct {
	Driver string       `toml:"driver"` // s3 | minio
	S3     *S3Config    `toml:"s3"`
	Minio  *MinioConfig `toml:"minio"`
}

type S3Config struct {
	Bucket       string `toml:"bucket"`
	Region       string `toml:"region"`
	Endpoint     string `toml:"endpoint"`
	AccessKey    string `toml:"access_key"`
	SecretKey    string `toml:"secret_key"`
	UsePathStyle bool   `toml:"use_path_style"`
}

type MinioConfig struct {
	Bucket    string `toml:"bucket"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

type Site struct {
	// AppURL 对外短链接的基础地址，返回给创建者的 shortUrl 以它拼接
	AppURL string `toml:"app_url"`
	// AdminSecret x-admin-secret 请求头匹配该值即为管理员
	AdminSecret string `toml:"admin_secret"`
	// TurnstileSecret Cloudflare Turnstile 服务端密钥
	TurnstileSecret string `toml:"turnstile_secret"`
	// TurnstileEndpoint 留空使用官方 siteverify 地址，测试时可指向本地
	TurnstileEndpoint string `toml:"turnstile_endpoint"`
	// StaticDir 静态资源目录，非短码路径回落到这里
	StaticDir string `toml:"static_dir"`
	// TemplateGlob 渲染模板路径
	TemplateGlob string `toml:"template_glob"`
}

// ReaperConfig 过期文件清扫任务，CronSpec 为空则不启动
type ReaperConfig struct {
	CronSpec string `toml:"cron_spec"`
}

func (c *CoreConfig) FromENV() {
	c.Addr = os.Getenv("SHORTSHARE_SERVICE_ADDRESS")
	c.Log.FromENV()
	c.Redis.FromENV()
	c.Site.AppURL = os.Getenv("SHORTSHARE_APP_URL")
	c.Site.AdminSecret = os.Getenv("SHORTSHARE_ADMIN_SECRET")
	c.Site.TurnstileSecret = os.Getenv("SHORTSHARE_TURNSTILE_SECRET")
	c.Site.StaticDir = os.Getenv("SHORTSHARE_STATIC_DIR")
	c.Site.TemplateGlob = os.Getenv("SHORTSHARE_TEMPLATE_GLOB")
}

type RedisConfig struct {
	// 单机模式配置
	Addr     string `toml:"addr"`     // Redis地址，格式: host:port
	Password string `toml:"password"` // Redis密码
	DB       int    `toml:"db"`       // Redis数据库索引 (0-15)

	// 集群模式配置
	Cluster       bool     `toml:"cluster"`        // 是否启用集群模式
	ClusterAddrs  []string `toml:"cluster_addrs"`  // 集群节点地址列表
	ClusterPasswd string   `toml:"cluster_passwd"` // 集群密码

	// 连接池配置
	PoolSize     int `toml:"pool_size"`      // 连接池大小，默认10
	MinIdleConns int `toml:"min_idle_conns"` // 最小空闲连接数，默认0
	MaxRetries   int `toml:"max_retries"`    // 最大重试次数，默认3
	DialTimeout  int `toml:"dial_timeout"`   // 连接超时(秒)，默认5
	ReadTimeout  int `toml:"read_timeout"`   // 读超时(秒)，默认3
	WriteTimeout int `toml:"write_timeout"`  // 写超时(秒)，默认3
}

func (r *RedisConfig) FromENV() {
	r.Addr = os.Getenv("SHORTSHARE_REDIS_ADDR")
	r.Password = os.Getenv("SHORTSHARE_REDIS_PASSWORD")
	if dbStr := os.Getenv("SHORTSHARE_REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			r.DB = db
		}
	}
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	l.Level = os.Getenv("SHORTSHARE_LOG_LEVEL")
	l.Path = os.Getenv("SHORTSHARE_LOG_PATH")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
