package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	CORS      CORSConfig      `mapstructure:"cors"`
	CRM       CRMConfig       `mapstructure:"crm"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Cache     CacheConfig     `mapstructure:"cache"`
	OSS       OSSConfig       `mapstructure:"oss"`
	Email     EmailConfig     `mapstructure:"email"`
	OAuth     OAuthConfig     `mapstructure:"oauth"`
	Report    ReportConfig    `mapstructure:"report"`
	Sync      SyncConfig      `mapstructure:"sync"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// CRMConfig JobNimbus API 配置
type CRMConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Token    string `mapstructure:"token"`
	PageSize int    `mapstructure:"page_size"`
}

// WebhookConfig Webhook 接收配置
type WebhookConfig struct {
	Secret      string   `mapstructure:"secret"`       // x-jn-secret 校验值，为空则不校验
	RecordTypes []string `mapstructure:"record_types"` // 允许入库的 record_type_name，为空则全部允许
}

// DashboardConfig 看板视图与过滤规则
type DashboardConfig struct {
	TestNamePattern string           `mapstructure:"test_name_pattern"` // 测试数据名称匹配（正则，忽略大小写）
	LegacyTypes     []string         `mapstructure:"legacy_types"`      // 主视图排除的历史遗留类型
	Views           map[string]ViewConfig `mapstructure:"views"`
	Admins          []AdminUser      `mapstructure:"admins"`
}

// ViewConfig 销售视图（按销售代表分区）
type ViewConfig struct {
	RepID   string `mapstructure:"rep_id"`
	RepName string `mapstructure:"rep_name"`
}

// AdminUser 看板登录账号（bcrypt 哈希存配置）
type AdminUser struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

type CacheConfig struct {
	MetricsTTLSeconds int `mapstructure:"metrics_ttl_seconds"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type OAuthConfig struct {
	Google GoogleOAuthConfig `mapstructure:"google"`
}

type GoogleOAuthConfig struct {
	ClientID      string   `mapstructure:"client_id"`
	ClientSecret  string   `mapstructure:"client_secret"`
	RedirectURI   string   `mapstructure:"redirect_uri"`
	AllowedEmails []string `mapstructure:"allowed_emails"`
}

type ReportConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Recipients []string `mapstructure:"recipients"`
}

type SyncConfig struct {
	IntervalMinutes int `mapstructure:"interval_minutes"` // 0 表示不启用定时同步
	ActivityLimit   int `mapstructure:"activity_limit"`   // 每个 job 拉取的 activity 数量上限
	JobLimit        int `mapstructure:"job_limit"`        // 单次同步处理的 job 数量上限
}

func Load(configPath string) (*Config, error) {
	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	// 检查 config.local.yaml 是否存在
	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 环境变量覆盖
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
