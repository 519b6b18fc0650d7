package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	coreerrors "github.com/dnslin/printdash/core/errors"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid 配置校验失败。
var ErrInvalid = coreerrors.New(coreerrors.ErrCodeInvalidConfig, "config: 配置无效")

// Config 汇总客户端、会话、转发服务与日志配置。
// 读取顺序：默认值 → YAML 文件 → .env → PRINTDASH_* 环境变量。
type Config struct {
	API   APIConfig   `yaml:"api"`
	Auth  AuthConfig  `yaml:"auth"`
	Proxy ProxyConfig `yaml:"proxy"`
	Log   LogConfig   `yaml:"log"`
	// PreferencesFile 列表筛选偏好的保存位置。
	PreferencesFile string `yaml:"preferences_file" env:"PRINTDASH_PREFERENCES_FILE"`
}

// APIConfig 出站调用参数。
type APIConfig struct {
	BaseURL   string        `yaml:"base_url" env:"PRINTDASH_API_BASE_URL"`
	Timeout   time.Duration `yaml:"timeout" env:"PRINTDASH_API_TIMEOUT"`
	Retries   int           `yaml:"retries" env:"PRINTDASH_API_RETRIES"`
	RateLimit float64       `yaml:"rate_limit" env:"PRINTDASH_API_RATE_LIMIT"`
	Burst     int           `yaml:"burst" env:"PRINTDASH_API_BURST"`
	UserAgent string        `yaml:"user_agent" env:"PRINTDASH_API_USER_AGENT"`
}

// AuthConfig 登录与刷新相关配置。
type AuthConfig struct {
	LoginPath   string `yaml:"login_path" env:"PRINTDASH_AUTH_LOGIN_PATH"`
	RefreshPath string `yaml:"refresh_path" env:"PRINTDASH_AUTH_REFRESH_PATH"`
	Email       string `yaml:"email" env:"PRINTDASH_EMAIL"`
	Password    string `yaml:"-" env:"PRINTDASH_PASSWORD"`
}

// ProxyConfig 同源转发服务配置。
type ProxyConfig struct {
	Listen       string        `yaml:"listen" env:"PRINTDASH_PROXY_LISTEN"`
	Backend      string        `yaml:"backend" env:"PRINTDASH_BACKEND_URL"`
	CookieSecure bool          `yaml:"cookie_secure" env:"PRINTDASH_COOKIE_SECURE"`
	CookieDomain string        `yaml:"cookie_domain" env:"PRINTDASH_COOKIE_DOMAIN"`
	AccessTTL    time.Duration `yaml:"access_ttl" env:"PRINTDASH_ACCESS_TTL"`
	RefreshTTL   time.Duration `yaml:"refresh_ttl" env:"PRINTDASH_REFRESH_TTL"`
}

// LogConfig 日志级别与格式，格式为 console 或 json。
type LogConfig struct {
	Level  string `yaml:"level" env:"PRINTDASH_LOG_LEVEL"`
	Format string `yaml:"format" env:"PRINTDASH_LOG_FORMAT"`
}

// Default 返回默认配置。
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:3000",
			Timeout: 30 * time.Second,
			Retries: 2,
			Burst:   1,
		},
		Auth: AuthConfig{
			LoginPath:   "/login",
			RefreshPath: "/api/auth/refresh",
		},
		Proxy: ProxyConfig{
			Listen:     ":3000",
			Backend:    "http://localhost:4000",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load 读取配置。path 为空时跳过 YAML；envFiles 为空时尝试当前目录的 .env。
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: 读取 %s 失败: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: 解析 %s 失败: %w", path, err)
		}
	}
	if err := loadDotEnv(envFiles); err != nil {
		return nil, err
	}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: 解析环境变量失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// .env 只补充尚未设置的变量，显式导出的环境变量优先。
func loadDotEnv(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: 加载 .env 失败: %w", err)
	}
	return nil
}

// Validate 校验必要字段。
func (c *Config) Validate() error {
	var problems []string
	if err := checkURL(c.API.BaseURL); err != nil {
		problems = append(problems, "api.base_url: "+err.Error())
	}
	if c.Proxy.Backend != "" {
		if err := checkURL(c.Proxy.Backend); err != nil {
			problems = append(problems, "proxy.backend: "+err.Error())
		}
	}
	if c.API.Timeout <= 0 {
		problems = append(problems, "api.timeout 必须为正数")
	}
	if c.API.Retries < 0 {
		problems = append(problems, "api.retries 不能为负")
	}
	if c.API.RateLimit < 0 {
		problems = append(problems, "api.rate_limit 不能为负")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		problems = append(problems, "log.format 只支持 console 或 json")
	}
	if len(problems) > 0 {
		return coreerrors.Wrap(coreerrors.ErrCodeInvalidConfig, ErrInvalid.Message+": "+strings.Join(problems, "; "), ErrInvalid)
	}
	return nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("需要 http 或 https 地址: %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("缺少主机名: %q", raw)
	}
	return nil
}
