package config

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// DefaultPort is used when neither PORT nor the config file set one.
const DefaultPort = 51732

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Translate TranslateConfig
	Claude    ClaudeConfig
	Session   SessionConfig
	Exposure  ExposureConfig
	AI        AIConfig
}

// Load 从环境变量加载配置；CONFIG_FILE 指向的 YAML 文件提供默认值。
func Load() (*Config, error) {
	return LoadWithFile(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
}

// LoadWithFile is Load with an explicit overlay path; an empty path means
// built-in defaults only.
func LoadWithFile(path string) (*Config, error) {
	file, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	server, err := loadServerConfig(file)
	if err != nil {
		return nil, err
	}

	claude, err := loadClaudeConfig(file)
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig(file)
	if err != nil {
		return nil, err
	}

	exposure, err := loadExposureConfig(file)
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Translate: loadTranslateConfig(file),
		Claude:    claude,
		Session:   session,
		Exposure:  exposure,
		AI:        ai,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr     string
	Port     int
	BasePath string
	Quiet    bool
}

// WithPort overrides the listening port, keeping any configured host.
func (c ServerConfig) WithPort(port int) ServerConfig {
	host, _, err := net.SplitHostPort(c.Addr)
	if err != nil {
		host = ""
	}
	c.Port = port
	c.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	return c
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig(file fileConfig) (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" && file.Port != 0 {
		port = strconv.Itoa(file.Port)
	}
	if port == "" {
		port = strconv.Itoa(DefaultPort)
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	addr := port
	if !strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		addr = ":" + port
	}

	_, portPart, err := net.SplitHostPort(addr)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value %q: %w", port, err)
	}
	portNum, err := strconv.Atoi(portPart)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value %q: %w", port, err)
	}

	quiet, err := parseBoolEnv("QUIET", false)
	if err != nil {
		return ServerConfig{}, err
	}

	return ServerConfig{
		Addr:     addr,
		Port:     portNum,
		BasePath: normalizeBasePath(getEnvOrDefault("BASE_PATH", file.BasePath)),
		Quiet:    quiet,
	}, nil
}

func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// TranslateConfig 描述 LibreTranslate 往返翻译配置。
type TranslateConfig struct {
	URL    string
	Source string
	Pivot  string
}

func loadTranslateConfig(file fileConfig) TranslateConfig {
	return TranslateConfig{
		URL:    getEnvOrDefault("LIBRETRANSLATE_URL", firstNonEmpty(file.Translate.URL, "http://localhost:5001/translate")),
		Source: getEnvOrDefault("TRANSLATE_SOURCE", firstNonEmpty(file.Translate.Source, "hu")),
		Pivot:  getEnvOrDefault("TRANSLATE_PIVOT", firstNonEmpty(file.Translate.Pivot, "en")),
	}
}

// ClaudeConfig 描述 Claude CLI 后端配置。
type ClaudeConfig struct {
	Command      string
	DefaultModel string
	Timeout      time.Duration
}

func loadClaudeConfig(file fileConfig) (ClaudeConfig, error) {
	timeout := 60 * time.Second
	if file.Claude.Timeout != "" {
		parsed, err := time.ParseDuration(file.Claude.Timeout)
		if err != nil {
			return ClaudeConfig{}, fmt.Errorf("invalid claude.timeout value %q: %w", file.Claude.Timeout, err)
		}
		timeout = parsed
	}
	override, err := parseOptionalDurationEnv("CLAUDE_TIMEOUT")
	if err != nil {
		return ClaudeConfig{}, err
	}
	if override != nil {
		timeout = *override
	}

	return ClaudeConfig{
		Command:      getEnvOrDefault("CLAUDE_COMMAND", firstNonEmpty(file.Claude.Command, "claude")),
		DefaultModel: getEnvOrDefault("CLAUDE_MODEL", firstNonEmpty(file.Claude.Model, "haiku")),
		Timeout:      timeout,
	}, nil
}

// SessionConfig 描述会话上下文的保留策略。
type SessionConfig struct {
	MaxExchanges int
}

func loadSessionConfig(file fileConfig) (SessionConfig, error) {
	maxExchanges := 40
	if file.Session.MaxExchanges != nil {
		maxExchanges = *file.Session.MaxExchanges
	}
	override, err := parseOptionalIntEnv("SESSION_MAX_EXCHANGES")
	if err != nil {
		return SessionConfig{}, err
	}
	if override != nil {
		maxExchanges = *override
	}
	if maxExchanges < 0 {
		maxExchanges = 0
	}
	return SessionConfig{MaxExchanges: maxExchanges}, nil
}

// ExposureConfig 描述 Tailscale serve 配置。
type ExposureConfig struct {
	Tool string
	Auto bool
}

func loadExposureConfig(file fileConfig) (ExposureConfig, error) {
	auto, err := parseBoolEnv("EXPOSURE_AUTO", file.Exposure.Auto)
	if err != nil {
		return ExposureConfig{}, err
	}
	return ExposureConfig{
		Tool: getEnvOrDefault("TAILSCALE_PATH", firstNonEmpty(file.Exposure.Tool, defaultTailscalePath())),
		Auto: auto,
	}, nil
}

func defaultTailscalePath() string {
	if runtime.GOOS == "darwin" {
		return "/Applications/Tailscale.app/Contents/MacOS/Tailscale"
	}
	return "tailscale"
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalDurationEnv(key string) (*time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := time.ParseDuration(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
