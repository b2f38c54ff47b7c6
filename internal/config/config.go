package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	AI       AIConfig
	Dialogue DialogueConfig
	Roster   RosterConfig
	Tracing  TracingConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	database, err := loadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	dialogue, err := loadDialogueConfig()
	if err != nil {
		return nil, err
	}

	roster, err := loadRosterConfig()
	if err != nil {
		return nil, err
	}

	tracing, err := loadTracingConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Database: database, AI: ai, Dialogue: dialogue, Roster: roster, Tracing: tracing}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址与跨域来源。
func loadServerConfig() (ServerConfig, error) {
	origins := parseListEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"})

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// DatabaseConfig 描述 PostgreSQL 连接。URL 为空时使用内存存储。
type DatabaseConfig struct {
	URL      string
	MaxConns int32
}

// Enabled 表示是否配置了数据库。
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	maxConns, err := parseOptionalIntEnv("DATABASE_MAX_CONNS")
	if err != nil {
		return DatabaseConfig{}, err
	}

	cfg := DatabaseConfig{
		URL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		MaxConns: 10,
	}
	if maxConns != nil {
		if *maxConns < 1 {
			return DatabaseConfig{}, fmt.Errorf("invalid DATABASE_MAX_CONNS value: %d", *maxConns)
		}
		cfg.MaxConns = int32(*maxConns)
	}
	return cfg, nil
}

// AIConfig 描述大模型相关配置，目前只用于预约爽约风险评估。
type AIConfig struct {
	APIKey         string
	AccessKey      string
	SecretKey      string
	Model          string
	BaseURL        string
	Region         string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	RiskLLMEnabled bool
	RiskTimeout    time.Duration
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

	riskEnabled, err := parseBoolEnv("AI_RISK_LLM_ENABLED", false)
	if err != nil {
		return AIConfig{}, err
	}

	riskTimeout, err := parseDurationEnv("AI_RISK_TIMEOUT", 5*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:      strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:      strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:          strings.TrimSpace(os.Getenv("Model")),
		BaseURL:        getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		RiskLLMEnabled: riskEnabled,
		RiskTimeout:    riskTimeout,
	}, nil
}

// DialogueConfig 描述对话会话的时区与过期策略。
type DialogueConfig struct {
	Location       *time.Location
	SessionIdleTTL time.Duration
	SweepInterval  time.Duration
}

func loadDialogueConfig() (DialogueConfig, error) {
	tzName := getEnvOrDefault("CLINIC_TIMEZONE", "Local")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return DialogueConfig{}, fmt.Errorf("invalid CLINIC_TIMEZONE value %q: %w", tzName, err)
	}

	ttl, err := parseDurationEnv("SESSION_IDLE_TTL", 30*time.Minute)
	if err != nil {
		return DialogueConfig{}, err
	}

	sweep, err := parseDurationEnv("SESSION_SWEEP_INTERVAL", 5*time.Minute)
	if err != nil {
		return DialogueConfig{}, err
	}

	return DialogueConfig{Location: loc, SessionIdleTTL: ttl, SweepInterval: sweep}, nil
}

// RosterConfig 描述医生名单文件。File 为空时使用内置名单。
type RosterConfig struct {
	File  string
	Watch bool
}

func loadRosterConfig() (RosterConfig, error) {
	watch, err := parseBoolEnv("ROSTER_WATCH", true)
	if err != nil {
		return RosterConfig{}, err
	}
	return RosterConfig{
		File:  strings.TrimSpace(os.Getenv("ROSTER_FILE")),
		Watch: watch,
	}, nil
}

// TracingConfig 描述 OpenTelemetry 链路追踪。Exporter 为 none 时不采集。
type TracingConfig struct {
	Exporter    string
	ServiceName string
	SampleRatio float64
}

func loadTracingConfig() (TracingConfig, error) {
	ratio, err := parseOptionalFloatEnv("TRACING_SAMPLE_RATIO")
	if err != nil {
		return TracingConfig{}, err
	}

	cfg := TracingConfig{
		Exporter:    strings.ToLower(getEnvOrDefault("TRACING_EXPORTER", "none")),
		ServiceName: getEnvOrDefault("OTEL_SERVICE_NAME", "clinic-desk"),
		SampleRatio: 1,
	}
	if ratio != nil {
		if *ratio <= 0 || *ratio > 1 {
			return TracingConfig{}, fmt.Errorf("invalid TRACING_SAMPLE_RATIO value: %v", *ratio)
		}
		cfg.SampleRatio = *ratio
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
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

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseListEnv(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
