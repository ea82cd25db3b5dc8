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
	Server      ServerConfig
	Data        DataConfig
	AI          AIConfig
	Gemini      GeminiConfig
	Translation TranslationConfig
	Vision      VisionConfig
	Session     SessionConfig
	RateLimit   RateLimitConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	translation, err := loadTranslationConfig()
	if err != nil {
		return nil, err
	}

	vision, err := loadVisionConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	rateLimit, err := loadRateLimitConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:      server,
		Data:        DataConfig{Path: getEnvOrDefault("DATASET_PATH", "data/dataset.csv")},
		AI:          ai,
		Gemini:      loadGeminiConfig(),
		Translation: translation,
		Vision:      vision,
		Session:     session,
		RateLimit:   rateLimit,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	MaxUploadBytes int64
}

// DataConfig 描述建议数据集的位置。
type DataConfig struct {
	Path string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	maxUpload := 10
	if override, err := parseOptionalIntEnv("MAX_UPLOAD_MB"); err != nil {
		return ServerConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ServerConfig{}, fmt.Errorf("invalid MAX_UPLOAD_MB value %d: must be positive", *override)
		}
		maxUpload = *override
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	cfg := ServerConfig{MaxUploadBytes: int64(maxUpload) << 20}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		cfg.Addr = port
		return cfg, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	cfg.Addr = ":" + port
	return cfg, nil
}

// AIConfig 描述 Ark 大模型相关配置，用于翻译。
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

// GeminiConfig 描述 Gemini 客户端配置。
type GeminiConfig struct {
	APIKey      string
	Model       string
	VisionModel string
}

func (c GeminiConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadGeminiConfig() GeminiConfig {
	textModel := getEnvOrDefault("GEMINI_MODEL_NAME", "gemini-1.5-flash")
	return GeminiConfig{
		APIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		Model:       textModel,
		VisionModel: getEnvOrDefault("GEMINI_VISION_MODEL", textModel),
	}
}

// 翻译与识图的提供方。
const (
	ProviderAuto   = "auto"
	ProviderArk    = "ark"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
	ProviderStub   = "stub"
)

// TranslationConfig 选择翻译提供方及超时。
type TranslationConfig struct {
	Provider string
	Timeout  time.Duration
}

func loadTranslationConfig() (TranslationConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("TRANSLATE_PROVIDER", ProviderAuto))
	switch provider {
	case ProviderAuto, ProviderArk, ProviderGemini, ProviderNone:
	default:
		return TranslationConfig{}, fmt.Errorf("invalid TRANSLATE_PROVIDER value %q", provider)
	}

	timeout, err := parseDurationEnv("TRANSLATE_TIMEOUT", 15*time.Second)
	if err != nil {
		return TranslationConfig{}, err
	}

	return TranslationConfig{Provider: provider, Timeout: timeout}, nil
}

// VisionConfig 选择图片分类器。
type VisionConfig struct {
	Provider string
}

func loadVisionConfig() (VisionConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("CLASSIFIER_PROVIDER", ProviderStub))
	switch provider {
	case ProviderStub, ProviderGemini:
	default:
		return VisionConfig{}, fmt.Errorf("invalid CLASSIFIER_PROVIDER value %q", provider)
	}
	return VisionConfig{Provider: provider}, nil
}

// 会话存储类型。
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// SessionConfig 描述会话存储配置。
type SessionConfig struct {
	Store    string
	RedisURL string
	TTL      time.Duration
}

func loadSessionConfig() (SessionConfig, error) {
	store := strings.ToLower(getEnvOrDefault("SESSION_STORE", SessionStoreMemory))
	switch store {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return SessionConfig{}, fmt.Errorf("invalid SESSION_STORE value %q", store)
	}

	ttl, err := parseDurationEnv("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return SessionConfig{}, err
	}

	redisURL := strings.TrimSpace(os.Getenv("REDIS_URL"))
	if store == SessionStoreRedis && redisURL == "" {
		return SessionConfig{}, fmt.Errorf("REDIS_URL is required when SESSION_STORE=redis")
	}

	return SessionConfig{Store: store, RedisURL: redisURL, TTL: ttl}, nil
}

// RateLimitConfig 描述提交接口的限流配置。
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

func loadRateLimitConfig() (RateLimitConfig, error) {
	cfg := RateLimitConfig{RPS: 5, Burst: 10}

	rps, err := parseOptionalFloatEnv("RATE_LIMIT_RPS")
	if err != nil {
		return RateLimitConfig{}, err
	}
	if rps != nil {
		cfg.RPS = *rps
	}

	burst, err := parseOptionalIntEnv("RATE_LIMIT_BURST")
	if err != nil {
		return RateLimitConfig{}, err
	}
	if burst != nil {
		cfg.Burst = *burst
	}

	if cfg.RPS <= 0 || cfg.Burst < 1 {
		return RateLimitConfig{}, fmt.Errorf("invalid rate limit rps=%v burst=%d", cfg.RPS, cfg.Burst)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
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
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
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
