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
	Server    ServerConfig
	Character CharacterConfig
	AI        AIConfig
	TTS       TTSConfig
	Cache     CacheConfig
	Trigger   TriggerConfig
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

	tts, err := loadTTSConfig()
	if err != nil {
		return nil, err
	}

	cache, err := loadCacheConfig()
	if err != nil {
		return nil, err
	}

	trigger, err := loadTriggerConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Character: loadCharacterConfig(),
		AI:        ai,
		TTS:       tts,
		Cache:     cache,
		Trigger:   trigger,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8000" 或 "127.0.0.1:8000"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// CharacterConfig 描述虚拟主播的人设。
type CharacterConfig struct {
	Name     string
	Persona  string
	Language string // zh, en, ja, ...
}

func loadCharacterConfig() CharacterConfig {
	return CharacterConfig{
		Name:     getEnvOrDefault("CHARACTER_NAME", "Nana"),
		Persona:  strings.TrimSpace(os.Getenv("CHARACTER_PERSONA")),
		Language: getEnvOrDefault("CHARACTER_LANGUAGE", "zh"),
	}
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey           string
	AccessKey        string
	SecretKey        string
	Model            string
	BaseURL          string
	Region           string
	Temperature      *float64
	TopP             *float64
	MaxTokens        *int
	Timeout          time.Duration
	TranscriptBudget int // transcript budget sent to the model, in UTF-8 bytes
	HistoryLimit     int // turns kept per session before trimming
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
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

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
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

	timeout, err := parseDurationSecondsEnv("AI_TIMEOUT", 30*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	budget := 4000
	if override, err := parseOptionalIntEnv("AI_TRANSCRIPT_BUDGET"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		budget = *override
	}

	historyLimit := 20
	if override, err := parseOptionalIntEnv("AI_HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		historyLimit = *override
	}

	return AIConfig{
		APIKey:           strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:        strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:        strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:            strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:          getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:           getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:      temperature,
		TopP:             topP,
		MaxTokens:        maxTokens,
		Timeout:          timeout,
		TranscriptBudget: budget,
		HistoryLimit:     historyLimit,
	}, nil
}

// TTSConfig 描述语音合成服务相关配置。
type TTSConfig struct {
	BaseURL string
	Voice   string
	Timeout time.Duration
	Enabled bool
}

func loadTTSConfig() (TTSConfig, error) {
	timeout, err := parseDurationSecondsEnv("TTS_TIMEOUT", 10*time.Second)
	if err != nil {
		return TTSConfig{}, err
	}

	baseURL := strings.TrimSpace(os.Getenv("TTS_BASE_URL"))

	return TTSConfig{
		BaseURL: baseURL,
		Voice:   strings.TrimSpace(os.Getenv("TTS_VOICE")),
		Timeout: timeout,
		Enabled: baseURL != "",
	}, nil
}

// CacheConfig 描述音频缓存配置。
type CacheConfig struct {
	Driver        string // memory 或 redis
	Capacity      int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
}

func loadCacheConfig() (CacheConfig, error) {
	capacity := 100
	if override, err := parseOptionalIntEnv("CACHE_CAPACITY"); err != nil {
		return CacheConfig{}, err
	} else if override != nil && *override > 0 {
		capacity = *override
	}

	db := 0
	if override, err := parseOptionalIntEnv("CACHE_REDIS_DB"); err != nil {
		return CacheConfig{}, err
	} else if override != nil {
		db = *override
	}

	ttl, err := parseDurationSecondsEnv("CACHE_REDIS_TTL", 24*time.Hour)
	if err != nil {
		return CacheConfig{}, err
	}

	return CacheConfig{
		Driver:        getEnvOrDefault("CACHE_DRIVER", "memory"),
		Capacity:      capacity,
		RedisAddr:     getEnvOrDefault("CACHE_REDIS_ADDR", "localhost:6379"),
		RedisPassword: strings.TrimSpace(os.Getenv("CACHE_REDIS_PASSWORD")),
		RedisDB:       db,
		RedisTTL:      ttl,
	}, nil
}

// TriggerConfig 描述情绪触发策略。
type TriggerConfig struct {
	Cooldown time.Duration
	Emotions []string
}

func loadTriggerConfig() (TriggerConfig, error) {
	cooldown, err := parseDurationSecondsEnv("EMOTION_COOLDOWN", 30*time.Second)
	if err != nil {
		return TriggerConfig{}, err
	}

	emotions := []string{"sad", "angry"}
	if raw := strings.TrimSpace(os.Getenv("EMOTION_TRIGGERS")); raw != "" {
		emotions = emotions[:0]
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				emotions = append(emotions, part)
			}
		}
	}

	return TriggerConfig{Cooldown: cooldown, Emotions: emotions}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
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

// parseDurationSecondsEnv 以秒为单位解析时长。
func parseDurationSecondsEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	override, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if override == nil || *override <= 0 {
		return defaultValue, nil
	}
	return time.Duration(*override) * time.Second, nil
}
