package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// グローバル変数としては保持せず、依存として各コンポーネントに渡す。
type Config struct {
	// Database
	DatabaseURL string

	// Session
	SessionSecret  string        // CSRFトークンのMAC鍵
	SessionMaxAge  int           // 通常ログインのセッション有効期間（秒）
	RememberMaxAge time.Duration // 「ログイン状態を保持する」選択時の有効期間

	// Rate Limit
	RateLimitCred int // 認証系エンドポイント（/login, /signup）のreq/min/IP

	// Server
	ServerPort  string
	BaseURL     string
	Environment string // dev / stg / prod 等。ログとCookie名の名前空間に使う

	// Cookie
	CookieSecure bool
	CookieDomain string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はまとめてエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.RememberMaxAge = getEnvDuration("REMEMBER_MAX_AGE", 30*24*time.Hour)
	cfg.RateLimitCred = getEnvInt("RATE_LIMIT_CRED", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.Environment = getEnvString("ENVIRONMENT", "dev")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")

	return cfg, nil
}

// SessionCookieName は環境名で名前空間化したセッションCookie名を返す。
// 同一ホストに複数環境を同居させてもCookieが衝突しないようにする。
func (c *Config) SessionCookieName() string {
	return c.Environment + "_session_id"
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
