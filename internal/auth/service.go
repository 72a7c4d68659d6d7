// Package auth は資格情報ログイン、セッション管理、主体解決を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/uguis/meibo/internal/model"
	"github.com/uguis/meibo/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge  int           // 通常ログインのセッション有効期間（秒）
	RememberMaxAge time.Duration // 「ログイン状態を保持する」選択時の有効期間
}

// Service は認証に関するビジネスロジックを提供する。
// パスワード照合はフォームバリデーション側で完了している前提で、
// ここではセッションの発行・破棄・解決だけを扱う。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// Login は照合済み会員にセッションを発行する。
// rememberがtrueの場合は有効期間をRememberMaxAgeまで延長する。
func (s *Service) Login(ctx context.Context, user *model.User, remember bool) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(s.config.SessionMaxAge) * time.Second)
	if remember {
		expiresAt = now.Add(s.config.RememberMaxAge)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    user.UserID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.UserID),
		slog.Bool("remember", remember),
	)

	return session, nil
}

// Logout はセッションを無条件に破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// ResolvePrincipal はセッショントークンから主体を解決する純粋な関数。
// セッション不在・期限切れ・会員不在のいずれもAnonymous（ゼロ値）を返し、
// エラーはストア障害の場合にのみ返す。
func (s *Service) ResolvePrincipal(ctx context.Context, sessionID string) (model.Principal, error) {
	if sessionID == "" {
		return model.Principal{}, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return model.Principal{}, nil
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.Principal{}, nil
	}

	return model.Principal{
		UserID:        user.UserID,
		DisplayName:   user.DisplayName,
		Administrator: user.Administrator,
	}, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
