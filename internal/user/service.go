// Package user は会員管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uguis/meibo/internal/credential"
	"github.com/uguis/meibo/internal/model"
	"github.com/uguis/meibo/internal/repository"
)

// Registration はバリデーション済みの登録内容を表す。
// Passwordはここでは平文で、Registerの中で一度だけハッシュ化される。
type Registration struct {
	Organization string
	DisplayName  string
	UserName     string
	Furigana     string
	Phone        string
	PostCode     string
	Address      string
	Email        string
	Password     string
	Gender       string
	DateOfBirth  string
}

// ProfileUpdate は会員情報の部分更新内容を表す。
// 空文字のフィールドは「変更なし」として書き込み対象から外れる。
// Passwordは入力があった場合のみ再ハッシュされる。
type ProfileUpdate struct {
	Organization string
	DisplayName  string
	UserName     string
	Furigana     string
	Phone        string
	PostCode     string
	Address      string
	Email        string
	Password     string
	Gender       string
	DateOfBirth  string
}

// Service は会員管理のサービス層。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// Register は新規会員を作成する。
// IDを生成し、パスワードをハッシュ化し、監査タイムスタンプを設定して挿入する。
// email重複はフォーム側のベストエフォート検査をすり抜けても
// 一意インデックス違反（repository.ErrDuplicate）として返る。
func (s *Service) Register(ctx context.Context, reg Registration) (*model.User, error) {
	hash, err := credential.Hash(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		UserID:        uuid.New().String(),
		DisplayName:   reg.DisplayName,
		UserName:      reg.UserName,
		Furigana:      reg.Furigana,
		Email:         reg.Email,
		PasswordHash:  hash,
		Gender:        reg.Gender,
		DateOfBirth:   reg.DateOfBirth,
		PostCode:      reg.PostCode,
		Address:       reg.Address,
		Phone:         reg.Phone,
		Organization:  model.Organization(reg.Organization),
		Administrator: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("new user created",
		slog.String("user_id", user.UserID),
		slog.String("organization", string(user.Organization)),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Get は指定IDの会員を返す。見つからない場合はnil。
func (s *Service) Get(ctx context.Context, userID string) (*model.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// List は全会員を返す。会員一覧ページ用のフルスキャン。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("retrieved users for maintenance page",
		slog.Int("count", len(users)),
	)

	return users, nil
}

// Update は供給されたフィールドだけを上書きする。
// 空文字のフィールドは変更せず、updated_atはリポジトリ側で常に更新される。
func (s *Service) Update(ctx context.Context, userID string, upd ProfileUpdate) error {
	fields := map[string]any{}

	setIfPresent(fields, "organization", upd.Organization)
	setIfPresent(fields, "display_name", upd.DisplayName)
	setIfPresent(fields, "user_name", upd.UserName)
	setIfPresent(fields, "furigana", upd.Furigana)
	setIfPresent(fields, "phone", upd.Phone)
	setIfPresent(fields, "post_code", upd.PostCode)
	setIfPresent(fields, "address", upd.Address)
	setIfPresent(fields, "email", upd.Email)
	setIfPresent(fields, "gender", upd.Gender)
	setIfPresent(fields, "date_of_birth", upd.DateOfBirth)

	// パスワードは入力があった場合のみ再ハッシュ
	if upd.Password != "" {
		hash, err := credential.Hash(upd.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		fields["password_hash"] = hash
	}

	if err := s.userRepo.PartialUpdate(ctx, userID, fields); err != nil {
		return err
	}

	slog.Info("user updated",
		slog.String("user_id", userID),
		slog.Int("field_count", len(fields)),
	)

	return nil
}

func setIfPresent(fields map[string]any, column, value string) {
	if value != "" {
		fields[column] = value
	}
}
