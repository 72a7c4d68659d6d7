package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uguis/meibo/internal/config"
	"github.com/uguis/meibo/internal/credential"
	"github.com/uguis/meibo/internal/database"
	"github.com/uguis/meibo/internal/model"
	"github.com/uguis/meibo/internal/repository"
)

// runSeed は管理者アカウントとサンプル投稿を投入する。
// 管理者のメールアドレスが既に登録されている場合は何もしない（再実行可能）。
// 資格情報はSEED_ADMIN_EMAILとSEED_ADMIN_PASSWORDから読む。
func runSeed(cfg *config.Config) error {
	adminEmail := strings.ToLower(strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL")))
	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		return fmt.Errorf("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are required for seeding")
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userRepo := repository.NewPostgresUserRepo(db)
	postRepo := repository.NewPostgresPostRepo(db)

	existing, err := userRepo.FindByEmail(ctx, adminEmail)
	if err != nil {
		return fmt.Errorf("failed to check admin account: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("seed skipped: admin account already exists",
			slog.String("email", adminEmail),
		)
		return nil
	}

	hash, err := credential.Hash(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := time.Now()
	admin := &model.User{
		UserID:        uuid.New().String(),
		DisplayName:   "管理者",
		UserName:      "管理者",
		Furigana:      "かんりしゃ",
		Email:         adminEmail,
		PasswordHash:  hash,
		Gender:        "other",
		DateOfBirth:   "1970-01-01",
		PostCode:      "0000000",
		Address:       "未設定",
		Phone:         "0000000000",
		Organization:  model.OrganizationUguis,
		Administrator: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	slog.Info("admin account created",
		slog.String("user_id", admin.UserID),
		slog.String("email", admin.Email),
	)

	samplePosts := []*model.Post{
		{Title: "運用開始のお知らせ", Body: "会員名簿の運用を開始しました。", CategoryID: "news"},
		{Title: "使い方", Body: "会員情報はアカウントページから編集できます。", CategoryID: "guide"},
	}
	for _, p := range samplePosts {
		p.PostID = uuid.New().String()
		p.UserID = admin.UserID
		p.CreatedAt = now
		p.UpdatedAt = now
		if err := postRepo.Create(ctx, p); err != nil {
			return fmt.Errorf("failed to create sample post: %w", err)
		}
	}

	slog.Info("seed completed",
		slog.Int("sample_posts", len(samplePosts)),
	)
	return nil
}
