// Package post は投稿の参照・編集・削除のドメインロジックを提供する。
package post

import (
	"context"
	"log/slog"

	"github.com/uguis/meibo/internal/model"
	"github.com/uguis/meibo/internal/repository"
)

// PostUpdate は投稿の部分更新内容を表す。
// 空文字のフィールドは「変更なし」として書き込み対象から外れる。
type PostUpdate struct {
	Title      string
	Body       string
	CategoryID string
}

// Service は投稿のサービス層。
type Service struct {
	postRepo  repository.PostRepository
	sanitizer *Sanitizer
}

// NewService はServiceを生成する。
func NewService(postRepo repository.PostRepository) *Service {
	return &Service{
		postRepo:  postRepo,
		sanitizer: NewSanitizer(),
	}
}

// Get は指定IDの投稿を返す。見つからない場合はPOST_NOT_FOUND。
func (s *Service) Get(ctx context.Context, postID string) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, model.NewPostNotFoundError()
	}
	return post, nil
}

// Update は投稿の供給されたフィールドだけを上書きする。
// 編集できるのは投稿者本人と管理者のみ。本文はサニタイズしてから保存する。
func (s *Service) Update(ctx context.Context, principal model.Principal, postID string, upd PostUpdate) error {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return err
	}
	if !principal.CanEdit(post.UserID) {
		slog.Warn("post update denied",
			slog.String("post_id", postID),
			slog.String("owner_id", post.UserID),
			slog.String("actor_id", principal.UserID),
		)
		return model.NewForbiddenError()
	}

	fields := map[string]any{}
	if upd.Title != "" {
		fields["title"] = upd.Title
	}
	if upd.Body != "" {
		fields["body"] = s.sanitizer.Sanitize(upd.Body)
	}
	if upd.CategoryID != "" {
		fields["category_id"] = upd.CategoryID
	}

	if err := s.postRepo.PartialUpdate(ctx, postID, fields); err != nil {
		return err
	}

	slog.Info("post updated",
		slog.String("post_id", postID),
		slog.String("actor_id", principal.UserID),
		slog.Int("field_count", len(fields)),
	)

	return nil
}

// Delete は投稿を削除する。削除できるのは投稿者本人と管理者のみ。
func (s *Service) Delete(ctx context.Context, principal model.Principal, postID string) error {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return err
	}
	if !principal.CanEdit(post.UserID) {
		slog.Warn("post delete denied",
			slog.String("post_id", postID),
			slog.String("owner_id", post.UserID),
			slog.String("actor_id", principal.UserID),
		)
		return model.NewForbiddenError()
	}

	if err := s.postRepo.DeleteByID(ctx, postID); err != nil {
		return err
	}

	slog.Info("post deleted",
		slog.String("post_id", postID),
		slog.String("actor_id", principal.UserID),
	)

	return nil
}
