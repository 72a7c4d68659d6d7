package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/uguis/meibo/internal/middleware"
	"github.com/uguis/meibo/internal/model"
	"github.com/uguis/meibo/internal/post"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	Get(ctx context.Context, postID string) (*model.Post, error)
	Update(ctx context.Context, principal model.Principal, postID string, upd post.PostUpdate) error
	Delete(ctx context.Context, principal model.Principal, postID string) error
}

// postForm は投稿編集フォームのテンプレートデータ。
type postForm struct {
	PostID     string
	Title      string
	Body       string
	CategoryID string
}

// PostHandler は投稿編集・削除のHTTPハンドラー。
type PostHandler struct {
	service  PostServiceInterface
	renderer *Renderer
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface, renderer *Renderer) *PostHandler {
	return &PostHandler{
		service:  service,
		renderer: renderer,
	}
}

// EditPage は投稿編集フォームを現在の内容で表示する。
// 投稿が存在しない・権限がない場合はフラッシュを積んでホームへ戻す。
// GET /{postID}/update
func (h *PostHandler) EditPage(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	principal := middleware.PrincipalFromContext(r.Context())

	record, err := h.service.Get(r.Context(), postID)
	if err != nil {
		h.redirectWithError(w, r, err, postID)
		return
	}

	if !principal.CanEdit(record.UserID) {
		setFlash(w, r, model.NewForbiddenError().Message)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	renderPage(w, h.renderer, "edit_post.html", PageData{
		Title:     "投稿の編集",
		Principal: principal,
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Flashes:   popFlashes(w, r),
		Form: &postForm{
			PostID:     record.PostID,
			Title:      record.Title,
			Body:       record.Body,
			CategoryID: record.CategoryID,
		},
	})
}

// Update は投稿の供給されたフィールドだけを上書きする。
// POST /{postID}/update
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	principal := middleware.PrincipalFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	err := h.service.Update(r.Context(), principal, postID, post.PostUpdate{
		Title:      r.PostForm.Get("title"),
		Body:       r.PostForm.Get("body"),
		CategoryID: r.PostForm.Get("category_id"),
	})
	if err != nil {
		h.redirectWithError(w, r, err, postID)
		return
	}

	setFlash(w, r, "投稿を更新しました。")
	http.Redirect(w, r, "/"+postID+"/update", http.StatusFound)
}

// Delete は投稿を削除する。削除できるのは投稿者本人と管理者のみ。
// GET, POST /{postID}/delete
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	principal := middleware.PrincipalFromContext(r.Context())

	if err := h.service.Delete(r.Context(), principal, postID); err != nil {
		h.redirectWithError(w, r, err, postID)
		return
	}

	setFlash(w, r, "投稿を削除しました。")
	http.Redirect(w, r, "/", http.StatusFound)
}

// redirectWithError はサービス層のエラーをフラッシュに畳み込み、ホームへ戻す。
// 未検出・権限不足はそのままのメッセージ、ストア障害は汎用メッセージを使う。
func (h *PostHandler) redirectWithError(w http.ResponseWriter, r *http.Request, err error, postID string) {
	var appErr *model.AppError
	if !errors.As(err, &appErr) {
		appErr = storeAppError(err)
		slog.Error("post operation failed",
			slog.String("error", err.Error()),
			slog.String("post_id", postID),
		)
	}
	setFlash(w, r, appErr.Message)
	http.Redirect(w, r, "/", http.StatusFound)
}
