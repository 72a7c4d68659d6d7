package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/uguis/meibo/internal/form"
	"github.com/uguis/meibo/internal/middleware"
	"github.com/uguis/meibo/internal/model"
	"github.com/uguis/meibo/internal/repository"
	"github.com/uguis/meibo/internal/user"
)

// UserServiceInterface は会員ハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	Get(ctx context.Context, userID string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Update(ctx context.Context, userID string, upd user.ProfileUpdate) error
}

// UserHandler は会員一覧・会員情報編集のHTTPハンドラー。
type UserHandler struct {
	service     UserServiceInterface
	emailFinder form.EmailFinder
	renderer    *Renderer
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, emailFinder form.EmailFinder, renderer *Renderer) *UserHandler {
	return &UserHandler{
		service:     service,
		emailFinder: emailFinder,
		renderer:    renderer,
	}
}

// Index はトップページを表示する。認証必須。
// GET /
func (h *UserHandler) Index(w http.ResponseWriter, r *http.Request) {
	renderPage(w, h.renderer, "index.html", PageData{
		Title:     "ホーム",
		Principal: middleware.PrincipalFromContext(r.Context()),
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Flashes:   popFlashes(w, r),
	})
}

// Maintenance は会員一覧を表示する。認証必須。
// ストア障害時はフラッシュを積んでホームへ戻す。
// GET /user_maintenance
func (h *UserHandler) Maintenance(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		appErr := storeAppError(err)
		slog.Error("failed to list users",
			slog.String("error", err.Error()),
			slog.String("code", appErr.Code),
		)
		setFlash(w, r, appErr.Message)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	renderPage(w, h.renderer, "user_maintenance.html", PageData{
		Title:     "会員一覧",
		Principal: middleware.PrincipalFromContext(r.Context()),
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Flashes:   popFlashes(w, r),
		Data:      users,
	})
}

// AccountPage は会員情報編集フォームを現在の登録内容で表示する。
// 対象会員が存在しない場合は404、本人でも管理者でもない場合は403。
// ストア障害時はフラッシュを積んでホームへ戻す。
// GET /{userID}/account
func (h *UserHandler) AccountPage(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	principal := middleware.PrincipalFromContext(r.Context())

	if !principal.CanEdit(userID) {
		http.Error(w, model.NewForbiddenError().Message, http.StatusForbidden)
		return
	}

	record, err := h.service.Get(r.Context(), userID)
	if err != nil {
		appErr := storeAppError(err)
		slog.Error("failed to find user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID),
		)
		setFlash(w, r, appErr.Message)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if record == nil {
		http.Error(w, model.NewUserNotFoundError().Message, http.StatusNotFound)
		return
	}

	f := &form.AccountForm{
		UserID:       record.UserID,
		Organization: string(record.Organization),
		DisplayName:  record.DisplayName,
		UserName:     record.UserName,
		Furigana:     record.Furigana,
		Phone:        record.Phone,
		PostCode:     record.PostCode,
		Address:      record.Address,
		Email:        record.Email,
		Gender:       record.Gender,
		DateOfBirth:  record.DateOfBirth,
	}

	renderPage(w, h.renderer, "account.html", PageData{
		Title:     "会員情報の編集",
		Principal: principal,
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Flashes:   popFlashes(w, r),
		Errors:    form.Errors{},
		Form:      f,
	})
}

// AccountUpdate は会員情報を部分更新する。
// POST /{userID}/account
func (h *UserHandler) AccountUpdate(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	principal := middleware.PrincipalFromContext(r.Context())

	if !principal.CanEdit(userID) {
		http.Error(w, model.NewForbiddenError().Message, http.StatusForbidden)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	f := form.NewAccountForm(userID, r.PostForm)
	errs := f.Validate(r.Context(), h.emailFinder)
	if !errs.Valid() {
		renderPage(w, h.renderer, "account.html", PageData{
			Title:     "会員情報の編集",
			Principal: principal,
			CSRFToken: middleware.CSRFTokenFromRequest(r),
			Errors:    errs,
			Form:      f,
		})
		return
	}

	err := h.service.Update(r.Context(), userID, user.ProfileUpdate{
		Organization: f.Organization,
		DisplayName:  f.DisplayName,
		UserName:     f.UserName,
		Furigana:     f.Furigana,
		Phone:        f.Phone,
		PostCode:     f.PostCode,
		Address:      f.Address,
		Email:        f.Email,
		Password:     f.Password,
		Gender:       f.Gender,
		DateOfBirth:  f.DateOfBirth,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, model.NewUserNotFoundError().Message, http.StatusNotFound)
			return
		}
		appErr := storeAppError(err)
		slog.Error("failed to update user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID),
		)
		setFlash(w, r, appErr.Message)
		http.Redirect(w, r, "/"+userID+"/account", http.StatusFound)
		return
	}

	setFlash(w, r, "会員情報を更新しました。")
	http.Redirect(w, r, "/user_maintenance", http.StatusFound)
}

// storeAppError はリポジトリのエラーをユーザー提示用エラーに変換する。
func storeAppError(err error) *model.AppError {
	switch {
	case errors.Is(err, repository.ErrTableMissing):
		return model.NewTableMissingError()
	case errors.Is(err, repository.ErrUnavailable):
		return model.NewStoreUnavailableError()
	case errors.Is(err, repository.ErrInvalidData):
		return model.NewInvalidInputError()
	default:
		return model.NewUnexpectedError()
	}
}
