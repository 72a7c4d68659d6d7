package post

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/uguis/meibo/internal/model"
	"github.com/uguis/meibo/internal/repository"
)

type mockPostRepo struct {
	findByIDFn      func(ctx context.Context, postID string) (*model.Post, error)
	createFn        func(ctx context.Context, post *model.Post) error
	partialUpdateFn func(ctx context.Context, postID string, fields map[string]any) error
	deleteByIDFn    func(ctx context.Context, postID string) error
}

func (m *mockPostRepo) FindByID(ctx context.Context, postID string) (*model.Post, error) {
	return m.findByIDFn(ctx, postID)
}

func (m *mockPostRepo) Create(ctx context.Context, post *model.Post) error {
	return m.createFn(ctx, post)
}

func (m *mockPostRepo) PartialUpdate(ctx context.Context, postID string, fields map[string]any) error {
	return m.partialUpdateFn(ctx, postID, fields)
}

func (m *mockPostRepo) DeleteByID(ctx context.Context, postID string) error {
	return m.deleteByIDFn(ctx, postID)
}

func ownerPrincipal() model.Principal {
	return model.Principal{UserID: "owner", DisplayName: "うぐいす一号"}
}

func adminPrincipal() model.Principal {
	return model.Principal{UserID: "admin", DisplayName: "管理者", Administrator: true}
}

func strangerPrincipal() model.Principal {
	return model.Principal{UserID: "stranger", DisplayName: "第三者"}
}

func samplePost() *model.Post {
	return &model.Post{PostID: "p1", UserID: "owner", Title: "近況報告", Body: "元気です"}
}

func TestService_Get(t *testing.T) {
	service := NewService(&mockPostRepo{
		findByIDFn: func(ctx context.Context, postID string) (*model.Post, error) {
			if postID == "p1" {
				return samplePost(), nil
			}
			return nil, nil
		},
	})

	post, err := service.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.Title != "近況報告" {
		t.Errorf("title = %q", post.Title)
	}

	_, err = service.Get(context.Background(), "missing")
	var appErr *model.AppError
	if !errors.As(err, &appErr) || appErr.Code != model.ErrCodePostNotFound {
		t.Fatalf("expected POST_NOT_FOUND, got %v", err)
	}
}

func TestService_Update(t *testing.T) {
	tests := []struct {
		name      string
		principal model.Principal
		wantErr   string
	}{
		{name: "本人は更新できる", principal: ownerPrincipal()},
		{name: "管理者は更新できる", principal: adminPrincipal()},
		{name: "第三者は拒否される", principal: strangerPrincipal(), wantErr: model.ErrCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotFields map[string]any
			service := NewService(&mockPostRepo{
				findByIDFn: func(ctx context.Context, postID string) (*model.Post, error) {
					return samplePost(), nil
				},
				partialUpdateFn: func(ctx context.Context, postID string, fields map[string]any) error {
					gotFields = fields
					return nil
				},
			})

			err := service.Update(context.Background(), tt.principal, "p1", PostUpdate{Title: "改題"})
			if tt.wantErr != "" {
				var appErr *model.AppError
				if !errors.As(err, &appErr) || appErr.Code != tt.wantErr {
					t.Fatalf("expected %s, got %v", tt.wantErr, err)
				}
				if gotFields != nil {
					t.Error("partial update must not run when denied")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotFields["title"] != "改題" {
				t.Errorf("title = %v", gotFields["title"])
			}
		})
	}
}

func TestService_Update_OnlySuppliedFields(t *testing.T) {
	var gotFields map[string]any
	service := NewService(&mockPostRepo{
		findByIDFn: func(ctx context.Context, postID string) (*model.Post, error) {
			return samplePost(), nil
		},
		partialUpdateFn: func(ctx context.Context, postID string, fields map[string]any) error {
			gotFields = fields
			return nil
		},
	})

	err := service.Update(context.Background(), ownerPrincipal(), "p1", PostUpdate{Body: "本文だけ更新"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotFields) != 1 {
		t.Fatalf("expected 1 field, got %v", gotFields)
	}
	if gotFields["body"] != "本文だけ更新" {
		t.Errorf("body = %v", gotFields["body"])
	}
}

func TestService_Update_SanitizesBody(t *testing.T) {
	var gotFields map[string]any
	service := NewService(&mockPostRepo{
		findByIDFn: func(ctx context.Context, postID string) (*model.Post, error) {
			return samplePost(), nil
		},
		partialUpdateFn: func(ctx context.Context, postID string, fields map[string]any) error {
			gotFields = fields
			return nil
		},
	})

	err := service.Update(context.Background(), ownerPrincipal(), "p1", PostUpdate{
		Body: `こんにちは<script>alert("xss")</script>`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, _ := gotFields["body"].(string)
	if strings.Contains(body, "<script>") {
		t.Errorf("script tag survived sanitization: %q", body)
	}
	if !strings.Contains(body, "こんにちは") {
		t.Errorf("plain text was lost: %q", body)
	}
}

func TestService_Delete(t *testing.T) {
	tests := []struct {
		name      string
		principal model.Principal
		wantErr   string
	}{
		{name: "本人は削除できる", principal: ownerPrincipal()},
		{name: "管理者は削除できる", principal: adminPrincipal()},
		{name: "第三者は拒否される", principal: strangerPrincipal(), wantErr: model.ErrCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deleted := false
			service := NewService(&mockPostRepo{
				findByIDFn: func(ctx context.Context, postID string) (*model.Post, error) {
					return samplePost(), nil
				},
				deleteByIDFn: func(ctx context.Context, postID string) error {
					deleted = true
					return nil
				},
			})

			err := service.Delete(context.Background(), tt.principal, "p1")
			if tt.wantErr != "" {
				var appErr *model.AppError
				if !errors.As(err, &appErr) || appErr.Code != tt.wantErr {
					t.Fatalf("expected %s, got %v", tt.wantErr, err)
				}
				if deleted {
					t.Error("delete must not run when denied")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !deleted {
				t.Error("post was not deleted")
			}
		})
	}
}

func TestService_Delete_NotFound(t *testing.T) {
	service := NewService(&mockPostRepo{
		findByIDFn: func(ctx context.Context, postID string) (*model.Post, error) {
			return nil, nil
		},
	})

	err := service.Delete(context.Background(), adminPrincipal(), "missing")
	var appErr *model.AppError
	if !errors.As(err, &appErr) || appErr.Code != model.ErrCodePostNotFound {
		t.Fatalf("expected POST_NOT_FOUND, got %v", err)
	}
}

func TestService_Get_StoreFailure(t *testing.T) {
	service := NewService(&mockPostRepo{
		findByIDFn: func(ctx context.Context, postID string) (*model.Post, error) {
			return nil, repository.ErrUnavailable
		},
	})

	_, err := service.Get(context.Background(), "p1")
	if !errors.Is(err, repository.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
