package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/imagegen"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/storage"
)

type stubGenerator struct {
	prompt string
	count  int
	images []imagegen.GeneratedImage
	err    error
}

func (s *stubGenerator) Generate(_ context.Context, prompt string, count int) ([]imagegen.GeneratedImage, error) {
	s.prompt = prompt
	s.count = count
	return s.images, s.err
}

type stubPreviewStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newStubPreviewStore() *stubPreviewStore {
	return &stubPreviewStore{objects: make(map[string][]byte)}
}

func (s *stubPreviewStore) Upload(_ context.Context, objectPath string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectPath] = data
	return "gs://test/" + objectPath, nil
}

func (s *stubPreviewStore) Read(_ context.Context, objectPath string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[objectPath]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (s *stubPreviewStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *stubPreviewStore) SignedURL(objectPath string) (string, error) {
	return "https://signed.test/" + objectPath, nil
}

type stubImageRepo struct {
	inserted []domain.GeneratedImage
	count    int
	countErr error
	page     domain.CursorPage[domain.GeneratedImage]
}

func (s *stubImageRepo) Insert(_ context.Context, image domain.GeneratedImage) (domain.GeneratedImage, error) {
	s.inserted = append(s.inserted, image)
	return image, nil
}

func (s *stubImageRepo) ListByUser(context.Context, string, domain.Pagination) (domain.CursorPage[domain.GeneratedImage], error) {
	return s.page, nil
}

func (s *stubImageRepo) CountSince(context.Context, string, time.Time) (int, error) {
	return s.count, s.countErr
}

type stubPromptRepo struct {
	active    domain.SystemPrompt
	activeErr error
	prompts   []domain.SystemPrompt
	upserts   []domain.SystemPrompt
	activated []string
}

func (s *stubPromptRepo) FindActive(context.Context) (domain.SystemPrompt, error) {
	return s.active, s.activeErr
}

func (s *stubPromptRepo) List(context.Context) ([]domain.SystemPrompt, error) {
	return s.prompts, nil
}

func (s *stubPromptRepo) Upsert(_ context.Context, prompt domain.SystemPrompt) (domain.SystemPrompt, error) {
	s.upserts = append(s.upserts, prompt)
	return prompt, nil
}

func (s *stubPromptRepo) Activate(_ context.Context, promptID string, updatedBy string, _ time.Time) (domain.SystemPrompt, error) {
	s.activated = append(s.activated, promptID)
	return domain.SystemPrompt{ID: promptID, IsActive: true, UpdatedBy: updatedBy}, nil
}

func (s *stubPromptRepo) Delete(context.Context, string) error { return nil }

func testImages() []imagegen.GeneratedImage {
	return []imagegen.GeneratedImage{
		{Data: []byte("png-0"), MIMEType: "image/png", EnhancedPrompt: "enhanced"},
		{Data: []byte("png-1"), MIMEType: "image/png"},
		{Data: []byte("png-2"), MIMEType: "image/png"},
	}
}

func newTestImageGenService(t *testing.T, gen *stubGenerator, store *stubPreviewStore, images *stubImageRepo, prompts *stubPromptRepo) ImageGenService {
	t.Helper()
	svc, err := NewImageGenService(ImageGenServiceDeps{
		Generator:  gen,
		Store:      store,
		Images:     images,
		Prompts:    prompts,
		Clock:      func() time.Time { return time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC) },
		ImageCount: 3,
		DailyLimit: 5,
	})
	if err != nil {
		t.Fatalf("NewImageGenService: %v", err)
	}
	return svc
}

func TestImageGenServiceGeneratePreviews(t *testing.T) {
	t.Run("renders, stores and records previews", func(t *testing.T) {
		gen := &stubGenerator{images: testImages()}
		store := newStubPreviewStore()
		images := &stubImageRepo{}
		prompts := &stubPromptRepo{activeErr: &stubRepoErr{notFound: true}}
		svc := newTestImageGenService(t, gen, store, images, prompts)

		result, err := svc.GeneratePreviews(context.Background(), GeneratePreviewsCommand{
			UserID:     "u1",
			ClothType:  domain.GarmentHoodie,
			Material:   "면",
			Style:      "street",
			DetailText: "등판에 큰 로고",
		})
		if err != nil {
			t.Fatalf("GeneratePreviews: %v", err)
		}
		if gen.count != 3 {
			t.Fatalf("expected 3 images requested, got %d", gen.count)
		}
		if !strings.Contains(gen.prompt, "hoodie") {
			t.Fatalf("expected garment in prompt, got %q", gen.prompt)
		}
		if len(result.ImageURLs) != 3 {
			t.Fatalf("expected 3 urls, got %#v", result.ImageURLs)
		}
		if store.len() != 3 {
			t.Fatalf("expected 3 stored objects, got %d", store.len())
		}
		if len(images.inserted) != 1 {
			t.Fatalf("expected history record, got %d", len(images.inserted))
		}
		if images.inserted[0].OptimizedPrompt != "enhanced" {
			t.Fatalf("expected enhanced prompt recorded, got %q", images.inserted[0].OptimizedPrompt)
		}
	})

	t.Run("prefixes the active template", func(t *testing.T) {
		gen := &stubGenerator{images: testImages()}
		prompts := &stubPromptRepo{active: domain.SystemPrompt{ID: "spt_1", Content: "ultra detailed fashion render"}}
		svc := newTestImageGenService(t, gen, newStubPreviewStore(), &stubImageRepo{}, prompts)

		if _, err := svc.GeneratePreviews(context.Background(), GeneratePreviewsCommand{
			UserID:    "u1",
			ClothType: domain.GarmentJacket,
		}); err != nil {
			t.Fatalf("GeneratePreviews: %v", err)
		}
		if !strings.HasPrefix(gen.prompt, "ultra detailed fashion render\n") {
			t.Fatalf("expected template prefix, got %q", gen.prompt)
		}
	})

	t.Run("enforces the daily quota", func(t *testing.T) {
		images := &stubImageRepo{count: 5}
		svc := newTestImageGenService(t, &stubGenerator{images: testImages()}, newStubPreviewStore(), images, &stubPromptRepo{})

		_, err := svc.GeneratePreviews(context.Background(), GeneratePreviewsCommand{UserID: "u1", ClothType: domain.GarmentHoodie})
		if !errors.Is(err, ErrGenerationQuotaExceeded) {
			t.Fatalf("expected ErrGenerationQuotaExceeded, got %v", err)
		}
	})

	t.Run("rejects missing input", func(t *testing.T) {
		svc := newTestImageGenService(t, &stubGenerator{}, newStubPreviewStore(), &stubImageRepo{}, &stubPromptRepo{})
		if _, err := svc.GeneratePreviews(context.Background(), GeneratePreviewsCommand{UserID: "u1"}); !errors.Is(err, ErrGenerationInvalidInput) {
			t.Fatalf("expected ErrGenerationInvalidInput, got %v", err)
		}
	})
}

func TestImageGenServiceStoreSelectedImage(t *testing.T) {
	store := newStubPreviewStore()
	previewPath := storage.PreviewObjectPath("u1", "gen_abc", 1)
	store.objects[previewPath] = []byte("png-1")

	svc := newTestImageGenService(t, &stubGenerator{}, store, &stubImageRepo{}, &stubPromptRepo{})

	stored, err := svc.StoreSelectedImage(context.Background(), StoreImageCommand{
		UserID:    "u1",
		RequestID: "gen_abc",
		Index:     1,
	})
	if err != nil {
		t.Fatalf("StoreSelectedImage: %v", err)
	}
	if !strings.HasPrefix(stored.Path, "orders/u1/") {
		t.Fatalf("expected durable order path, got %q", stored.Path)
	}
	if string(store.objects[stored.Path]) != "png-1" {
		t.Fatalf("expected preview bytes copied")
	}

	t.Run("missing preview maps to not found", func(t *testing.T) {
		_, err := svc.StoreSelectedImage(context.Background(), StoreImageCommand{UserID: "u1", RequestID: "gen_missing", Index: 0})
		if !errors.Is(err, ErrGenerationNotFound) {
			t.Fatalf("expected ErrGenerationNotFound, got %v", err)
		}
	})
}

func TestImageGenServiceSavePrompt(t *testing.T) {
	prompts := &stubPromptRepo{prompts: []domain.SystemPrompt{{ID: "spt_1", CreatedAt: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), IsActive: true}}}
	svc := newTestImageGenService(t, &stubGenerator{}, newStubPreviewStore(), &stubImageRepo{}, prompts)

	t.Run("creates with generated id", func(t *testing.T) {
		prompt, err := svc.SavePrompt(context.Background(), SavePromptCommand{Name: "기본", Content: "studio shot", AdminUID: "admin-1"})
		if err != nil {
			t.Fatalf("SavePrompt: %v", err)
		}
		if !strings.HasPrefix(prompt.ID, "spt_") {
			t.Fatalf("expected generated id, got %q", prompt.ID)
		}
	})

	t.Run("update keeps created time and active flag", func(t *testing.T) {
		prompt, err := svc.SavePrompt(context.Background(), SavePromptCommand{PromptID: "spt_1", Name: "수정", Content: "v2"})
		if err != nil {
			t.Fatalf("SavePrompt: %v", err)
		}
		if !prompt.IsActive || prompt.CreatedAt.IsZero() {
			t.Fatalf("expected preserved metadata, got %#v", prompt)
		}
	})

	t.Run("unknown id fails", func(t *testing.T) {
		if _, err := svc.SavePrompt(context.Background(), SavePromptCommand{PromptID: "spt_missing", Name: "x", Content: "y"}); !errors.Is(err, ErrPromptNotFound) {
			t.Fatalf("expected ErrPromptNotFound, got %v", err)
		}
	})
}
