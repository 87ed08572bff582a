package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/brand-er1/clothology-express-sub000/internal/customize"
	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/imagegen"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/storage"
	"github.com/brand-er1/clothology-express-sub000/internal/repositories"
)

const (
	generationIDPrefix      = "gen_"
	promptIDPrefix          = "spt_"
	defaultDailyGenerations = 20
)

var (
	// ErrGenerationInvalidInput signals the caller provided invalid data.
	ErrGenerationInvalidInput = errors.New("imagegen: invalid input")
	// ErrGenerationQuotaExceeded indicates the user hit the daily generation cap.
	ErrGenerationQuotaExceeded = errors.New("imagegen: daily generation limit reached")
	// ErrGenerationNotFound indicates the generation record could not be located.
	ErrGenerationNotFound = errors.New("imagegen: generation not found")
	// ErrPromptNotFound indicates the prompt template could not be located.
	ErrPromptNotFound = errors.New("imagegen: prompt not found")
)

// PreviewStore is the slice of the storage uploader the service needs.
type PreviewStore interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
	Read(ctx context.Context, objectPath string) ([]byte, error)
	SignedURL(objectPath string) (string, error)
}

// ImageGenServiceDeps bundles collaborators for the image generation service.
type ImageGenServiceDeps struct {
	Generator imagegen.Generator
	Store     PreviewStore
	Images    repositories.GeneratedImageRepository
	Prompts   repositories.SystemPromptRepository
	Clock     func() time.Time
	// ImageCount is how many previews one generation call produces.
	ImageCount int
	// DailyLimit caps generation calls per user per day; 0 applies the default.
	DailyLimit int
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

type imageGenService struct {
	generator  imagegen.Generator
	store      PreviewStore
	images     repositories.GeneratedImageRepository
	prompts    repositories.SystemPromptRepository
	clock      func() time.Time
	imageCount int
	dailyLimit int
	log        func(ctx context.Context, event string, fields map[string]any)
}

var _ ImageGenService = (*imageGenService)(nil)

// NewImageGenService assembles the preview generation service.
func NewImageGenService(deps ImageGenServiceDeps) (ImageGenService, error) {
	if deps.Generator == nil {
		return nil, errors.New("imagegen service: generator is required")
	}
	if deps.Store == nil {
		return nil, errors.New("imagegen service: preview store is required")
	}
	if deps.Images == nil {
		return nil, errors.New("imagegen service: image repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	imageCount := deps.ImageCount
	if imageCount <= 0 {
		imageCount = 3
	}
	dailyLimit := deps.DailyLimit
	if dailyLimit <= 0 {
		dailyLimit = defaultDailyGenerations
	}
	log := deps.Logger
	if log == nil {
		log = func(context.Context, string, map[string]any) {}
	}

	return &imageGenService{
		generator:  deps.Generator,
		store:      deps.Store,
		images:     deps.Images,
		prompts:    deps.Prompts,
		clock:      func() time.Time { return clock().UTC() },
		imageCount: imageCount,
		dailyLimit: dailyLimit,
		log:        log,
	}, nil
}

// GeneratePreviews renders previews for the current selections, persists them
// under the user's preview prefix, and records the generation.
func (s *imageGenService) GeneratePreviews(ctx context.Context, cmd GeneratePreviewsCommand) (GenerationResult, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" || cmd.ClothType == "" {
		return GenerationResult{}, ErrGenerationInvalidInput
	}

	now := s.clock()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	used, err := s.images.CountSince(ctx, userID, dayStart)
	if err != nil {
		return GenerationResult{}, err
	}
	if used >= s.dailyLimit {
		return GenerationResult{}, ErrGenerationQuotaExceeded
	}

	prompt := s.assemblePrompt(ctx, cmd)
	requestID := generationIDPrefix + strings.ToLower(ulid.Make().String())

	images, err := s.generator.Generate(ctx, prompt, s.imageCount)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("generate previews: %w", err)
	}

	urls := make([]string, len(images))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, image := range images {
		i, image := i, image
		group.Go(func() error {
			objectPath := storage.PreviewObjectPath(userID, requestID, i)
			if _, err := s.store.Upload(groupCtx, objectPath, image.Data, image.MIMEType); err != nil {
				return fmt.Errorf("store preview %d: %w", i, err)
			}
			signed, err := s.store.SignedURL(objectPath)
			if err != nil {
				return fmt.Errorf("sign preview %d: %w", i, err)
			}
			urls[i] = signed
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return GenerationResult{}, err
	}

	record := domain.GeneratedImage{
		ID:          requestID,
		UserID:      userID,
		Prompt:      prompt,
		StoragePath: storage.PreviewObjectPath(userID, requestID, 0),
		ImageURLs:   urls,
		CreatedAt:   now,
	}
	if len(images) > 0 {
		record.OptimizedPrompt = images[0].EnhancedPrompt
	}
	if _, err := s.images.Insert(ctx, record); err != nil {
		s.log(ctx, "imagegen.history_insert_failed", map[string]any{
			"requestId": requestID,
			"error":     err.Error(),
		})
	}

	return GenerationResult{RequestID: requestID, Prompt: prompt, ImageURLs: urls}, nil
}

// StoreSelectedImage copies the chosen preview to the durable order prefix.
func (s *imageGenService) StoreSelectedImage(ctx context.Context, cmd StoreImageCommand) (StoredImage, error) {
	userID := strings.TrimSpace(cmd.UserID)
	requestID := strings.TrimSpace(cmd.RequestID)
	if userID == "" || requestID == "" || cmd.Index < 0 {
		return StoredImage{}, ErrGenerationInvalidInput
	}

	previewPath := storage.PreviewObjectPath(userID, requestID, cmd.Index)
	data, err := s.store.Read(ctx, previewPath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return StoredImage{}, ErrGenerationNotFound
		}
		return StoredImage{}, err
	}

	imageID := fmt.Sprintf("%s-%d", requestID, cmd.Index)
	orderPath := storage.OrderImagePath(userID, imageID)
	if _, err := s.store.Upload(ctx, orderPath, data, "image/png"); err != nil {
		return StoredImage{}, fmt.Errorf("store selected image: %w", err)
	}
	signed, err := s.store.SignedURL(orderPath)
	if err != nil {
		return StoredImage{}, fmt.Errorf("sign selected image: %w", err)
	}
	return StoredImage{URL: signed, Path: orderPath}, nil
}

// ListHistory returns the user's generation history, newest first.
func (s *imageGenService) ListHistory(ctx context.Context, userID string, pager domain.Pagination) (domain.CursorPage[domain.GeneratedImage], error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.CursorPage[domain.GeneratedImage]{}, ErrGenerationInvalidInput
	}
	return s.images.ListByUser(ctx, uid, pager)
}

// ListPrompts returns every prompt template.
func (s *imageGenService) ListPrompts(ctx context.Context) ([]domain.SystemPrompt, error) {
	if s.prompts == nil {
		return nil, errors.New("imagegen service: prompt repository not configured")
	}
	return s.prompts.List(ctx)
}

// SavePrompt upserts a prompt template.
func (s *imageGenService) SavePrompt(ctx context.Context, cmd SavePromptCommand) (domain.SystemPrompt, error) {
	if s.prompts == nil {
		return domain.SystemPrompt{}, errors.New("imagegen service: prompt repository not configured")
	}
	name := strings.TrimSpace(cmd.Name)
	content := strings.TrimSpace(cmd.Content)
	if name == "" || content == "" {
		return domain.SystemPrompt{}, ErrGenerationInvalidInput
	}

	now := s.clock()
	prompt := domain.SystemPrompt{
		ID:        strings.TrimSpace(cmd.PromptID),
		Name:      name,
		Content:   content,
		UpdatedBy: strings.TrimSpace(cmd.AdminUID),
		UpdatedAt: now,
	}
	if prompt.ID == "" {
		prompt.ID = promptIDPrefix + strings.ToLower(ulid.Make().String())
		prompt.CreatedAt = now
	} else {
		existing, err := s.prompts.List(ctx)
		if err != nil {
			return domain.SystemPrompt{}, err
		}
		for _, p := range existing {
			if p.ID == prompt.ID {
				prompt.CreatedAt = p.CreatedAt
				prompt.IsActive = p.IsActive
				break
			}
		}
		if prompt.CreatedAt.IsZero() {
			return domain.SystemPrompt{}, ErrPromptNotFound
		}
	}
	return s.prompts.Upsert(ctx, prompt)
}

// ActivatePrompt makes the prompt the single active template.
func (s *imageGenService) ActivatePrompt(ctx context.Context, promptID string, adminUID string) (domain.SystemPrompt, error) {
	if s.prompts == nil {
		return domain.SystemPrompt{}, errors.New("imagegen service: prompt repository not configured")
	}
	id := strings.TrimSpace(promptID)
	if id == "" {
		return domain.SystemPrompt{}, ErrGenerationInvalidInput
	}
	prompt, err := s.prompts.Activate(ctx, id, strings.TrimSpace(adminUID), s.clock())
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return domain.SystemPrompt{}, ErrPromptNotFound
		}
		return domain.SystemPrompt{}, err
	}
	return prompt, nil
}

// DeletePrompt removes a prompt template.
func (s *imageGenService) DeletePrompt(ctx context.Context, promptID string) error {
	if s.prompts == nil {
		return errors.New("imagegen service: prompt repository not configured")
	}
	id := strings.TrimSpace(promptID)
	if id == "" {
		return ErrGenerationInvalidInput
	}
	return s.prompts.Delete(ctx, id)
}

// assemblePrompt folds the selections into the generation prompt, prefixed by
// the active admin template when one exists.
func (s *imageGenService) assemblePrompt(ctx context.Context, cmd GeneratePreviewsCommand) string {
	built := customize.BuildPrompt(customize.PromptInput{
		ClothType: cmd.ClothType,
		Material:  cmd.Material,
		Style:     cmd.Style,
		Fit:       cmd.Fit,
		Pocket:    cmd.Pocket,
		Detail:    cmd.DetailText,
	})
	if s.prompts == nil {
		return built
	}
	active, err := s.prompts.FindActive(ctx)
	if err != nil {
		var repoErr repositories.RepositoryError
		if !errors.As(err, &repoErr) || !repoErr.IsNotFound() {
			s.log(ctx, "imagegen.active_prompt_lookup_failed", map[string]any{"error": err.Error()})
		}
		return built
	}
	content := strings.TrimSpace(active.Content)
	if content == "" {
		return built
	}
	return content + "\n" + built
}
