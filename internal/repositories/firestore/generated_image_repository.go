package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	pfirestore "github.com/brand-er1/clothology-express-sub000/internal/platform/firestore"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/pagination"
	"github.com/brand-er1/clothology-express-sub000/internal/repositories"
)

const generatedImageCollection = "generated_images"

// GeneratedImageRepository records image generation calls in Firestore.
type GeneratedImageRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[generatedImageDocument]
}

// NewGeneratedImageRepository constructs a Firestore-backed generation history repository.
func NewGeneratedImageRepository(provider *pfirestore.Provider) (*GeneratedImageRepository, error) {
	if provider == nil {
		return nil, errors.New("generated image repository requires firestore provider")
	}
	return &GeneratedImageRepository{
		provider: provider,
		base:     pfirestore.NewBaseRepository[generatedImageDocument](provider, generatedImageCollection, nil, nil),
	}, nil
}

// Insert stores a generation record. The record ID must be set by the caller.
func (r *GeneratedImageRepository) Insert(ctx context.Context, image domain.GeneratedImage) (domain.GeneratedImage, error) {
	id := strings.TrimSpace(image.ID)
	if id == "" {
		return domain.GeneratedImage{}, errors.New("generated image repository: id is required")
	}
	doc := encodeGeneratedImage(image)
	if _, err := r.base.Set(ctx, id, doc); err != nil {
		return domain.GeneratedImage{}, err
	}
	return doc.toDomain(id), nil
}

// ListByUser returns generation records for the user, newest first.
func (r *GeneratedImageRepository) ListByUser(ctx context.Context, userID string, pager domain.Pagination) (domain.CursorPage[domain.GeneratedImage], error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.CursorPage[domain.GeneratedImage]{}, errors.New("generated image repository: user id is required")
	}
	limit := pagination.ClampPageSize(pager.PageSize)

	cursor, err := pagination.Decode(pager.PageToken)
	if err != nil {
		return domain.CursorPage[domain.GeneratedImage]{}, fmt.Errorf("generatedImages.list: %w", err)
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.Where("userId", "==", uid).
			OrderBy("createdAt", firestore.Desc).
			OrderBy(firestore.DocumentID, firestore.Desc)
		if cursor.LastID != "" {
			q = q.StartAfter(cursor.LastCreated, cursor.LastID)
		}
		return q.Limit(limit + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.GeneratedImage]{}, err
	}

	nextToken := ""
	if len(docs) > limit {
		docs = docs[:limit]
		last := docs[len(docs)-1]
		nextToken = pagination.Cursor{LastID: last.ID, LastCreated: last.Data.CreatedAt}.Encode()
	}

	items := make([]domain.GeneratedImage, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.Data.toDomain(doc.ID))
	}
	return domain.CursorPage[domain.GeneratedImage]{Items: items, NextPageToken: nextToken}, nil
}

// CountSince reports how many generations the user requested at or after the
// cutoff. Uses a keys-only projection so counting stays cheap.
func (r *GeneratedImageRepository) CountSince(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return 0, errors.New("generated image repository: user id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return 0, err
	}

	iter := client.Collection(generatedImageCollection).
		Where("userId", "==", uid).
		Where("createdAt", ">=", cutoff.UTC()).
		Select().
		Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return 0, pfirestore.WrapError("generatedImages.countSince", err)
		}
		count++
	}
	return count, nil
}

type generatedImageDocument struct {
	UserID          string    `firestore:"userId"`
	Prompt          string    `firestore:"prompt"`
	OptimizedPrompt string    `firestore:"optimizedPrompt,omitempty"`
	StoragePath     string    `firestore:"storagePath,omitempty"`
	StorageURL      string    `firestore:"storageUrl,omitempty"`
	ImageURLs       []string  `firestore:"imageUrls,omitempty"`
	CreatedAt       time.Time `firestore:"createdAt"`
}

func encodeGeneratedImage(image domain.GeneratedImage) generatedImageDocument {
	return generatedImageDocument{
		UserID:          image.UserID,
		Prompt:          image.Prompt,
		OptimizedPrompt: image.OptimizedPrompt,
		StoragePath:     image.StoragePath,
		StorageURL:      image.StorageURL,
		ImageURLs:       image.ImageURLs,
		CreatedAt:       image.CreatedAt.UTC(),
	}
}

func (d generatedImageDocument) toDomain(id string) domain.GeneratedImage {
	return domain.GeneratedImage{
		ID:              id,
		UserID:          d.UserID,
		Prompt:          d.Prompt,
		OptimizedPrompt: d.OptimizedPrompt,
		StoragePath:     d.StoragePath,
		StorageURL:      d.StorageURL,
		ImageURLs:       d.ImageURLs,
		CreatedAt:       d.CreatedAt,
	}
}

var _ repositories.GeneratedImageRepository = (*GeneratedImageRepository)(nil)
