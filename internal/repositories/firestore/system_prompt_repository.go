package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	pfirestore "github.com/brand-er1/clothology-express-sub000/internal/platform/firestore"
	"github.com/brand-er1/clothology-express-sub000/internal/repositories"
)

const systemPromptCollection = "system_prompts"

// SystemPromptRepository persists prompt templates in Firestore.
type SystemPromptRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[systemPromptDocument]
}

// NewSystemPromptRepository constructs a Firestore-backed prompt repository.
func NewSystemPromptRepository(provider *pfirestore.Provider) (*SystemPromptRepository, error) {
	if provider == nil {
		return nil, errors.New("system prompt repository requires firestore provider")
	}
	return &SystemPromptRepository{
		provider: provider,
		base:     pfirestore.NewBaseRepository[systemPromptDocument](provider, systemPromptCollection, nil, nil),
	}, nil
}

// FindActive returns the single active prompt template.
func (r *SystemPromptRepository) FindActive(ctx context.Context) (domain.SystemPrompt, error) {
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("isActive", "==", true).Limit(1)
	})
	if err != nil {
		return domain.SystemPrompt{}, err
	}
	if len(docs) == 0 {
		return domain.SystemPrompt{}, pfirestore.WrapError("systemPrompts.findActive",
			status.Error(codes.NotFound, "no active prompt"))
	}
	return docs[0].Data.toDomain(docs[0].ID), nil
}

// List returns every prompt template, most recently updated first.
func (r *SystemPromptRepository) List(ctx context.Context) ([]domain.SystemPrompt, error) {
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("updatedAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	prompts := make([]domain.SystemPrompt, 0, len(docs))
	for _, doc := range docs {
		prompts = append(prompts, doc.Data.toDomain(doc.ID))
	}
	return prompts, nil
}

// Upsert stores the prompt under its ID.
func (r *SystemPromptRepository) Upsert(ctx context.Context, prompt domain.SystemPrompt) (domain.SystemPrompt, error) {
	id := strings.TrimSpace(prompt.ID)
	if id == "" {
		return domain.SystemPrompt{}, errors.New("system prompt repository: prompt id is required")
	}
	doc := encodeSystemPrompt(prompt)
	if _, err := r.base.Set(ctx, id, doc); err != nil {
		return domain.SystemPrompt{}, err
	}
	return doc.toDomain(id), nil
}

// Activate marks the prompt active and deactivates every other prompt in one
// transaction so exactly one prompt stays active.
func (r *SystemPromptRepository) Activate(ctx context.Context, promptID string, updatedBy string, now time.Time) (domain.SystemPrompt, error) {
	docRef, err := r.base.DocumentRef(ctx, promptID)
	if err != nil {
		return domain.SystemPrompt{}, err
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.SystemPrompt{}, err
	}

	var activated domain.SystemPrompt
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		var doc systemPromptDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode system prompt %s: %w", snap.Ref.ID, err)
		}

		activeQuery := client.Collection(systemPromptCollection).Where("isActive", "==", true)
		actives, err := tx.Documents(activeQuery).GetAll()
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		at := now.UTC()
		doc.IsActive = true
		doc.UpdatedBy = strings.TrimSpace(updatedBy)
		doc.UpdatedAt = at
		if err := tx.Set(docRef, doc); err != nil {
			return err
		}
		for _, active := range actives {
			if active.Ref.ID == docRef.ID {
				continue
			}
			if err := tx.Update(active.Ref, []firestore.Update{
				{Path: "isActive", Value: false},
				{Path: "updatedAt", Value: at},
			}); err != nil {
				return err
			}
		}
		activated = doc.toDomain(docRef.ID)
		return nil
	})
	if err != nil {
		return domain.SystemPrompt{}, pfirestore.WrapError("systemPrompts.activate", err)
	}
	return activated, nil
}

// Delete removes the prompt template.
func (r *SystemPromptRepository) Delete(ctx context.Context, promptID string) error {
	return r.base.Delete(ctx, promptID)
}

type systemPromptDocument struct {
	Name      string    `firestore:"name"`
	Content   string    `firestore:"content"`
	IsActive  bool      `firestore:"isActive"`
	UpdatedBy string    `firestore:"updatedBy,omitempty"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func encodeSystemPrompt(prompt domain.SystemPrompt) systemPromptDocument {
	return systemPromptDocument{
		Name:      strings.TrimSpace(prompt.Name),
		Content:   prompt.Content,
		IsActive:  prompt.IsActive,
		UpdatedBy: strings.TrimSpace(prompt.UpdatedBy),
		CreatedAt: prompt.CreatedAt.UTC(),
		UpdatedAt: prompt.UpdatedAt.UTC(),
	}
}

func (d systemPromptDocument) toDomain(id string) domain.SystemPrompt {
	return domain.SystemPrompt{
		ID:        id,
		Name:      d.Name,
		Content:   d.Content,
		IsActive:  d.IsActive,
		UpdatedBy: d.UpdatedBy,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

var _ repositories.SystemPromptRepository = (*SystemPromptRepository)(nil)
