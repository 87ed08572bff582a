package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	pfirestore "github.com/brand-er1/clothology-express-sub000/internal/platform/firestore"
	"github.com/brand-er1/clothology-express-sub000/internal/repositories"
)

const draftCollectionPattern = "users/%s/drafts"

// DraftRepository persists wizard snapshots per user in Firestore.
type DraftRepository struct {
	provider *pfirestore.Provider
}

// NewDraftRepository constructs a Firestore-backed draft repository.
func NewDraftRepository(provider *pfirestore.Provider) (*DraftRepository, error) {
	if provider == nil {
		return nil, errors.New("draft repository requires firestore provider")
	}
	return &DraftRepository{provider: provider}, nil
}

// Save upserts the draft. A draft without an ID gets a generated document ID.
func (r *DraftRepository) Save(ctx context.Context, draft domain.Draft) (domain.Draft, error) {
	coll, err := r.collection(ctx, draft.UserID)
	if err != nil {
		return domain.Draft{}, err
	}

	docRef := coll.NewDoc()
	if id := strings.TrimSpace(draft.ID); id != "" {
		docRef = coll.Doc(id)
	}

	doc := encodeDraft(draft)
	if _, err := docRef.Set(ctx, doc); err != nil {
		return domain.Draft{}, pfirestore.WrapError("drafts.save", err)
	}
	return doc.toDomain(docRef.ID, draft.UserID), nil
}

// FindLatest returns the most recently updated draft for the user.
func (r *DraftRepository) FindLatest(ctx context.Context, userID string) (domain.Draft, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.Draft{}, err
	}

	iter := coll.OrderBy("updatedAt", firestore.Desc).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return domain.Draft{}, pfirestore.WrapError("drafts.findLatest", status.Error(codes.NotFound, "no draft"))
	}
	if err != nil {
		return domain.Draft{}, pfirestore.WrapError("drafts.findLatest", err)
	}

	var doc draftDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Draft{}, fmt.Errorf("decode draft %s: %w", snap.Ref.ID, err)
	}
	return doc.toDomain(snap.Ref.ID, userID), nil
}

// Delete removes the draft document. Deleting a missing draft is not an error.
func (r *DraftRepository) Delete(ctx context.Context, userID string, draftID string) error {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(draftID)
	if id == "" {
		return errors.New("draft repository: draft id is required")
	}
	if _, err := coll.Doc(id).Delete(ctx); err != nil {
		return pfirestore.WrapError("drafts.delete", err)
	}
	return nil
}

func (r *DraftRepository) collection(ctx context.Context, userID string) (*firestore.CollectionRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("draft repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("draft repository: user id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(fmt.Sprintf(draftCollectionPattern, uid)), nil
}

type draftDocument struct {
	Step               int                `firestore:"step"`
	ClothType          string             `firestore:"clothType,omitempty"`
	MaterialID         string             `firestore:"materialId,omitempty"`
	MaterialName       string             `firestore:"materialName,omitempty"`
	MaterialCustom     bool               `firestore:"materialCustom,omitempty"`
	DetailText         string             `firestore:"detailText,omitempty"`
	Selections         map[string]string  `firestore:"selections,omitempty"`
	ImageURLs          []string           `firestore:"imageUrls,omitempty"`
	SelectedImageIndex int                `firestore:"selectedImageIndex"`
	StoredImageURL     string             `firestore:"storedImageUrl,omitempty"`
	StoredImagePath    string             `firestore:"storedImagePath,omitempty"`
	Size               string             `firestore:"size,omitempty"`
	SizeTableEdits     map[string]float64 `firestore:"sizeTableEdits,omitempty"`
	CustomMeasurements map[string]float64 `firestore:"customMeasurements,omitempty"`
	CreatedAt          time.Time          `firestore:"createdAt"`
	UpdatedAt          time.Time          `firestore:"updatedAt"`
}

func encodeDraft(draft domain.Draft) draftDocument {
	snapshot := draft.Snapshot
	doc := draftDocument{
		Step:               snapshot.Step,
		ClothType:          string(snapshot.ClothType),
		MaterialID:         snapshot.Material.ID,
		MaterialName:       snapshot.Material.Name,
		MaterialCustom:     snapshot.Material.IsCustom,
		DetailText:         snapshot.DetailText,
		ImageURLs:          snapshot.ImageURLs,
		SelectedImageIndex: snapshot.SelectedImageIndex,
		StoredImageURL:     snapshot.StoredImageURL,
		StoredImagePath:    snapshot.StoredImagePath,
		Size:               snapshot.Size,
		SizeTableEdits:     snapshot.SizeTableEdits,
		CustomMeasurements: snapshot.CustomMeasurements,
		CreatedAt:          draft.CreatedAt.UTC(),
		UpdatedAt:          draft.UpdatedAt.UTC(),
	}
	if len(snapshot.Selections) > 0 {
		doc.Selections = make(map[string]string, len(snapshot.Selections))
		for optionType, value := range snapshot.Selections {
			doc.Selections[string(optionType)] = value
		}
	}
	return doc
}

func (d draftDocument) toDomain(id string, userID string) domain.Draft {
	snapshot := domain.CustomizationSnapshot{
		Step:      d.Step,
		ClothType: domain.GarmentType(d.ClothType),
		Material: domain.Material{
			ID:       d.MaterialID,
			Name:     d.MaterialName,
			IsCustom: d.MaterialCustom,
		},
		DetailText:         d.DetailText,
		ImageURLs:          d.ImageURLs,
		SelectedImageIndex: d.SelectedImageIndex,
		StoredImageURL:     d.StoredImageURL,
		StoredImagePath:    d.StoredImagePath,
		Size:               d.Size,
		SizeTableEdits:     d.SizeTableEdits,
		CustomMeasurements: d.CustomMeasurements,
	}
	if len(d.Selections) > 0 {
		snapshot.Selections = make(map[domain.OptionType]string, len(d.Selections))
		for optionType, value := range d.Selections {
			snapshot.Selections[domain.OptionType(optionType)] = value
		}
	}
	return domain.Draft{
		ID:        id,
		UserID:    userID,
		Snapshot:  snapshot,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

var _ repositories.DraftRepository = (*DraftRepository)(nil)
