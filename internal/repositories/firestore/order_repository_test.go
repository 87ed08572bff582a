package firestore

import (
	"errors"
	"testing"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	"github.com/brand-er1/clothology-express-sub000/internal/repositories"
)

func TestTransitionErrorIsConflict(t *testing.T) {
	err := error(&transitionError{from: domain.OrderStatusApproved, to: domain.OrderStatusPending})

	var repoErr repositories.RepositoryError
	if !errors.As(err, &repoErr) {
		t.Fatalf("expected transitionError to satisfy RepositoryError")
	}
	if !repoErr.IsConflict() {
		t.Fatalf("expected conflict classification")
	}
	if repoErr.IsNotFound() || repoErr.IsUnavailable() {
		t.Fatalf("unexpected classification: %#v", repoErr)
	}
}

func TestDraftDocumentSelectionsRoundTrip(t *testing.T) {
	draft := domain.Draft{
		ID:     "draft-1",
		UserID: "user-1",
		Snapshot: domain.CustomizationSnapshot{
			Step:      3,
			ClothType: domain.GarmentHoodie,
			Material:  domain.NewCustomMaterial("코듀로이"),
			Selections: map[domain.OptionType]string{
				domain.OptionStyle: "casual",
				domain.OptionColor: "black",
			},
		},
	}

	doc := encodeDraft(draft)
	if doc.Selections["style"] != "casual" {
		t.Fatalf("expected style selection, got %#v", doc.Selections)
	}
	if !doc.MaterialCustom {
		t.Fatalf("expected custom material flag")
	}

	restored := doc.toDomain(draft.ID, draft.UserID)
	if restored.Snapshot.Selections[domain.OptionColor] != "black" {
		t.Fatalf("expected color selection, got %#v", restored.Snapshot.Selections)
	}
	if restored.Snapshot.Material.Name != "코듀로이" || !restored.Snapshot.Material.IsCustom {
		t.Fatalf("unexpected material %#v", restored.Snapshot.Material)
	}
}
