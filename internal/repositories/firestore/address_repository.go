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

const addressCollectionPattern = "users/%s/addresses"

// AddressRepository persists delivery addresses per user in Firestore.
type AddressRepository struct {
	provider *pfirestore.Provider
}

// NewAddressRepository constructs a Firestore-backed address repository.
func NewAddressRepository(provider *pfirestore.Provider) (*AddressRepository, error) {
	if provider == nil {
		return nil, errors.New("address repository requires firestore provider")
	}
	return &AddressRepository{provider: provider}, nil
}

// List returns all addresses for the user, default first, then most recent.
func (r *AddressRepository) List(ctx context.Context, userID string) ([]domain.Address, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return nil, err
	}

	iter := coll.OrderBy("isDefault", firestore.Desc).OrderBy("updatedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var results []domain.Address
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("addresses.list", err)
		}
		addr, err := decodeAddressDocument(snap)
		if err != nil {
			return nil, err
		}
		results = append(results, addr)
	}
	return results, nil
}

// Get fetches a single address.
func (r *AddressRepository) Get(ctx context.Context, userID string, addressID string) (domain.Address, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.Address{}, err
	}
	id := strings.TrimSpace(addressID)
	if id == "" {
		return domain.Address{}, errors.New("address repository: address id is required")
	}
	snap, err := coll.Doc(id).Get(ctx)
	if err != nil {
		return domain.Address{}, pfirestore.WrapError("addresses.get", err)
	}
	return decodeAddressDocument(snap)
}

// Upsert creates or updates an address. Marking an address default clears the
// flag on every other address in the same write.
func (r *AddressRepository) Upsert(ctx context.Context, userID string, addressID *string, addr domain.Address) (domain.Address, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.Address{}, err
	}

	var saved domain.Address
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docRef := coll.NewDoc()
		if addressID != nil {
			if id := strings.TrimSpace(*addressID); id != "" {
				docRef = coll.Doc(id)
			}
		}

		var doc addressDocument
		snap, err := tx.Get(docRef)
		switch status.Code(err) {
		case codes.NotFound:
			// new document
		case codes.OK:
			if err := snap.DataTo(&doc); err != nil {
				return fmt.Errorf("decode address %s: %w", snap.Ref.ID, err)
			}
		default:
			return err
		}

		// Reads must complete before the first write in a transaction.
		var defaults []*firestore.DocumentRef
		if addr.IsDefault {
			defaults, err = defaultAddressRefs(tx, coll, docRef.ID)
			if err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}
		doc.UpdatedAt = now
		doc.Recipient = strings.TrimSpace(addr.Recipient)
		doc.Phone = strings.TrimSpace(addr.Phone)
		doc.PostalCode = strings.TrimSpace(addr.PostalCode)
		doc.Line1 = strings.TrimSpace(addr.Line1)
		doc.Line2 = strings.TrimSpace(addr.Line2)
		doc.IsDefault = addr.IsDefault

		if err := tx.Set(docRef, doc); err != nil {
			return err
		}
		if err := clearDefaultFlags(tx, defaults); err != nil {
			return err
		}
		saved = doc.toDomain(docRef.ID)
		return nil
	})
	if err != nil {
		return domain.Address{}, pfirestore.WrapError("addresses.upsert", err)
	}
	return saved, nil
}

// Delete removes the specified address document.
func (r *AddressRepository) Delete(ctx context.Context, userID string, addressID string) error {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(addressID)
	if id == "" {
		return errors.New("address repository: address id is required")
	}
	if _, err := coll.Doc(id).Delete(ctx); err != nil {
		return pfirestore.WrapError("addresses.delete", err)
	}
	return nil
}

// SetDefault marks the address as the default and clears every other default flag.
func (r *AddressRepository) SetDefault(ctx context.Context, userID string, addressID string) (domain.Address, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.Address{}, err
	}
	id := strings.TrimSpace(addressID)
	if id == "" {
		return domain.Address{}, errors.New("address repository: address id is required")
	}

	var saved domain.Address
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docRef := coll.Doc(id)
		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		var doc addressDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode address %s: %w", snap.Ref.ID, err)
		}

		defaults, err := defaultAddressRefs(tx, coll, docRef.ID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := tx.Update(docRef, []firestore.Update{
			{Path: "isDefault", Value: true},
			{Path: "updatedAt", Value: now},
		}); err != nil {
			return err
		}
		if err := clearDefaultFlags(tx, defaults); err != nil {
			return err
		}

		doc.IsDefault = true
		doc.UpdatedAt = now
		saved = doc.toDomain(docRef.ID)
		return nil
	})
	if err != nil {
		return domain.Address{}, pfirestore.WrapError("addresses.setDefault", err)
	}
	return saved, nil
}

func (r *AddressRepository) collection(ctx context.Context, userID string) (*firestore.CollectionRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("address repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("address repository: user id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(fmt.Sprintf(addressCollectionPattern, uid)), nil
}

func defaultAddressRefs(tx *firestore.Transaction, coll *firestore.CollectionRef, keepID string) ([]*firestore.DocumentRef, error) {
	query := coll.Where("isDefault", "==", true).Limit(10)
	snaps, err := tx.Documents(query).GetAll()
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}
	var refs []*firestore.DocumentRef
	for _, snap := range snaps {
		if snap.Ref.ID == keepID {
			continue
		}
		refs = append(refs, snap.Ref)
	}
	return refs, nil
}

func clearDefaultFlags(tx *firestore.Transaction, refs []*firestore.DocumentRef) error {
	for _, ref := range refs {
		if err := tx.Update(ref, []firestore.Update{{Path: "isDefault", Value: false}}); err != nil {
			return err
		}
	}
	return nil
}

func decodeAddressDocument(snap *firestore.DocumentSnapshot) (domain.Address, error) {
	var doc addressDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Address{}, fmt.Errorf("decode address %s: %w", snap.Ref.ID, err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

type addressDocument struct {
	Recipient  string    `firestore:"recipient"`
	Phone      string    `firestore:"phone,omitempty"`
	PostalCode string    `firestore:"postalCode"`
	Line1      string    `firestore:"line1"`
	Line2      string    `firestore:"line2,omitempty"`
	IsDefault  bool      `firestore:"isDefault"`
	CreatedAt  time.Time `firestore:"createdAt"`
	UpdatedAt  time.Time `firestore:"updatedAt"`
}

func (d addressDocument) toDomain(id string) domain.Address {
	return domain.Address{
		ID:         id,
		Recipient:  d.Recipient,
		Phone:      d.Phone,
		PostalCode: d.PostalCode,
		Line1:      d.Line1,
		Line2:      d.Line2,
		IsDefault:  d.IsDefault,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

var _ repositories.AddressRepository = (*AddressRepository)(nil)
