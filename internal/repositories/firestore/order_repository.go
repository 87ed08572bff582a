package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	pfirestore "github.com/brand-er1/clothology-express-sub000/internal/platform/firestore"
	"github.com/brand-er1/clothology-express-sub000/internal/platform/pagination"
	"github.com/brand-er1/clothology-express-sub000/internal/repositories"
)

const orderCollection = "orders"

// OrderRepository persists customization orders in Firestore.
type OrderRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		provider: provider,
		base:     pfirestore.NewBaseRepository[orderDocument](provider, orderCollection, nil, nil),
	}, nil
}

// Insert stores a new order document. The order ID must be set by the caller.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) (domain.Order, error) {
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}
	doc := encodeOrder(order)
	if _, err := r.base.Set(ctx, id, doc); err != nil {
		return domain.Order{}, err
	}
	return doc.toDomain(id), nil
}

// Update overwrites the stored order document.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	_, err := r.base.Set(ctx, id, encodeOrder(order))
	return err
}

// FindByID fetches a single order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := r.base.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// List returns orders matching the filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	limit := pagination.ClampPageSize(filter.Pagination.PageSize)

	cursor, err := pagination.Decode(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, fmt.Errorf("orders.list: %w", err)
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if uid := strings.TrimSpace(filter.UserID); uid != "" {
			q = q.Where("userId", "==", uid)
		}
		if len(filter.Status) > 0 {
			statuses := make([]string, 0, len(filter.Status))
			for _, s := range filter.Status {
				statuses = append(statuses, string(s))
			}
			q = q.Where("status", "in", statuses)
		}
		q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)
		if cursor.LastID != "" {
			q = q.StartAfter(cursor.LastCreated, cursor.LastID)
		}
		return q.Limit(limit + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	nextToken := ""
	if len(docs) > limit {
		docs = docs[:limit]
		last := docs[len(docs)-1]
		nextToken = pagination.Cursor{LastID: last.ID, LastCreated: last.Data.CreatedAt}.Encode()
	}

	items := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.Data.toDomain(doc.ID))
	}
	return domain.CursorPage[domain.Order]{Items: items, NextPageToken: nextToken}, nil
}

// UpdateStatus transitions the order inside a transaction so concurrent
// reviews cannot double-apply. Invalid transitions surface as a conflict.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, review repositories.ReviewUpdate) (domain.Order, error) {
	docRef, err := r.base.DocumentRef(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	var updated domain.Order
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode order %s: %w", snap.Ref.ID, err)
		}

		current := domain.OrderStatus(doc.Status)
		if !current.CanTransitionTo(status) {
			return &transitionError{from: current, to: status}
		}

		doc.Status = string(status)
		doc.AdminComment = strings.TrimSpace(review.AdminComment)
		doc.ReviewedBy = strings.TrimSpace(review.ReviewedBy)
		if !review.ReviewedAt.IsZero() {
			at := review.ReviewedAt.UTC()
			doc.ReviewedAt = &at
			doc.UpdatedAt = at
		}
		if err := tx.Set(docRef, doc); err != nil {
			return err
		}
		updated = doc.toDomain(snap.Ref.ID)
		return nil
	})
	if err != nil {
		var transition *transitionError
		if errors.As(err, &transition) {
			return domain.Order{}, transition
		}
		return domain.Order{}, pfirestore.WrapError("orders.updateStatus", err)
	}
	return updated, nil
}

// transitionError reports an order status transition the workflow forbids.
// It satisfies RepositoryError as a conflict.
type transitionError struct {
	from domain.OrderStatus
	to   domain.OrderStatus
}

func (e *transitionError) Error() string {
	return fmt.Sprintf("orders: cannot transition from %s to %s", e.from, e.to)
}

func (e *transitionError) IsNotFound() bool    { return false }
func (e *transitionError) IsConflict() bool    { return true }
func (e *transitionError) IsUnavailable() bool { return false }

type orderDocument struct {
	UserID            string             `firestore:"userId"`
	ClothType         string             `firestore:"clothType"`
	Material          string             `firestore:"material"`
	Style             string             `firestore:"style,omitempty"`
	PocketType        string             `firestore:"pocketType,omitempty"`
	Color             string             `firestore:"color,omitempty"`
	DetailDescription string             `firestore:"detailDescription,omitempty"`
	Size              string             `firestore:"size"`
	Measurements      map[string]float64 `firestore:"measurements,omitempty"`
	ImageURL          string             `firestore:"imageUrl,omitempty"`
	ImagePath         string             `firestore:"imagePath,omitempty"`
	Status            string             `firestore:"status"`
	AdminComment      string             `firestore:"adminComment,omitempty"`
	ReviewedBy        string             `firestore:"reviewedBy,omitempty"`
	ReviewedAt        *time.Time         `firestore:"reviewedAt,omitempty"`
	CreatedAt         time.Time          `firestore:"createdAt"`
	UpdatedAt         time.Time          `firestore:"updatedAt"`
}

func encodeOrder(order domain.Order) orderDocument {
	doc := orderDocument{
		UserID:            order.UserID,
		ClothType:         order.ClothType,
		Material:          order.Material,
		Style:             order.Style,
		PocketType:        order.PocketType,
		Color:             order.Color,
		DetailDescription: order.DetailDescription,
		Size:              order.Size,
		Measurements:      order.Measurements,
		ImageURL:          order.ImageURL,
		ImagePath:         order.ImagePath,
		Status:            string(order.Status),
		AdminComment:      order.AdminComment,
		ReviewedBy:        order.ReviewedBy,
		CreatedAt:         order.CreatedAt.UTC(),
		UpdatedAt:         order.UpdatedAt.UTC(),
	}
	if order.ReviewedAt != nil {
		at := order.ReviewedAt.UTC()
		doc.ReviewedAt = &at
	}
	return doc
}

func (d orderDocument) toDomain(id string) domain.Order {
	order := domain.Order{
		ID:                id,
		UserID:            d.UserID,
		ClothType:         d.ClothType,
		Material:          d.Material,
		Style:             d.Style,
		PocketType:        d.PocketType,
		Color:             d.Color,
		DetailDescription: d.DetailDescription,
		Size:              d.Size,
		Measurements:      d.Measurements,
		ImageURL:          d.ImageURL,
		ImagePath:         d.ImagePath,
		Status:            domain.OrderStatus(d.Status),
		AdminComment:      d.AdminComment,
		ReviewedBy:        d.ReviewedBy,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
	if d.ReviewedAt != nil {
		at := *d.ReviewedAt
		order.ReviewedAt = &at
	}
	return order
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
