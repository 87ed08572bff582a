package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/brand-er1/clothology-express-sub000/internal/platform/firestore"
	"github.com/brand-er1/clothology-express-sub000/internal/repositories"
)

// Registry bundles the Firestore-backed repositories behind the repositories.Registry interface.
type Registry struct {
	provider *pfirestore.Provider

	orders          *OrderRepository
	drafts          *DraftRepository
	profiles        *ProfileRepository
	addresses       *AddressRepository
	generatedImages *GeneratedImageRepository
	systemPrompts   *SystemPromptRepository
	health          repositories.HealthRepository
}

// RegistryOption customises registry construction.
type RegistryOption func(*Registry)

// WithHealthRepository replaces the default Firestore-only health probe.
func WithHealthRepository(health repositories.HealthRepository) RegistryOption {
	return func(r *Registry) {
		if health != nil {
			r.health = health
		}
	}
}

// NewRegistry constructs every Firestore-backed repository on top of the provider.
func NewRegistry(provider *pfirestore.Provider, opts ...RegistryOption) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	drafts, err := NewDraftRepository(provider)
	if err != nil {
		return nil, err
	}
	profiles, err := NewProfileRepository(provider)
	if err != nil {
		return nil, err
	}
	addresses, err := NewAddressRepository(provider)
	if err != nil {
		return nil, err
	}
	generatedImages, err := NewGeneratedImageRepository(provider)
	if err != nil {
		return nil, err
	}
	systemPrompts, err := NewSystemPromptRepository(provider)
	if err != nil {
		return nil, err
	}

	registry := &Registry{
		provider:        provider,
		orders:          orders,
		drafts:          drafts,
		profiles:        profiles,
		addresses:       addresses,
		generatedImages: generatedImages,
		systemPrompts:   systemPrompts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(registry)
		}
	}

	if registry.health == nil {
		health, err := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{
			{
				Name: "firestore",
				Check: func(ctx context.Context) error {
					_, err := provider.Client(ctx)
					return err
				},
			},
		})
		if err != nil {
			return nil, err
		}
		registry.health = health
	}
	return registry, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	return r.provider.Close(ctx)
}

// RunInTx executes fn inside a Firestore transaction.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.New("registry: transaction function is required")
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, _ *firestore.Transaction) error {
		return fn(ctx)
	})
}

func (r *Registry) Orders() repositories.OrderRepository                   { return r.orders }
func (r *Registry) Drafts() repositories.DraftRepository                   { return r.drafts }
func (r *Registry) Profiles() repositories.ProfileRepository               { return r.profiles }
func (r *Registry) Addresses() repositories.AddressRepository              { return r.addresses }
func (r *Registry) GeneratedImages() repositories.GeneratedImageRepository { return r.generatedImages }
func (r *Registry) SystemPrompts() repositories.SystemPromptRepository     { return r.systemPrompts }
func (r *Registry) Health() repositories.HealthRepository                  { return r.health }

var _ repositories.Registry = (*Registry)(nil)
