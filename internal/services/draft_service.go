package services

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/brand-er1/clothology-express-sub000/internal/domain"
	"github.com/brand-er1/clothology-express-sub000/internal/repositories"
)

var (
	// ErrDraftInvalidInput signals the caller provided invalid data.
	ErrDraftInvalidInput = errors.New("draft: invalid input")
	// ErrDraftNotFound indicates no draft exists for the user.
	ErrDraftNotFound = errors.New("draft: not found")
)

// DraftServiceDeps bundles collaborators required to construct the draft service.
type DraftServiceDeps struct {
	Drafts repositories.DraftRepository
	Clock  func() time.Time
}

type draftService struct {
	drafts repositories.DraftRepository
	clock  func() time.Time
}

var _ DraftService = (*draftService)(nil)

// NewDraftService assembles the wizard draft persistence service.
func NewDraftService(deps DraftServiceDeps) (DraftService, error) {
	if deps.Drafts == nil {
		return nil, errors.New("draft service: draft repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &draftService{
		drafts: deps.Drafts,
		clock:  func() time.Time { return clock().UTC() },
	}, nil
}

// SaveDraft upserts the snapshot. Saving an empty snapshot is allowed; the
// wizard saves after every step including the first.
func (s *draftService) SaveDraft(ctx context.Context, cmd SaveDraftCommand) (domain.Draft, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return domain.Draft{}, ErrDraftInvalidInput
	}

	now := s.clock()
	draft := domain.Draft{
		ID:        strings.TrimSpace(cmd.DraftID),
		UserID:    userID,
		Snapshot:  cmd.Snapshot,
		CreatedAt: now,
		UpdatedAt: now,
	}
	saved, err := s.drafts.Save(ctx, draft)
	if err != nil {
		return domain.Draft{}, mapDraftRepoError(err)
	}
	return saved, nil
}

// LatestDraft returns the most recent draft for the user.
func (s *draftService) LatestDraft(ctx context.Context, userID string) (domain.Draft, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Draft{}, ErrDraftInvalidInput
	}
	draft, err := s.drafts.FindLatest(ctx, uid)
	if err != nil {
		return domain.Draft{}, mapDraftRepoError(err)
	}
	return draft, nil
}

// DiscardDraft removes a saved draft.
func (s *draftService) DiscardDraft(ctx context.Context, userID string, draftID string) error {
	uid := strings.TrimSpace(userID)
	id := strings.TrimSpace(draftID)
	if uid == "" || id == "" {
		return ErrDraftInvalidInput
	}
	if err := s.drafts.Delete(ctx, uid, id); err != nil {
		return mapDraftRepoError(err)
	}
	return nil
}

func mapDraftRepoError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return ErrDraftNotFound
	}
	return err
}
