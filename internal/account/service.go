package account

import (
	"context"
	"errors"
	"strings"

	"resumemind-api/internal/shared/auth"
	"resumemind-api/internal/shared/storage/docstore"
)

type Service struct {
	Store       docstore.Store
	Collections []string
}

type ClaimResult struct {
	Migrated map[string]int `json:"migrated"`
	Total    int            `json:"total"`
}

func NewService(store docstore.Store, collections ...string) *Service {
	return &Service{Store: store, Collections: collections}
}

// ClaimGuest moves every document owned by the guest session to the user in
// one store transaction.
// Running it twice migrates nothing the second time.
func (s *Service) ClaimGuest(ctx context.Context, guestID, userID string) (ClaimResult, error) {
	if strings.TrimSpace(guestID) == "" || strings.TrimSpace(userID) == "" {
		return ClaimResult{}, errors.New("guestID and userID are required")
	}
	migrated, err := s.Store.Reassign(ctx, s.Collections, guestID, userID, auth.OwnerUser)
	if err != nil {
		return ClaimResult{}, err
	}
	result := ClaimResult{Migrated: migrated}
	for _, n := range migrated {
		result.Total += n
	}
	return result, nil
}
