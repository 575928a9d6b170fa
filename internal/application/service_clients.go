package application

import (
	"context"
	"strings"

	"github.com/viralforge/invoicing-service/internal/domain"
	"go.uber.org/zap"
)

func (s *Service) ValidateClient(client domain.ClientDraft) domain.ValidationResult {
	return domain.ValidateClientDraft(trimClient(client))
}

func (s *Service) CreateClient(ctx context.Context, actor Actor, client domain.ClientDraft) (domain.Client, error) {
	if err := requireTenant(actor); err != nil {
		return domain.Client{}, err
	}
	client = trimClient(client)
	if err := domain.ValidateClientDraft(client).Err(); err != nil {
		return domain.Client{}, err
	}
	return runIdempotent(ctx, s, actor, client, 201, func(ctx context.Context) (domain.Client, error) {
		created, err := s.backend.CreateClient(ctx, actor.credentials(), client)
		if err != nil {
			s.logger(ctx, "create_client").Error("backend rejected client",
				zap.String("outcome", "failure"),
				zap.Error(err),
			)
			return domain.Client{}, err
		}
		return created, nil
	})
}

func trimClient(client domain.ClientDraft) domain.ClientDraft {
	client.Name = strings.TrimSpace(client.Name)
	client.Email = strings.TrimSpace(client.Email)
	client.Company = strings.TrimSpace(client.Company)
	client.Phone = strings.TrimSpace(client.Phone)
	client.Address = strings.TrimSpace(client.Address)
	return client
}
