package service

import (
	"context"
	"strings"

	"golf-concierge-be/internal/dto"
)

// SidecarRenderer renders the auxiliary weather card for a query.
type SidecarRenderer interface {
	Render(ctx context.Context, query string) string
}

type ISidecarService interface {
	Render(ctx context.Context, req *dto.SidecarRequest) *dto.SidecarResponse
}

type sidecarService struct {
	renderer SidecarRenderer
}

func NewSidecarService(renderer SidecarRenderer) ISidecarService {
	return &sidecarService{renderer: renderer}
}

func (s *sidecarService) Render(ctx context.Context, req *dto.SidecarRequest) *dto.SidecarResponse {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return &dto.SidecarResponse{}
	}
	return &dto.SidecarResponse{HTML: s.renderer.Render(ctx, query)}
}
