package adoption

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hongminglow/pawfam/internal/collab"
)

const (
	vendorPetsPath   = "/vendor/adoption/pets"
	applicationsPath = "/adoption/applications"

	SourceVendor   = "vendor"
	SourceFallback = "fallback"
)

// Service reads vendor posts and submits applications through the
// collaborator API.
type Service struct {
	client   *collab.Client
	fallback []Listing
	logger   *slog.Logger
}

func NewService(client *collab.Client, logger *slog.Logger) (*Service, error) {
	fallback, err := Fallback()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, fallback: fallback, logger: logger}, nil
}

// Listings returns the vendor catalogue, or the fallback when the vendor
// list is empty or unavailable. The second value names the source.
func (s *Service) Listings(ctx context.Context) ([]Listing, string) {
	var raw []json.RawMessage
	if err := s.client.GetJSON(ctx, vendorPetsPath, "", &raw); err != nil {
		s.logger.WarnContext(ctx, "vendor listings unavailable", slog.String("error", err.Error()))
		return s.fallbackCopy(), SourceFallback
	}

	listings := make([]Listing, 0, len(raw))
	for _, item := range raw {
		var post VendorPost
		if err := json.Unmarshal(item, &post); err != nil {
			s.logger.WarnContext(ctx, "skipping malformed vendor post", slog.String("error", err.Error()))
			continue
		}
		listings = append(listings, Normalize(post))
	}
	if len(listings) == 0 {
		return s.fallbackCopy(), SourceFallback
	}
	return listings, SourceVendor
}

func (s *Service) fallbackCopy() []Listing {
	out := make([]Listing, len(s.fallback))
	copy(out, s.fallback)
	return out
}

// Submit validates app and posts it with the applicant's token. The
// collaborator's response body is returned verbatim.
func (s *Service) Submit(ctx context.Context, token string, app Application) (json.RawMessage, error) {
	if err := app.Validate(); err != nil {
		return nil, err
	}
	var created json.RawMessage
	if err := s.client.PostJSON(ctx, applicationsPath, token, app, &created); err != nil {
		return nil, fmt.Errorf("submit application: %w", err)
	}
	return created, nil
}
