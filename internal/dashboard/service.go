package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/hongminglow/pawfam/internal/collab"
)

const bookingsPath = "/daycare/bookings"

// Service loads a customer's bookings from the collaborator API.
type Service struct {
	client *collab.Client
	logger *slog.Logger
	now    func() time.Time
}

func NewService(client *collab.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, logger: logger, now: time.Now}
}

// Report fetches the caller's bookings with their token and aggregates them.
// A failed fetch is logged and yields an empty report.
func (s *Service) Report(ctx context.Context, token string) Report {
	var bookings []Booking
	if err := s.client.GetJSON(ctx, bookingsPath, token, &bookings); err != nil {
		s.logger.WarnContext(ctx, "fetch bookings failed", slog.String("error", err.Error()))
		bookings = nil
	}
	return Build(bookings, s.now())
}
