package calendar

import (
	"context"
	"fmt"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// MaxPageSize is the largest page the events.list endpoint returns.
const MaxPageSize = 2500

// PageRequest identifies one events.list page.
type PageRequest struct {
	CalendarID string
	TimeMin    string
	TimeMax    string
	MaxResults int64
	PageToken  string
}

// Lister requests a single page of events.
type Lister interface {
	ListPage(ctx context.Context, req PageRequest) (*calendar.Events, error)
}

// ServiceLister implements Lister with the Calendar API v3 client.
type ServiceLister struct {
	svc *calendar.Service
}

// NewServiceLister creates the Calendar service with the given options,
// typically option.WithHTTPClient carrying an authorized client.
func NewServiceLister(ctx context.Context, opts ...option.ClientOption) (*ServiceLister, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &ServiceLister{svc: svc}, nil
}

// ListPage lists one page of single (expanded) events ordered by start time.
func (l *ServiceLister) ListPage(ctx context.Context, req PageRequest) (*calendar.Events, error) {
	call := l.svc.Events.List(req.CalendarID).
		TimeMin(req.TimeMin).
		TimeMax(req.TimeMax).
		MaxResults(req.MaxResults).
		SingleEvents(true).
		OrderBy("startTime")

	if req.PageToken != "" {
		call = call.PageToken(req.PageToken)
	}

	events, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}
