// internal/analytics/analytics.go
package analytics

import "context"

// Event is the closed set of analytics events the backend emits.
type Event string

const (
	EventProfileCreated      Event = "profile_created"
	EventProfileDeleted      Event = "profile_deleted"
	EventOrganizationCreated Event = "organization_created"
	EventOrganizationUpdated Event = "organization_updated"
	EventOrganizationDeleted Event = "organization_deleted"
	EventMemberAdded         Event = "organization_member_added"
	EventMemberUpdated       Event = "organization_member_updated"
	EventMemberRemoved       Event = "organization_member_removed"
	EventInviteCreated       Event = "organization_member_invitation_created"
	EventInviteRemoved       Event = "organization_invitation_removed"
)

// Service is the analytics sink. Implementations must be safe for
// concurrent use. All calls are best-effort; callers log and ignore errors.
type Service interface {
	// Track records an event. distinctID may be empty for anonymous events.
	Track(ctx context.Context, distinctID string, event Event, params map[string]string) error

	// Identify sets person properties for a profile.
	Identify(ctx context.Context, distinctID string, props map[string]string) error

	// Unidentify removes the person record for a profile.
	Unidentify(ctx context.Context, distinctID string) error
}

// NoOpService discards all analytics calls. Used in tests and when no
// project token is configured.
type NoOpService struct{}

func NewNoOpService() *NoOpService {
	return &NoOpService{}
}

func (*NoOpService) Track(ctx context.Context, distinctID string, event Event, params map[string]string) error {
	return nil
}

func (*NoOpService) Identify(ctx context.Context, distinctID string, props map[string]string) error {
	return nil
}

func (*NoOpService) Unidentify(ctx context.Context, distinctID string) error {
	return nil
}
