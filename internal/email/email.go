package email

import (
	"context"
)

type Service interface {
	SendOrganizationWelcome(ctx context.Context, to, organizationName string) error
	SendJoinApproved(ctx context.Context, to, organizationName string) error
	SendJoinRejected(ctx context.Context, to, organizationName string) error
}
