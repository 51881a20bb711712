package permission

import (
	"context"

	"github.com/pantryscan/pantryscan/internal/domain/scanning"
)

var _ Platform = (*StaticPlatform)(nil)

// StaticPlatform is a Platform bridge with a fixed authorization answer.
// Deployments without an interactive dialog (kiosk devices provisioned with
// camera access, tests) use it in place of a real OS bridge.
type StaticPlatform struct {
	status scanning.PermissionStatus
}

// NewStaticPlatform creates a platform bridge that always answers with the
// given status.
func NewStaticPlatform(status scanning.PermissionStatus) *StaticPlatform {
	return &StaticPlatform{status: status}
}

// CurrentStatus reports the configured status.
func (p *StaticPlatform) CurrentStatus(ctx context.Context) (scanning.PermissionStatus, error) {
	return p.status, nil
}

// Prompt answers immediately with the configured status.
func (p *StaticPlatform) Prompt(ctx context.Context) (<-chan scanning.PermissionStatus, error) {
	ch := make(chan scanning.PermissionStatus, 1)
	ch <- p.status
	return ch, nil
}

// OpenSettings is a no-op for static platforms.
func (p *StaticPlatform) OpenSettings(ctx context.Context) error { return nil }
