package subscriber

import (
	"context"
	"log/slog"
	"time"

	"payesh/internal/core/domain"
)

// ImageApprovalFeature notifies an employee when an uploaded profile
// image is approved or rejected. Channel and event variants cover both
// the current and the legacy backend naming conventions.
func ImageApprovalFeature() Feature {
	return Feature{
		Name: "image-approval",
		Channels: func(subject string) []string {
			return []string{
				"App.User." + subject,
				domain.PrivateChannelPrefix + "user." + subject,
			}
		},
		Events: []string{
			"ImageApproved",
			".ImageApproved",
			`App\Events\ImageApproved`,
		},
		Resource: "employees",
		Fallback: map[domain.Classification]string{
			domain.ClassApproved: "تصویر شما تایید شد",
			domain.ClassRejected: "تصویر شما رد شد",
			domain.ClassOther:    "وضعیت تصویر شما بروزرسانی شد",
		},
	}
}

// MountImageApproval mounts the image-approval subscriber for a user.
func MountImageApproval(ctx context.Context, log *slog.Logger, userID string, deps Deps, dedupWindow time.Duration) *ChannelSubscriber {
	return Mount(ctx, log, ImageApprovalFeature(), userID, deps, dedupWindow)
}
