package subscriber

import (
	"context"
	"log/slog"
	"time"

	"payesh/internal/core/domain"
)

// ShiftGenerationFeature notifies schedulers when the backend finishes
// generating shifts for a work pattern. The subject is the work
// pattern id being viewed.
func ShiftGenerationFeature() Feature {
	return Feature{
		Name: "shift-generation",
		Channels: func(subject string) []string {
			return []string{
				"App.Shift." + subject,
				domain.PrivateChannelPrefix + "shift." + subject,
			}
		},
		Events: []string{
			"ShiftGenerated",
			".ShiftGenerated",
			`App\Events\ShiftGenerated`,
		},
		Resource: "shifts",
		Fallback: map[domain.Classification]string{
			domain.ClassApproved: "شیفت‌ها با موفقیت تولید شدند",
			domain.ClassRejected: "تولید شیفت‌ها با خطا مواجه شد",
			domain.ClassOther:    "وضعیت تولید شیفت بروزرسانی شد",
		},
	}
}

// MountShiftGeneration mounts the shift-generation subscriber for a
// work pattern.
func MountShiftGeneration(ctx context.Context, log *slog.Logger, shiftID string, deps Deps, dedupWindow time.Duration) *ChannelSubscriber {
	return Mount(ctx, log, ShiftGenerationFeature(), shiftID, deps, dedupWindow)
}
