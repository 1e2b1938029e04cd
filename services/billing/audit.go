package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/VisionVII/smeducacional-sub001/config"
	"github.com/VisionVII/smeducacional-sub001/model"
	"github.com/VisionVII/smeducacional-sub001/repository"
	"gorm.io/datatypes"
)

// AuditEntry is one audit trail record before persistence
type AuditEntry struct {
	UserID     string
	Action     model.AuditAction
	TargetID   string
	TargetType string
	Metadata   map[string]interface{}
}

// LogAuditTrail appends entry through repos, which may be bound to a transaction.
// Entries without an actor are attributed to the system actor.
func LogAuditTrail(ctx context.Context, repos *repository.Repositories, entry AuditEntry) error {
	userID := entry.UserID
	if userID == "" {
		userID = config.SystemActorID()
	}

	var metadata datatypes.JSON
	if entry.Metadata != nil {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal audit metadata: %w", err)
		}
		metadata = datatypes.JSON(raw)
	}

	return repos.AuditLogs.Append(ctx, &model.AuditLog{
		UserID:     userID,
		Action:     entry.Action,
		TargetID:   entry.TargetID,
		TargetType: entry.TargetType,
		Metadata:   metadata,
	})
}
