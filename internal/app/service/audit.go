package service

import (
	"context"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxAuditPage caps how many audit events one call returns.
const MaxAuditPage = 200

// ListAuditEvents returns a page of the workspace's audit trail, newest
// first. Admin only. Without an AuditReader the trail is empty.
func (s *Service) ListAuditEvents(ctx context.Context, who models.Identity, id primitive.ObjectID, limit, offset int64) ([]audit.Event, error) {
	if _, err := s.manage(ctx, id, who, "Only admin can view the audit log."); err != nil {
		return nil, err
	}
	if s.audit == nil {
		return []audit.Event{}, nil
	}
	if limit <= 0 || limit > MaxAuditPage {
		limit = MaxAuditPage
	}
	if offset < 0 {
		offset = 0
	}
	return s.audit.Query(ctx, audit.QueryFilter{WorkspaceID: &id, Limit: limit, Offset: offset})
}
