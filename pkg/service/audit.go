package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/maktabati/pkg/repository"
)

const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 200
)

// AuditService reads back the trail written by the event bus.
type AuditService struct {
	logs repository.AuditLogReader
}

func NewAuditService(logs repository.AuditLogReader) *AuditService {
	return &AuditService{logs: logs}
}

// Recent returns the newest entries, optionally for one entity. The limit
// falls back to DefaultAuditLimit and is capped at MaxAuditLimit.
func (s *AuditService) Recent(ctx context.Context, entityID string, limit int) ([]repository.AuditLog, error) {
	if limit < 1 {
		limit = DefaultAuditLimit
	}
	if limit > MaxAuditLimit {
		limit = MaxAuditLimit
	}
	logs, err := s.logs.AuditLogs(ctx, strings.TrimSpace(entityID), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
