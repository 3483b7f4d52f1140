package attendance

import (
	"bytes"
	"context"

	"github.com/atency/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ExportRecords renders all records, or one user's when userID is set.
func (s *Service) ExportRecords(ctx context.Context, userID *uuid.UUID) (*ExportFile, error) {
	if s.renderer == nil {
		return nil, shared.NewInternalError("Export is not configured", nil)
	}

	var (
		views []RecordView
		err   error
		name  = "attendance-all"
	)
	if userID != nil {
		views, err = s.GetRecordsByUserID(ctx, *userID)
		name = "attendance-" + userID.String()
	} else {
		views, err = s.GetAllRecords(ctx)
	}
	if err != nil {
		return nil, err
	}
	return s.render(name, views)
}

func (s *Service) render(name string, views []RecordView) (*ExportFile, error) {
	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, "Attendance", views); err != nil {
		return nil, shared.NewInternalError("Failed to render report", err)
	}
	return &ExportFile{
		Filename:    name + s.renderer.FileExtension(),
		ContentType: s.renderer.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}
