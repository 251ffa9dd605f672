package service

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"bridge_backend/internal/authz"
	"bridge_backend/internal/leads/domain"
	"bridge_backend/internal/leads/ports"
	"bridge_backend/internal/leads/repository"
	"bridge_backend/internal/leads/transport"
	"bridge_backend/platform/apperr"
	"bridge_backend/platform/sanitize"
)

// AddNote appends a note to a lead's activity trail. The note type
// defaults to note_added; contacted marks a customer touchpoint.
func (s *Service) AddNote(ctx context.Context, actor authz.Actor, id uuid.UUID, req transport.AddNoteRequest) (transport.ActivityResponse, error) {
	lead, err := s.authorizeLead(ctx, actor, authz.ActionLeadNote, id)
	if err != nil {
		return transport.ActivityResponse{}, err
	}

	note := sanitize.Text(req.Note)
	if note == "" {
		return transport.ActivityResponse{}, apperr.Validation("note is empty")
	}

	noteType := req.Type
	if noteType == "" {
		noteType = domain.ActivityNoteAdded
	}

	activity, err := s.repo.CreateActivity(ctx, repository.CreateActivityParams{
		LeadID:       lead.ID,
		ActivityType: noteType,
		Description:  note,
		ActorUserID:  &actor.UserID,
	})
	if err != nil {
		return transport.ActivityResponse{}, err
	}

	item := toActivityResponse(activity)
	if names, err := s.users.GetUsersByIDs(ctx, []uuid.UUID{actor.UserID}); err == nil {
		if info, ok := names[actor.UserID]; ok {
			item.ActorName = info.DisplayName
		}
	}
	return item, nil
}

// ListActivities returns a lead's activity trail, newest first, with
// actor names resolved in one batch.
func (s *Service) ListActivities(ctx context.Context, actor authz.Actor, id uuid.UUID) (transport.ActivityListResponse, error) {
	lead, err := s.authorizeLead(ctx, actor, authz.ActionLeadView, id)
	if err != nil {
		return transport.ActivityListResponse{}, err
	}

	activities, err := s.repo.ListActivities(ctx, lead.ID)
	if err != nil {
		return transport.ActivityListResponse{}, err
	}

	actorIDs := make([]uuid.UUID, 0, len(activities))
	seen := make(map[uuid.UUID]bool, len(activities))
	for _, activity := range activities {
		if activity.ActorUserID != nil && !seen[*activity.ActorUserID] {
			seen[*activity.ActorUserID] = true
			actorIDs = append(actorIDs, *activity.ActorUserID)
		}
	}

	names := map[uuid.UUID]ports.UserInfo{}
	if len(actorIDs) > 0 {
		resolved, err := s.users.GetUsersByIDs(ctx, actorIDs)
		if err != nil {
			s.log.Warn("activity actor lookup failed", "lead_id", lead.ID, "error", err)
		} else {
			names = resolved
		}
	}

	items := make([]transport.ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		item := toActivityResponse(activity)
		if activity.ActorUserID != nil {
			if info, ok := names[*activity.ActorUserID]; ok {
				item.ActorName = info.DisplayName
			}
		}
		items = append(items, item)
	}
	return transport.ActivityListResponse{Activities: items}, nil
}

// DocumentUpload is a file stream accepted for a lead.
type DocumentUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// UploadDocument stores a file against a lead and records it on the
// trail.
func (s *Service) UploadDocument(ctx context.Context, actor authz.Actor, id uuid.UUID, upload DocumentUpload) (transport.DocumentResponse, error) {
	lead, err := s.authorizeLead(ctx, actor, authz.ActionLeadDocument, id)
	if err != nil {
		return transport.DocumentResponse{}, err
	}

	if err := s.storage.ValidateContentType(upload.ContentType); err != nil {
		return transport.DocumentResponse{}, apperr.Validation(err.Error())
	}
	if err := s.storage.ValidateFileSize(upload.Size); err != nil {
		return transport.DocumentResponse{}, apperr.Validation(err.Error())
	}

	objectKey, err := s.storage.UploadFile(ctx, s.docsBucket, leadFolder(lead.ID), upload.FileName,
		upload.ContentType, upload.Reader, upload.Size)
	if err != nil {
		return transport.DocumentResponse{}, fmt.Errorf("store document: %w", err)
	}

	doc, err := s.repo.CreateDocument(ctx, repository.CreateDocumentParams{
		LeadID:      lead.ID,
		FileName:    upload.FileName,
		ObjectKey:   objectKey,
		ContentType: upload.ContentType,
		SizeBytes:   upload.Size,
		UploadedBy:  &actor.UserID,
	})
	if err != nil {
		return transport.DocumentResponse{}, err
	}

	if _, err := s.repo.CreateActivity(ctx, repository.CreateActivityParams{
		LeadID:       lead.ID,
		ActivityType: domain.ActivityDocumentUploaded,
		Description:  "Document " + upload.FileName + " uploaded",
		ActorUserID:  &actor.UserID,
		Metadata:     map[string]any{"fileName": upload.FileName, "sizeBytes": upload.Size},
	}); err != nil {
		s.log.Error("document activity write failed", "lead_id", lead.ID, "error", err)
	}

	s.log.Info("lead document stored", "lead_id", lead.ID, "file_name", upload.FileName)

	resp := toDocumentResponse(doc)
	if presigned, err := s.storage.GenerateDownloadURL(ctx, s.docsBucket, doc.ObjectKey); err == nil {
		resp.DownloadURL = &presigned.URL
	}
	return resp, nil
}

// ListDocuments returns a lead's documents, newest first, each with a
// fresh download link.
func (s *Service) ListDocuments(ctx context.Context, actor authz.Actor, id uuid.UUID) (transport.DocumentListResponse, error) {
	lead, err := s.authorizeLead(ctx, actor, authz.ActionLeadView, id)
	if err != nil {
		return transport.DocumentListResponse{}, err
	}

	docs, err := s.repo.ListDocuments(ctx, lead.ID)
	if err != nil {
		return transport.DocumentListResponse{}, err
	}

	items := make([]transport.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		item := toDocumentResponse(doc)
		if presigned, err := s.storage.GenerateDownloadURL(ctx, s.docsBucket, doc.ObjectKey); err == nil {
			item.DownloadURL = &presigned.URL
		} else {
			s.log.Warn("document presign failed", "lead_id", lead.ID, "object_key", doc.ObjectKey, "error", err)
		}
		items = append(items, item)
	}
	return transport.DocumentListResponse{Documents: items}, nil
}

func toActivityResponse(activity repository.LeadActivity) transport.ActivityResponse {
	return transport.ActivityResponse{
		ID:           activity.ID,
		ActivityType: activity.ActivityType,
		Description:  activity.Description,
		ActorUserID:  activity.ActorUserID,
		Metadata:     activity.Metadata,
		CreatedAt:    activity.CreatedAt,
	}
}

func toDocumentResponse(doc repository.LeadDocument) transport.DocumentResponse {
	return transport.DocumentResponse{
		ID:          doc.ID,
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		SizeBytes:   doc.SizeBytes,
		UploadedBy:  doc.UploadedBy,
		CreatedAt:   doc.CreatedAt,
	}
}
