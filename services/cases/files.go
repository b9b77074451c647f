package cases

import (
	"context"
	"fmt"
	"io"
	"strings"

	"lexconnect/models"
	"lexconnect/services/storage"
	"lexconnect/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// participant checks the viewer is the owner or the assigned lawyer of a
// case that is still in progress.
func (s *DefaultCaseService) participant(ctx context.Context, viewer Viewer, caseID string) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	switch {
	case viewer.Role == utils.RoleCitizen && c.CitizenID == viewer.ID:
	case viewer.Role == utils.RoleLawyer && c.AssignedLawyerID == viewer.ID && c.Status == models.CaseAssigned:
	default:
		return nil, ErrNoAccess
	}
	return c, nil
}

func (s *DefaultCaseService) Attach(ctx context.Context, viewer Viewer, caseID, fileName string, size int64, r io.Reader) (*models.Attachment, error) {
	if err := storage.ValidateUpload(fileName, size); err != nil {
		return nil, err
	}
	c, err := s.participant(ctx, viewer, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status == models.CaseClosed || c.Status == models.CaseCancelled {
		return nil, ErrWrongState
	}

	obj, err := s.Storage.Upload(ctx, r, fileName, storage.FolderCaseFiles+"/"+caseID, true)
	if err != nil {
		utils.GetLogger().Error("case: upload failed", zap.String("caseID", caseID), zap.Error(err))
		return nil, fmt.Errorf("upload failed: %w", utils.ErrUnavailable)
	}
	size = max(size, obj.Size)
	a := models.Attachment{
		ID:         uuid.New().String(),
		FileName:   fileName,
		StorageKey: obj.Key,
		URL:        obj.URL,
		Size:       size,
		UploadedBy: viewer.ID,
		UploadedAt: s.now(),
	}
	if err := s.Cases.AddAttachment(ctx, caseID, a); err != nil {
		if delErr := s.Storage.Delete(ctx, obj.Key); delErr != nil {
			utils.GetLogger().Warn("case: failed to remove orphaned upload", zap.String("key", obj.Key), zap.Error(delErr))
		}
		return nil, err
	}
	return &a, nil
}

// AttachmentURL returns a short-lived signed link to a case file.
func (s *DefaultCaseService) AttachmentURL(ctx context.Context, viewer Viewer, caseID, attachmentID string) (string, error) {
	c, err := s.participant(ctx, viewer, caseID)
	if err != nil {
		return "", err
	}
	for _, a := range c.Attachments {
		if a.ID == attachmentID {
			return s.Storage.DownloadURL(ctx, a.StorageKey, true, AttachmentURLTTL)
		}
	}
	return "", fmt.Errorf("attachment: %w", utils.ErrNotFound)
}

// AddVoiceDescription transcribes a recording and appends it to the case
// description.
func (s *DefaultCaseService) AddVoiceDescription(ctx context.Context, citizenID, caseID string, audio []byte, language string) (*models.Case, error) {
	if s.Transcriber == nil {
		return nil, ErrNoTranscriber
	}
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.CitizenID != citizenID {
		return nil, ErrNoAccess
	}
	if c.Status != models.CaseOpen && c.Status != models.CaseAssigned {
		return nil, ErrWrongState
	}

	text, err := s.Transcriber.Transcribe(ctx, audio, language)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if len(c.Description)+len(text)+2 > maxDescriptionLen {
		return nil, fmt.Errorf("description would become too long: %w", utils.ErrInvalid)
	}
	if err := s.Cases.AppendDescription(ctx, caseID, text); err != nil {
		return nil, err
	}
	return s.load(ctx, caseID)
}
