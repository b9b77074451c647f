package lawyer

import (
	"context"
	"fmt"
	"io"

	"lexconnect/models"
	"lexconnect/services/storage"
	"lexconnect/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

var verificationKinds = map[string]bool{
	"bar_certificate":    true,
	"national_id":        true,
	"practising_license": true,
	"other":              true,
}

// UploadVerificationDocument stores a private document for moderation. A
// rejected lawyer who uploads again goes back to pending review.
func (s *DefaultLawyerService) UploadVerificationDocument(ctx context.Context, lawyerID, kind, fileName string, size int64, r io.Reader) (*models.VerificationDocument, error) {
	if !verificationKinds[kind] {
		return nil, fmt.Errorf("unknown document kind %q: %w", kind, utils.ErrInvalid)
	}
	if err := storage.ValidateUpload(fileName, size); err != nil {
		return nil, err
	}
	l, err := s.Repo.GetByID(ctx, lawyerID)
	if err != nil {
		return nil, err
	}

	obj, err := s.Storage.Upload(ctx, r, fileName, storage.FolderVerification+"/"+lawyerID, true)
	if err != nil {
		utils.GetLogger().Error("Failed to upload verification document", zap.String("lawyerID", lawyerID), zap.Error(err))
		return nil, fmt.Errorf("upload failed: %w", utils.ErrUnavailable)
	}
	doc := models.VerificationDocument{
		Kind:       kind,
		StorageKey: obj.Key,
		FileName:   fileName,
		UploadedAt: s.now(),
	}
	if err := s.Repo.AddVerificationDocument(ctx, lawyerID, doc); err != nil {
		if delErr := s.Storage.Delete(ctx, obj.Key); delErr != nil {
			utils.GetLogger().Warn("Failed to remove orphaned upload", zap.String("key", obj.Key), zap.Error(delErr))
		}
		return nil, err
	}
	if l.Verification.Status == models.VerificationRejected {
		if err := s.Repo.UpdateSetDocument(ctx, lawyerID, bson.M{"verification.status": models.VerificationPending}); err != nil {
			return nil, err
		}
	}
	return &doc, nil
}

// ListMatches is the lawyer's inbox. Case details are attached to each
// match; contact data of the citizen is never included.
func (s *DefaultLawyerService) ListMatches(ctx context.Context, lawyerID, status string, limit, skip int64) ([]models.MatchView, error) {
	matches, err := s.Matches.ListByLawyer(ctx, lawyerID, status, limit, skip)
	if err != nil {
		return nil, err
	}
	views := make([]models.MatchView, 0, len(matches))
	for _, m := range matches {
		view := models.MatchView{Match: m}
		if c, err := s.Cases.GetByID(ctx, m.CaseID); err == nil {
			view.Case = c
		} else {
			utils.GetLogger().Warn("Match references a missing case", zap.String("matchID", m.ID), zap.Error(err))
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *DefaultLawyerService) LeadUsage(ctx context.Context, lawyerID string) (*models.LeadUsage, error) {
	l, err := s.Repo.GetByID(ctx, lawyerID)
	if err != nil {
		return nil, err
	}
	usage := l.Usage(s.now())
	return &usage, nil
}
