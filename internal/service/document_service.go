package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/repo"
	"github.com/noid254/nikosoko/internal/session"
	"github.com/noid254/nikosoko/pkg/logger"
)

type DocumentService interface {
	List(ctx context.Context, sid string) ([]domain.Document, error)
	Create(ctx context.Context, sid string, req domain.DocumentRequest) (domain.Document, error)
	Assets(ctx context.Context, sid string) (domain.BusinessAssets, error)
	SaveAssets(ctx context.Context, sid string, assets domain.BusinessAssets) (domain.BusinessAssets, error)
}

type documentService struct {
	sessions  session.Store
	documents repo.DocumentRepository
	now       Clock
}

func NewDocumentService(sessions session.Store, documents repo.DocumentRepository) DocumentService {
	return &documentService{
		sessions:  sessions,
		documents: documents,
		now:       time.Now,
	}
}

func (s *documentService) loggedIn(ctx context.Context, sid string) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	if err := requireLogin(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *documentService) List(ctx context.Context, sid string) ([]domain.Document, error) {
	sess, err := s.loggedIn(ctx, sid)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByOwner(ctx, sess.ProviderID())
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

// Create records a generated invoice, quote or receipt. The sender defaults
// to the session's business name.
func (s *documentService) Create(ctx context.Context, sid string, req domain.DocumentRequest) (domain.Document, error) {
	sess, err := s.loggedIn(ctx, sid)
	if err != nil {
		return domain.Document{}, err
	}
	req.Normalize(s.now())
	if err := req.Validate(); err != nil {
		return domain.Document{}, err
	}
	if req.From == "" {
		req.From = sess.Assets.Name
	}

	doc := domain.Document{
		ID:       uuid.NewString(),
		OwnerID:  sess.ProviderID(),
		Type:     req.Type,
		Number:   req.Number,
		From:     req.From,
		Date:     req.Date,
		Amount:   req.Amount,
		Currency: req.Currency,
		Status:   req.Status,
	}
	if err := s.documents.Add(ctx, doc); err != nil {
		return domain.Document{}, fmt.Errorf("failed to save document: %w", err)
	}
	logger.InfoContext(ctx, "Document created", "document_id", doc.ID, "type", doc.Type)
	return doc, nil
}

func (s *documentService) Assets(ctx context.Context, sid string) (domain.BusinessAssets, error) {
	sess, err := s.loggedIn(ctx, sid)
	if err != nil {
		return domain.BusinessAssets{}, err
	}
	return sess.Assets, nil
}

func (s *documentService) SaveAssets(ctx context.Context, sid string, assets domain.BusinessAssets) (domain.BusinessAssets, error) {
	assets.Name = strings.TrimSpace(assets.Name)
	assets.Address = strings.TrimSpace(assets.Address)
	var errs domain.ValidationErrors
	errs.Required("name", assets.Name)
	if err := errs.Err(); err != nil {
		return domain.BusinessAssets{}, err
	}
	sess, err := s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		if err := requireLogin(sess); err != nil {
			return err
		}
		sess.Assets = assets
		return nil
	})
	if err != nil {
		return domain.BusinessAssets{}, err
	}
	return sess.Assets, nil
}
