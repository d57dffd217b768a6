package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"product-import-service/internal/models"
)

// SessionStore persists import sessions. Load returns ErrSessionNotFound for
// unknown ids and for ids owned by another tenant.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context, tenantID, sessionID string) (*Session, error)
	Delete(ctx context.Context, tenantID, sessionID string) error
}

// RunRecorder stores the audit record of a completed import
type RunRecorder interface {
	RecordRun(ctx context.Context, run *models.ImportRun) error
}

// Archiver keeps a copy of an uploaded file and returns its storage key
type Archiver interface {
	Archive(ctx context.Context, tenantID, sessionID, filename string, data []byte) (string, error)
}

// Service runs import sessions for the HTTP layer
type Service struct {
	store    SessionStore
	creator  ProductCreator
	runs     RunRecorder
	archiver Archiver
	logger   *logrus.Entry

	// session mutations are serialised on a lock stripe chosen by session id
	locks [64]sync.Mutex
}

// Option configures optional collaborators of a Service
type Option func(*Service)

// WithRunRecorder records an audit row for every completed import
func WithRunRecorder(r RunRecorder) Option {
	return func(s *Service) { s.runs = r }
}

// WithArchiver archives every uploaded file
func WithArchiver(a Archiver) Option {
	return func(s *Service) { s.archiver = a }
}

// NewService creates an import service
func NewService(store SessionStore, creator ProductCreator, logger *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		store:   store,
		creator: creator,
		logger:  logger.WithField("component", "product-import"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload parses a file and opens a session in review
func (s *Service) Upload(ctx context.Context, tenantID, userID, filename string, data []byte) (*Session, error) {
	records, err := s.parse(tenantID, filename, data)
	if err != nil {
		return nil, err
	}

	session := NewSession(tenantID, userID, filename)
	if err := session.Load(filename, records); err != nil {
		return nil, err
	}
	session.ArchiveKey = s.archive(ctx, session, filename, data)

	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save import session: %w", err)
	}

	summary := session.Summary()
	s.logger.WithFields(logrus.Fields{
		"tenantID":  tenantID,
		"sessionID": session.ID,
		"file":      filename,
		"total":     summary.Total,
		"valid":     summary.Valid,
		"errored":   summary.Errored,
	}).Info("Import file parsed")
	return session, nil
}

// Reload loads a different file into a session that was reset to upload
func (s *Service) Reload(ctx context.Context, tenantID, sessionID, filename string, data []byte) (*Session, error) {
	records, err := s.parse(tenantID, filename, data)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, tenantID, sessionID, func(session *Session) error {
		if err := session.Load(filename, records); err != nil {
			return err
		}
		session.ArchiveKey = s.archive(ctx, session, filename, data)
		return nil
	})
}

func (s *Service) parse(tenantID, filename string, data []byte) ([]*models.ImportedProduct, error) {
	records, err := Parse(filename, data)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"tenantID": tenantID,
			"file":     filename,
		}).Warn("Failed to parse import file")
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	return records, nil
}

func (s *Service) archive(ctx context.Context, session *Session, filename string, data []byte) string {
	if s.archiver == nil {
		return ""
	}
	key, err := s.archiver.Archive(ctx, session.TenantID, session.ID, filename, data)
	if err != nil {
		s.logger.WithError(err).WithField("sessionID", session.ID).Warn("Failed to archive import file")
		return ""
	}
	return key
}

// Get returns a tenant's session
func (s *Service) Get(ctx context.Context, tenantID, sessionID string) (*Session, error) {
	return s.store.Load(ctx, tenantID, sessionID)
}

// SelectAllValid selects every valid record
func (s *Service) SelectAllValid(ctx context.Context, tenantID, sessionID string) (*Session, error) {
	return s.mutate(ctx, tenantID, sessionID, (*Session).SelectAllValid)
}

// SelectNone clears the selection
func (s *Service) SelectNone(ctx context.Context, tenantID, sessionID string) (*Session, error) {
	return s.mutate(ctx, tenantID, sessionID, (*Session).SelectNone)
}

// Toggle flips the selection of one record
func (s *Service) Toggle(ctx context.Context, tenantID, sessionID string, index int) (*Session, error) {
	return s.mutate(ctx, tenantID, sessionID, func(session *Session) error {
		return session.Toggle(index)
	})
}

// Reset returns the session to upload
func (s *Service) Reset(ctx context.Context, tenantID, sessionID string) (*Session, error) {
	return s.mutate(ctx, tenantID, sessionID, (*Session).Reset)
}

// Submit creates the selected records and completes the session
func (s *Service) Submit(ctx context.Context, tenantID, sessionID string) (*Session, error) {
	session, err := s.mutate(ctx, tenantID, sessionID, func(session *Session) error {
		return session.Submit(ctx, s.creator)
	})
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"tenantID":  tenantID,
		"sessionID": sessionID,
	})
	for _, r := range session.Results {
		if !r.Success {
			log.WithFields(logrus.Fields{"row": r.Line, "sku": r.SKU, "error": r.Error}).Warn("Failed to create imported product")
		}
	}
	log.WithFields(logrus.Fields{
		"attempted": session.Tally.Attempted,
		"succeeded": session.Tally.Succeeded,
		"failed":    session.Tally.Failed,
	}).Info("Import submitted")

	s.recordRun(context.WithoutCancel(ctx), session)
	return session, nil
}

func (s *Service) recordRun(ctx context.Context, session *Session) {
	if s.runs == nil {
		return
	}
	results, err := json.Marshal(session.Results)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to encode import results")
		results = []byte("[]")
	}
	run := &models.ImportRun{
		TenantID:  session.TenantID,
		SessionID: session.ID,
		FileName:  session.FileName,
		TotalRows: len(session.Records),
		Attempted: session.Tally.Attempted,
		Succeeded: session.Tally.Succeeded,
		Failed:    session.Tally.Failed,
		Results:   datatypes.JSON(results),
	}
	if session.UserID != "" {
		run.SubmittedBy = &session.UserID
	}
	if err := s.runs.RecordRun(ctx, run); err != nil {
		s.logger.WithError(err).WithField("sessionID", session.ID).Error("Failed to record import run")
	}
}

// Discard deletes a session
func (s *Service) Discard(ctx context.Context, tenantID, sessionID string) error {
	unlock := s.lock(sessionID)
	defer unlock()

	if _, err := s.store.Load(ctx, tenantID, sessionID); err != nil {
		return err
	}
	return s.store.Delete(ctx, tenantID, sessionID)
}

// mutate loads a session, applies fn and saves it. A failing fn leaves the
// stored session untouched.
func (s *Service) mutate(ctx context.Context, tenantID, sessionID string, fn func(*Session) error) (*Session, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.store.Load(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}
	if err := s.store.Save(context.WithoutCancel(ctx), session); err != nil {
		return nil, fmt.Errorf("failed to save import session: %w", err)
	}
	return session, nil
}

func (s *Service) lock(sessionID string) func() {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	l := &s.locks[h.Sum32()%uint32(len(s.locks))]
	l.Lock()
	return l.Unlock
}
