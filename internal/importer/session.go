package importer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"product-import-service/internal/models"
)

// ProductCreator is the create-product operation a submission calls once per record
type ProductCreator interface {
	CreateProduct(ctx context.Context, tenantID, userID string, req *models.CreateProductRequest) (*models.Product, error)
}

// Session tracks one bulk import from upload through review to completion.
// Selected holds record indices in ascending order.
type Session struct {
	ID         string                    `json:"id"`
	TenantID   string                    `json:"tenantId"`
	UserID     string                    `json:"userId"`
	FileName   string                    `json:"fileName"`
	State      models.ImportState        `json:"state"`
	Records    []*models.ImportedProduct `json:"records"`
	Selected   []int                     `json:"selected"`
	Results    []models.SubmissionResult `json:"results,omitempty"`
	Tally      *models.ImportTally       `json:"tally,omitempty"`
	ArchiveKey string                    `json:"archiveKey,omitempty"`
	CreatedAt  time.Time                 `json:"createdAt"`
	UpdatedAt  time.Time                 `json:"updatedAt"`
}

// NewSession creates an empty session in the upload state
func NewSession(tenantID, userID, fileName string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		UserID:    userID,
		FileName:  fileName,
		State:     models.ImportStateUpload,
		Records:   []*models.ImportedProduct{},
		Selected:  []int{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) require(state models.ImportState) error {
	if s.State != state {
		return fmt.Errorf("%w: session is %s, expected %s", ErrInvalidTransition, s.State, state)
	}
	return nil
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}

// Load validates the parsed records, selects every valid one and moves the
// session to review
func (s *Session) Load(fileName string, records []*models.ImportedProduct) error {
	if err := s.require(models.ImportStateUpload); err != nil {
		return err
	}
	ValidateAll(records)
	s.FileName = fileName
	s.Records = records
	s.State = models.ImportStateReview
	s.selectValid()
	s.touch()
	return nil
}

// Selectable reports whether the record at index can be selected
func (s *Session) Selectable(index int) bool {
	return index >= 0 && index < len(s.Records) && s.Records[index].Valid()
}

// IsSelected reports whether the record at index is selected
func (s *Session) IsSelected(index int) bool {
	i := sort.SearchInts(s.Selected, index)
	return i < len(s.Selected) && s.Selected[i] == index
}

func (s *Session) selectValid() {
	s.Selected = make([]int, 0, len(s.Records))
	for i := range s.Records {
		if s.Selectable(i) {
			s.Selected = append(s.Selected, i)
		}
	}
}

// SelectAllValid replaces the selection with every valid record
func (s *Session) SelectAllValid() error {
	if err := s.require(models.ImportStateReview); err != nil {
		return err
	}
	s.selectValid()
	s.touch()
	return nil
}

// SelectNone clears the selection
func (s *Session) SelectNone() error {
	if err := s.require(models.ImportStateReview); err != nil {
		return err
	}
	s.Selected = []int{}
	s.touch()
	return nil
}

// Toggle flips the selection of one record. Records with errors cannot be toggled.
func (s *Session) Toggle(index int) error {
	if err := s.require(models.ImportStateReview); err != nil {
		return err
	}
	if index < 0 || index >= len(s.Records) {
		return fmt.Errorf("%w: %d", ErrRowNotFound, index)
	}
	if !s.Selectable(index) {
		return fmt.Errorf("%w: line %d", ErrRowNotSelectable, s.Records[index].Line)
	}

	i := sort.SearchInts(s.Selected, index)
	if i < len(s.Selected) && s.Selected[i] == index {
		s.Selected = append(s.Selected[:i], s.Selected[i+1:]...)
	} else {
		s.Selected = append(s.Selected, 0)
		copy(s.Selected[i+1:], s.Selected[i:])
		s.Selected[i] = index
	}
	s.touch()
	return nil
}

// Reset discards the loaded file and returns to the upload state
func (s *Session) Reset() error {
	if err := s.require(models.ImportStateReview); err != nil {
		return err
	}
	s.State = models.ImportStateUpload
	s.FileName = ""
	s.Records = []*models.ImportedProduct{}
	s.Selected = []int{}
	s.ArchiveKey = ""
	s.touch()
	return nil
}

// Submit creates every selected record in file order, one at a time. A failed
// record is recorded and does not stop the rest. Submission runs to the end even
// if ctx is cancelled once it has started.
func (s *Session) Submit(ctx context.Context, creator ProductCreator) error {
	if err := s.require(models.ImportStateReview); err != nil {
		return err
	}
	if len(s.Selected) == 0 {
		return ErrNothingSelected
	}

	ctx = context.WithoutCancel(ctx)
	results := make([]models.SubmissionResult, 0, len(s.Selected))
	tally := &models.ImportTally{}

	for _, index := range s.Selected {
		record := s.Records[index]
		if !record.Valid() {
			continue
		}

		result := models.SubmissionResult{Index: index, Line: record.Line, SKU: record.SKU}
		product, err := createOne(ctx, creator, s.TenantID, s.UserID, record)
		tally.Attempted++
		if err != nil {
			result.Error = err.Error()
			tally.Failed++
		} else {
			result.Success = true
			if product != nil {
				result.ProductID = product.ID.String()
			}
			tally.Succeeded++
		}
		results = append(results, result)
	}

	s.Results = results
	s.Tally = tally
	s.State = models.ImportStateComplete
	s.touch()
	return nil
}

func createOne(ctx context.Context, creator ProductCreator, tenantID, userID string, record *models.ImportedProduct) (product *models.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("create product panicked: %v", r)
		}
	}()
	return creator.CreateProduct(ctx, tenantID, userID, record.ToCreateRequest())
}

// Summary counts the records by validation outcome
func (s *Session) Summary() models.ImportSummary {
	summary := models.ImportSummary{Total: len(s.Records), Selected: len(s.Selected)}
	for _, r := range s.Records {
		switch {
		case !r.Valid():
			summary.Errored++
		case len(r.Warnings) > 0:
			summary.Warned++
			summary.Valid++
		default:
			summary.Valid++
		}
	}
	return summary
}

// View builds the API representation of the session
func (s *Session) View() *models.ImportSessionView {
	return &models.ImportSessionView{
		ID:        s.ID,
		FileName:  s.FileName,
		State:     s.State,
		Summary:   s.Summary(),
		Records:   s.Records,
		Selected:  s.Selected,
		Results:   s.Results,
		Tally:     s.Tally,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
