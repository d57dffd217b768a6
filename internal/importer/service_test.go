package importer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"product-import-service/internal/models"
)

// mapStore keeps sessions as JSON so each Load returns a fresh copy
type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string][]byte)}
}

func (m *mapStore) Save(ctx context.Context, session *Session) error {
	b, err := json.Marshal(session)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[session.TenantID+"/"+session.ID] = b
	return nil
}

func (m *mapStore) Load(ctx context.Context, tenantID, sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[tenantID+"/"+sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *mapStore) Delete(ctx context.Context, tenantID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, tenantID+"/"+sessionID)
	return nil
}

// MockRunRecorder is a mock implementation of RunRecorder
type MockRunRecorder struct {
	mock.Mock
}

var _ RunRecorder = (*MockRunRecorder)(nil)

func (m *MockRunRecorder) RecordRun(ctx context.Context, run *models.ImportRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// MockArchiver is a mock implementation of Archiver
type MockArchiver struct {
	mock.Mock
}

var _ Archiver = (*MockArchiver)(nil)

func (m *MockArchiver) Archive(ctx context.Context, tenantID, sessionID, filename string, data []byte) (string, error) {
	args := m.Called(ctx, tenantID, sessionID, filename, data)
	return args.String(0), args.Error(1)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

const threeRows = "title,sku,price,stock,category,images\n" +
	"Alpha,A1,10,5,Tools,https://x/a.jpg\n" +
	"Beta,B1,12,5,Tools,https://x/b.jpg\n" +
	"Gamma,C1,15,0,Tools,https://x/c.jpg\n"

func TestServiceUpload_OpensReviewSession(t *testing.T) {
	store := newMapStore()
	svc := NewService(store, new(MockProductCreator), quietLogger())

	session, err := svc.Upload(context.Background(), "tenant-1", "user-1", "products.csv", []byte(threeRows))

	require.NoError(t, err)
	assert.Equal(t, models.ImportStateReview, session.State)
	assert.Len(t, session.Records, 3)
	assert.Equal(t, []int{0, 1, 2}, session.Selected)

	stored, err := store.Load(context.Background(), "tenant-1", session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Selected, stored.Selected)
	assert.Equal(t, []string{MsgZeroStock}, stored.Records[2].Warnings)
}

func TestServiceUpload_ParseFailuresCreateNothing(t *testing.T) {
	store := newMapStore()
	svc := NewService(store, new(MockProductCreator), quietLogger())

	_, err := svc.Upload(context.Background(), "tenant-1", "user-1", "products.csv", []byte{0xff, 0x00})
	assert.ErrorIs(t, err, ErrUnreadableFile)

	_, err = svc.Upload(context.Background(), "tenant-1", "user-1", "products.csv", []byte("title,sku,price\n"))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = svc.Upload(context.Background(), "tenant-1", "user-1", "products.json", []byte("{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.Empty(t, store.data)
}

func TestServiceUpload_ArchivesFile(t *testing.T) {
	archiver := new(MockArchiver)
	archiver.On("Archive", mock.Anything, "tenant-1", mock.AnythingOfType("string"), "products.csv", []byte(threeRows)).
		Return("imports/tenant-1/abc/products.csv", nil)
	svc := NewService(newMapStore(), new(MockProductCreator), quietLogger(), WithArchiver(archiver))

	session, err := svc.Upload(context.Background(), "tenant-1", "user-1", "products.csv", []byte(threeRows))

	require.NoError(t, err)
	assert.Equal(t, "imports/tenant-1/abc/products.csv", session.ArchiveKey)
	archiver.AssertExpectations(t)
}

func TestServiceUpload_ArchiveFailureIsNotFatal(t *testing.T) {
	archiver := new(MockArchiver)
	archiver.On("Archive", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("bucket unavailable"))
	svc := NewService(newMapStore(), new(MockProductCreator), quietLogger(), WithArchiver(archiver))

	session, err := svc.Upload(context.Background(), "tenant-1", "user-1", "products.csv", []byte(threeRows))

	require.NoError(t, err)
	assert.Empty(t, session.ArchiveKey)
}

func TestServiceGet_TenantIsolation(t *testing.T) {
	svc := NewService(newMapStore(), new(MockProductCreator), quietLogger())
	session, err := svc.Upload(context.Background(), "tenant-1", "user-1", "products.csv", []byte(threeRows))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "tenant-2", session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Toggle(context.Background(), "tenant-2", session.ID, 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestServiceSubmit_RecordsRun(t *testing.T) {
	creator := new(MockProductCreator)
	creator.On("CreateProduct", mock.Anything, "tenant-1", "user-1", skuIs("A1")).Return(createdProduct("A1"), nil)
	creator.On("CreateProduct", mock.Anything, "tenant-1", "user-1", skuIs("B1")).Return(nil, errors.New("SKU already exists"))
	creator.On("CreateProduct", mock.Anything, "tenant-1", "user-1", skuIs("C1")).Return(createdProduct("C1"), nil)
	runs := new(MockRunRecorder)
	runs.On("RecordRun", mock.Anything, mock.MatchedBy(func(run *models.ImportRun) bool {
		return run.TenantID == "tenant-1" && run.TotalRows == 3 &&
			run.Attempted == 3 && run.Succeeded == 2 && run.Failed == 1 &&
			run.SubmittedBy != nil && *run.SubmittedBy == "user-1"
	})).Return(nil)
	store := newMapStore()
	svc := NewService(store, creator, quietLogger(), WithRunRecorder(runs))

	session, err := svc.Upload(context.Background(), "tenant-1", "user-1", "products.csv", []byte(threeRows))
	require.NoError(t, err)
	session, err = svc.Submit(context.Background(), "tenant-1", session.ID)

	require.NoError(t, err)
	assert.Equal(t, models.ImportStateComplete, session.State)
	assert.Equal(t, "B1", session.Results[1].SKU)
	assert.False(t, session.Results[1].Success)
	runs.AssertExpectations(t)

	stored, err := store.Load(context.Background(), "tenant-1", session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStateComplete, stored.State)
}

func TestServiceSubmit_NothingSelectedLeavesSessionUntouched(t *testing.T) {
	creator := new(MockProductCreator)
	runs := new(MockRunRecorder)
	store := newMapStore()
	svc := NewService(store, creator, quietLogger(), WithRunRecorder(runs))
	session, err := svc.Upload(context.Background(), "tenant-1", "user-1", "products.csv", []byte(threeRows))
	require.NoError(t, err)
	_, err = svc.SelectNone(context.Background(), "tenant-1", session.ID)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), "tenant-1", session.ID)

	assert.ErrorIs(t, err, ErrNothingSelected)
	stored, err := store.Load(context.Background(), "tenant-1", session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStateReview, stored.State)
	creator.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	runs.AssertNotCalled(t, "RecordRun", mock.Anything, mock.Anything)
}

func TestServiceReload_AfterReset(t *testing.T) {
	svc := NewService(newMapStore(), new(MockProductCreator), quietLogger())
	session, err := svc.Upload(context.Background(), "tenant-1", "user-1", "products.csv", []byte(threeRows))
	require.NoError(t, err)

	_, err = svc.Reload(context.Background(), "tenant-1", session.ID, "fixed.csv", []byte(threeRows))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Reset(context.Background(), "tenant-1", session.ID)
	require.NoError(t, err)
	reloaded, err := svc.Reload(context.Background(), "tenant-1", session.ID, "fixed.csv",
		[]byte("title,sku,price\nDelta,D1,9\n"))

	require.NoError(t, err)
	assert.Equal(t, session.ID, reloaded.ID)
	assert.Equal(t, "fixed.csv", reloaded.FileName)
	assert.Len(t, reloaded.Records, 1)
}

func TestServiceDiscard(t *testing.T) {
	svc := NewService(newMapStore(), new(MockProductCreator), quietLogger())
	session, err := svc.Upload(context.Background(), "tenant-1", "user-1", "products.csv", []byte(threeRows))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Discard(context.Background(), "tenant-2", session.ID), ErrSessionNotFound)
	require.NoError(t, svc.Discard(context.Background(), "tenant-1", session.ID))

	_, err = svc.Get(context.Background(), "tenant-1", session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
