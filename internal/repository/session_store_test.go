package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"product-import-service/internal/importer"
	"product-import-service/internal/models"
)

func newTestSession(t *testing.T, tenantID string) *importer.Session {
	t.Helper()
	session := importer.NewSession(tenantID, "user-1", "products.csv")
	require.NoError(t, session.Load("products.csv", []*models.ImportedProduct{
		{Line: 2, Title: "Widget", SKU: "W1", Price: 10, Stock: 5},
		{Line: 3, Title: "Gadget", SKU: "", Price: 10, Stock: 5},
	}))
	return session
}

func TestMemorySessionStore_SaveAndLoad(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	session := newTestSession(t, "tenant-1")

	require.NoError(t, store.Save(context.Background(), session))
	loaded, err := store.Load(context.Background(), "tenant-1", session.ID)

	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)
	assert.Equal(t, models.ImportStateReview, loaded.State)
	assert.Equal(t, []int{0}, loaded.Selected)
	assert.Equal(t, session.Records[1].Errors, loaded.Records[1].Errors)
}

func TestMemorySessionStore_ReturnsCopies(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	session := newTestSession(t, "tenant-1")
	require.NoError(t, store.Save(context.Background(), session))

	loaded, err := store.Load(context.Background(), "tenant-1", session.ID)
	require.NoError(t, err)
	require.NoError(t, loaded.SelectNone())

	again, err := store.Load(context.Background(), "tenant-1", session.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, again.Selected)
}

func TestMemorySessionStore_TenantIsolation(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	session := newTestSession(t, "tenant-1")
	require.NoError(t, store.Save(context.Background(), session))

	_, err := store.Load(context.Background(), "tenant-2", session.ID)
	assert.ErrorIs(t, err, importer.ErrSessionNotFound)
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	session := newTestSession(t, "tenant-1")
	require.NoError(t, store.Save(context.Background(), session))

	now = now.Add(2 * time.Minute)

	_, err := store.Load(context.Background(), "tenant-1", session.ID)
	assert.ErrorIs(t, err, importer.ErrSessionNotFound)
}

func TestMemorySessionStore_Delete(t *testing.T) {
	store := NewMemorySessionStore(0)
	session := newTestSession(t, "tenant-1")
	require.NoError(t, store.Save(context.Background(), session))

	require.NoError(t, store.Delete(context.Background(), "tenant-1", session.ID))

	_, err := store.Load(context.Background(), "tenant-1", session.ID)
	assert.ErrorIs(t, err, importer.ErrSessionNotFound)
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "product_import:session:tenant-1:abc", sessionKey("tenant-1", "abc"))
}

func TestGenerateSlug(t *testing.T) {
	assert.Equal(t, "hardware-wallet-x1", generateSlug("Hardware Wallet X1"))
	assert.Equal(t, "caf-mug", generateSlug("Café Mug!"))
}
