package integration

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/internal/repositories/product"
	"github.com/Ramsey-B/fern/internal/repositories/retryqueue"
	"github.com/Ramsey-B/fern/internal/repositories/skumapping"
	"github.com/Ramsey-B/fern/pkg/catalog"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/loader"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizer"
	"github.com/Ramsey-B/fern/pkg/verification"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "fern"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, getTestLogger())
}

type testStack struct {
	db           database.DB
	products     *product.Repository
	mappings     *skumapping.Repository
	retries      *retryqueue.Repository
	orchestrator *loader.Orchestrator
	verification *verification.Service
}

func newTestStack(t *testing.T) *testStack {
	db := getTestDB(t)
	logger := getTestLogger()

	products := product.NewRepository(db, logger)
	mappings := skumapping.NewRepository(db, logger)
	retries := retryqueue.NewRepository(db, logger)

	norm := normalizer.New(logger, normalizer.DefaultDictionaries())
	finder := matching.NewFinder(products, logger)
	resolver := matching.NewResolver(finder, matching.NewScorer(), matching.DefaultConfig(), logger)
	cat := catalog.NewManager()
	emitter := events.NewEmitter(nil, logger)

	return &testStack{
		db:           db,
		products:     products,
		mappings:     mappings,
		retries:      retries,
		orchestrator: loader.NewOrchestrator(db, norm, resolver, cat, products, mappings, retries, emitter, logger, time.Hour),
		verification: verification.NewService(db, mappings, products, cat, resolver, emitter, logger),
	}
}

// uniqueRecord builds a record whose name cannot collide with other test runs
func uniqueRecord(source, sku, prefix string) models.SourceRecord {
	return models.SourceRecord{
		Source:      source,
		ExternalSKU: sku,
		Name:        prefix + " " + uuid.New().String()[:8],
		Brand:       "Logitech",
		Category:    "electronics",
		Price:       29.99,
		Attributes:  map[string]string{"color": "black"},
	}
}

func TestLoadBatch_Lifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	stack := newTestStack(t)
	ctx := context.Background()
	source := "test-" + uuid.New().String()[:8]

	rec := uniqueRecord(source, "SKU-1", "Wireless Mouse")

	// first load creates a canonical product with a pending mapping
	result, err := stack.orchestrator.LoadBatch(ctx, []models.SourceRecord{rec})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.NewCanonical)
	assert.Equal(t, 0, result.Matched)
	assert.Equal(t, 0, result.Errors)

	mapping, err := stack.mappings.GetBySourceSKU(ctx, source, "SKU-1")
	require.NoError(t, err)
	require.NotNil(t, mapping)
	assert.Equal(t, models.VerificationStatusPending, mapping.Status)

	created, err := stack.products.Get(ctx, mapping.CanonicalID)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, rec.Name, created.Name)

	// reloading the same record matches the product it created, no duplicate
	result, err = stack.orchestrator.LoadBatch(ctx, []models.SourceRecord{rec})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.NewCanonical)
	assert.Equal(t, 1, result.Matched)

	remapped, err := stack.mappings.GetBySourceSKU(ctx, source, "SKU-1")
	require.NoError(t, err)
	require.NotNil(t, remapped)
	assert.Equal(t, mapping.CanonicalID, remapped.CanonicalID)
	assert.Equal(t, models.VerificationStatusAuto, remapped.Status)

	// a second source for the same product maps to the same canonical record
	other := rec
	other.Source = source + "-b"
	other.ExternalSKU = "OTHER-9"
	result, err = stack.orchestrator.LoadBatch(ctx, []models.SourceRecord{other})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Matched)

	otherMapping, err := stack.mappings.GetBySourceSKU(ctx, other.Source, "OTHER-9")
	require.NoError(t, err)
	require.NotNil(t, otherMapping)
	assert.Equal(t, mapping.CanonicalID, otherMapping.CanonicalID)
}

func TestLoadBatch_RecordFailureIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	stack := newTestStack(t)
	ctx := context.Background()
	source := "test-" + uuid.New().String()[:8]

	records := []models.SourceRecord{
		uniqueRecord(source, "A-1", "Keyboard"),
		uniqueRecord(source, "A-2", "Monitor"),
		{Source: source, Name: "Broken Record Without SKU"},
		uniqueRecord(source, "A-3", "Webcam"),
	}

	result, err := stack.orchestrator.LoadBatch(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Processed, "the failed record still counts as processed")
	assert.Equal(t, 1, result.Errors)

	// the good records committed despite the bad one
	for _, sku := range []string{"A-1", "A-2", "A-3"} {
		mapping, err := stack.mappings.GetBySourceSKU(ctx, source, sku)
		require.NoError(t, err)
		assert.NotNil(t, mapping, "mapping for %s should exist", sku)
	}

	// the bad record is parked for retry
	entries, err := stack.retries.ListDue(ctx, 1000)
	require.NoError(t, err)
	found := false
	for _, e := range entries {
		if e.Source == source {
			found = true
			break
		}
	}
	// retry_after is in the future, so the entry is not due yet
	assert.False(t, found, "fresh retry entries should not be due")
}

func TestVerification_ConfirmIsTerminal(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	stack := newTestStack(t)
	ctx := context.Background()
	source := "test-" + uuid.New().String()[:8]

	rec := uniqueRecord(source, "V-1", "Headset")
	_, err := stack.orchestrator.LoadBatch(ctx, []models.SourceRecord{rec})
	require.NoError(t, err)

	mapping, err := stack.mappings.GetBySourceSKU(ctx, source, "V-1")
	require.NoError(t, err)
	require.Equal(t, models.VerificationStatusPending, mapping.Status)

	confirmed, err := stack.verification.Confirm(ctx, mapping.ID, models.ConfirmMappingRequest{Approved: true})
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusManual, confirmed.Status)
	require.NotNil(t, confirmed.ResolvedAt)
	require.NotNil(t, confirmed.ResolvedBy)

	// a second decision is re-applied idempotently and never moves the target
	again, err := stack.verification.Confirm(ctx, mapping.ID, models.ConfirmMappingRequest{Approved: false})
	require.NoError(t, err)
	assert.Equal(t, confirmed.CanonicalID, again.CanonicalID)
	assert.Equal(t, models.VerificationStatusManual, again.Status)

	// deciding a mapping that does not exist is a 404
	_, err = stack.verification.Confirm(ctx, uuid.New().String(), models.ConfirmMappingRequest{Approved: true})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))

	// reloads keep the human decision in place
	_, err = stack.orchestrator.LoadBatch(ctx, []models.SourceRecord{rec})
	require.NoError(t, err)

	after, err := stack.mappings.GetBySourceSKU(ctx, source, "V-1")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusManual, after.Status)
	assert.Equal(t, confirmed.CanonicalID, after.CanonicalID)
}

func TestVerification_RejectMintsNewProduct(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	stack := newTestStack(t)
	ctx := context.Background()
	source := "test-" + uuid.New().String()[:8]

	rec := uniqueRecord(source, "R-1", "Speaker")
	_, err := stack.orchestrator.LoadBatch(ctx, []models.SourceRecord{rec})
	require.NoError(t, err)

	mapping, err := stack.mappings.GetBySourceSKU(ctx, source, "R-1")
	require.NoError(t, err)
	originalTarget := mapping.CanonicalID

	confirmed, err := stack.verification.Confirm(ctx, mapping.ID, models.ConfirmMappingRequest{
		Approved: false,
		Reason:   "wrong product family",
	})
	require.NoError(t, err)
	assert.Equal(t, models.VerificationStatusManual, confirmed.Status)
	assert.NotEqual(t, originalTarget, confirmed.CanonicalID)
	require.NotNil(t, confirmed.ResolutionReason)
	assert.Equal(t, "wrong product family", *confirmed.ResolutionReason)

	minted, err := stack.products.Get(ctx, confirmed.CanonicalID)
	require.NoError(t, err)
	require.NotNil(t, minted)
	assert.Equal(t, models.ProductStatusActive, minted.Status)

	// reloads keep the rationale with the decision
	_, err = stack.orchestrator.LoadBatch(ctx, []models.SourceRecord{rec})
	require.NoError(t, err)

	after, err := stack.mappings.GetBySourceSKU(ctx, source, "R-1")
	require.NoError(t, err)
	require.NotNil(t, after.ResolutionReason)
	assert.Equal(t, "wrong product family", *after.ResolutionReason)
}
