package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
)

// TestAPIHelpers contains helper functions for API testing
type TestAPIHelpers struct {
	t *testing.T
	e *echo.Echo
}

func NewTestAPIHelpers(t *testing.T) *TestAPIHelpers {
	return &TestAPIHelpers{
		t: t,
		e: echo.New(),
	}
}

func (h *TestAPIHelpers) MakeRequest(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

func TestLoadAPI_Validation(t *testing.T) {
	t.Run("LoadBatch_ValidRequest", func(t *testing.T) {
		req := models.LoadBatchRequest{
			Records: []models.SourceRecord{
				{
					Source:      "amazon",
					ExternalSKU: "B0123456",
					Name:        "Wireless Mouse",
					Brand:       "Logitech",
					Category:    "electronics",
					Price:       29.99,
					Attributes:  map[string]string{"color": "black"},
				},
			},
		}

		data, err := json.Marshal(req)
		require.NoError(t, err)

		var parsed models.LoadBatchRequest
		err = json.Unmarshal(data, &parsed)
		require.NoError(t, err)

		require.Len(t, parsed.Records, 1)
		assert.Equal(t, "amazon", parsed.Records[0].Source)
		assert.Equal(t, "B0123456", parsed.Records[0].ExternalSKU)
	})

	t.Run("LoadBatch_IdentitySurvivesRoundTrip", func(t *testing.T) {
		rec := models.SourceRecord{
			Source:      "ebay",
			ExternalSKU: "sku-9",
			Name:        "USB-C Cable",
		}

		data, err := json.Marshal(rec)
		require.NoError(t, err)

		var parsed models.SourceRecord
		err = json.Unmarshal(data, &parsed)
		require.NoError(t, err)

		assert.Equal(t, rec.Source, parsed.Source)
		assert.Equal(t, rec.ExternalSKU, parsed.ExternalSKU)
	})

	t.Run("BatchResult_Counters", func(t *testing.T) {
		result := models.BatchResult{
			Processed:        8,
			Matched:          4,
			NewCanonical:     2,
			UpdatedCanonical: 1,
			Errors:           2,
		}

		data, err := json.Marshal(result)
		require.NoError(t, err)

		var parsed models.BatchResult
		err = json.Unmarshal(data, &parsed)
		require.NoError(t, err)

		// processed counts every record attempted, so matches, new records,
		// and failures all fit inside it
		assert.GreaterOrEqual(t, parsed.Processed, parsed.Matched+parsed.NewCanonical+parsed.Errors)
		assert.Equal(t, result.Errors, parsed.Errors)
	})
}

func TestScoring_Weights(t *testing.T) {
	t.Run("WeightsSumToOne", func(t *testing.T) {
		total := matching.WeightName + matching.WeightBrand + matching.WeightCategory + matching.WeightAttributes
		assert.InDelta(t, 1.0, total, 0.001)
	})

	t.Run("NameDominates", func(t *testing.T) {
		assert.Greater(t, matching.WeightName, matching.WeightBrand)
		assert.Greater(t, matching.WeightBrand, matching.WeightCategory)
		assert.Greater(t, matching.WeightCategory, matching.WeightAttributes)
	})
}

func TestMatchResult_Validation(t *testing.T) {
	t.Run("NoMatch_KeepsScoreAndCandidates", func(t *testing.T) {
		result := models.MatchResult{
			Score: 0.62,
			Candidates: []models.CandidateInfo{
				{
					ProductID: "prod-1",
					Name:      "Wireless Mouse",
					Score:     0.62,
					FieldScores: map[string]float64{
						"name":       0.8,
						"brand":      0.0,
						"category":   1.0,
						"attributes": 0.5,
					},
				},
			},
		}

		data, err := json.Marshal(result)
		require.NoError(t, err)

		var parsed models.MatchResult
		err = json.Unmarshal(data, &parsed)
		require.NoError(t, err)

		assert.Nil(t, parsed.Best)
		assert.InDelta(t, 0.62, parsed.Score, 0.001)
		require.Len(t, parsed.Candidates, 1)
		assert.Contains(t, parsed.Candidates[0].FieldScores, "name")
	})
}

func TestVerificationAPI_Validation(t *testing.T) {
	t.Run("VerificationStatuses", func(t *testing.T) {
		statuses := []models.VerificationStatus{
			models.VerificationStatusAuto,
			models.VerificationStatusPending,
			models.VerificationStatusManual,
		}

		for _, s := range statuses {
			assert.NotEmpty(t, s)
		}
	})

	t.Run("ConfirmMapping_Reject_WithReassign", func(t *testing.T) {
		target := "prod-42"
		req := models.ConfirmMappingRequest{
			Approved:     false,
			Reason:       "wrong brand",
			ReassignToID: &target,
		}

		data, err := json.Marshal(req)
		require.NoError(t, err)

		var parsed models.ConfirmMappingRequest
		err = json.Unmarshal(data, &parsed)
		require.NoError(t, err)

		assert.False(t, parsed.Approved)
		require.NotNil(t, parsed.ReassignToID)
		assert.Equal(t, "prod-42", *parsed.ReassignToID)
	})

	t.Run("BulkApprove_RequiresIDs", func(t *testing.T) {
		req := models.BulkApproveRequest{}
		assert.Empty(t, req.MappingIDs, "empty id list should fail request validation")
	})

	t.Run("BulkApproveResult_PartialFailure", func(t *testing.T) {
		result := models.BulkApproveResult{
			Approved: []string{"m-1", "m-3"},
			Failed:   map[string]string{"m-2": "mapping not found"},
		}

		data, err := json.Marshal(result)
		require.NoError(t, err)

		var parsed models.BulkApproveResult
		err = json.Unmarshal(data, &parsed)
		require.NoError(t, err)

		assert.Len(t, parsed.Approved, 2)
		assert.Contains(t, parsed.Failed, "m-2")
	})

	t.Run("PendingMapping_CarriesProductFields", func(t *testing.T) {
		pending := models.PendingMapping{
			SkuMapping: models.SkuMapping{
				ID:          "m-1",
				Source:      "amazon",
				ExternalSKU: "B0123456",
				CanonicalID: "prod-1",
				Confidence:  0.74,
				Status:      models.VerificationStatusPending,
			},
			ProductName:     "wireless mouse",
			ProductBrand:    "logitech",
			ProductCategory: "electronics",
		}

		data, err := json.Marshal(pending)
		require.NoError(t, err)

		var parsed map[string]any
		err = json.Unmarshal(data, &parsed)
		require.NoError(t, err)

		assert.Equal(t, "pending", parsed["status"])
		assert.Equal(t, "wireless mouse", parsed["product_name"])
	})
}

func TestSkuMapping_SourceRecordRoundTrip(t *testing.T) {
	rec := models.SourceRecord{
		Source:      "walmart",
		ExternalSKU: "W-77",
		Name:        "herbal shampoo 200ml",
		Brand:       "doveco",
	}

	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	mapping := models.SkuMapping{SourcePayload: payload}
	restored, err := mapping.SourceRecord()
	require.NoError(t, err)
	assert.Equal(t, rec.Name, restored.Name)
	assert.Equal(t, rec.ExternalSKU, restored.ExternalSKU)

	mapping.SourcePayload = json.RawMessage(`not json`)
	_, err = mapping.SourceRecord()
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("HealthResponse", func(t *testing.T) {
		response := map[string]any{
			"status":  "healthy",
			"version": "1.0.0",
			"checks": map[string]any{
				"database": map[string]any{
					"status":  "healthy",
					"latency": "5ms",
				},
				"kafka": map[string]any{
					"status": "healthy",
				},
			},
		}

		data, err := json.Marshal(response)
		require.NoError(t, err)

		var parsed map[string]any
		err = json.Unmarshal(data, &parsed)
		require.NoError(t, err)

		assert.Equal(t, "healthy", parsed["status"])
		checks := parsed["checks"].(map[string]any)
		assert.Contains(t, checks, "database")
	})
}

func TestAPIErrorResponses(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		response := map[string]any{
			"error":   "Mapping not found",
			"code":    http.StatusNotFound,
			"details": "Mapping with ID 'abc-123' does not exist",
		}

		data, err := json.Marshal(response)
		require.NoError(t, err)

		var parsed map[string]any
		err = json.Unmarshal(data, &parsed)
		require.NoError(t, err)

		code := int(parsed["code"].(float64))
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("BadRequest", func(t *testing.T) {
		response := map[string]any{
			"error": "Validation failed",
			"code":  http.StatusBadRequest,
			"details": []string{
				"records is required",
				"records must have at least one item",
			},
		}

		data, err := json.Marshal(response)
		require.NoError(t, err)

		var parsed map[string]any
		err = json.Unmarshal(data, &parsed)
		require.NoError(t, err)

		details := parsed["details"].([]any)
		assert.Len(t, details, 2)
	})

	t.Run("InternalError", func(t *testing.T) {
		response := map[string]any{
			"error": "failed to commit",
			"code":  http.StatusInternalServerError,
		}

		data, err := json.Marshal(response)
		require.NoError(t, err)

		var parsed map[string]any
		err = json.Unmarshal(data, &parsed)
		require.NoError(t, err)

		code := int(parsed["code"].(float64))
		assert.Equal(t, http.StatusInternalServerError, code)
	})
}

// Benchmark tests
func BenchmarkBatchParsing(b *testing.B) {
	records := make([]models.SourceRecord, 50)
	for i := range records {
		records[i] = models.SourceRecord{
			Source:      "amazon",
			ExternalSKU: "B0123456",
			Name:        "Wireless Mouse",
			Brand:       "Logitech",
			Category:    "electronics",
			Price:       29.99,
		}
	}
	data, _ := json.Marshal(models.LoadBatchRequest{Records: records})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var parsed models.LoadBatchRequest
		_ = json.Unmarshal(data, &parsed)
	}
}

func BenchmarkHTTPRequest(b *testing.B) {
	e := echo.New()
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
	}
}
