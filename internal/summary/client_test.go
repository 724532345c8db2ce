package summary

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"wellness-monitor/internal/config"
	"wellness-monitor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func strPtr(s string) *string {
	return &s
}

func routineFixture() *models.DailyRoutine {
	return &models.DailyRoutine{
		RoutineID:        "house-001_2026-03-01",
		HouseholdID:      "house-001",
		Date:             "2026-03-01",
		WakeUpTime:       strPtr("06:30"),
		FirstKitchenTime: strPtr("07:05"),
		BedTime:          strPtr("22:10"),
		BathroomEvents:   4,
		TotalEvents:      42,
	}
}

func TestTemplateSummary_FullRoutine(t *testing.T) {
	text := TemplateSummary(routineFixture())
	assert.Equal(t, "Woke up at 06:30, first kitchen activity at 07:05, 4 bathroom visits, went to bed at 22:10. 42 sensor events recorded.", text)
}

func TestTemplateSummary_ActivityFallback(t *testing.T) {
	routine := &models.DailyRoutine{
		HouseholdID:   "house-001",
		Date:          "2026-03-01",
		ActivityStart: strPtr("08:00"),
		ActivityEnd:   strPtr("20:00"),
		TotalEvents:   10,
	}

	text := TemplateSummary(routine)
	assert.Equal(t, "First activity at 08:00, last activity at 20:00. 10 sensor events recorded.", text)
}

func TestTemplateSummary_Empty(t *testing.T) {
	routine := &models.DailyRoutine{HouseholdID: "house-001", Date: "2026-03-01"}
	assert.Equal(t, "No significant activity detected.", TemplateSummary(routine))
}

func TestGenerate_NoAPIKey_UsesTemplate(t *testing.T) {
	cfg := &config.Config{}
	client := NewClient(cfg, zap.NewNop())

	text := client.Generate(routineFixture())
	assert.Contains(t, text, "Woke up at 06:30")
}

func TestGenerate_LLMSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "meta/llama3-8b-instruct", req.Model)
		require.Len(t, req.Messages, 2)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "A calm, typical day at home."}},
			},
		})
	}))
	defer server.Close()

	cfg := &config.Config{}
	cfg.LLM.BaseURL = server.URL
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.Model = "meta/llama3-8b-instruct"

	client := NewClient(cfg, zap.NewNop())
	text := client.Generate(routineFixture())
	assert.Equal(t, "A calm, typical day at home.", text)
}

func TestGenerate_LLMFailure_FallsBackToTemplate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := &config.Config{}
	cfg.LLM.BaseURL = server.URL
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.Model = "meta/llama3-8b-instruct"

	client := NewClient(cfg, zap.NewNop())
	text := client.Generate(routineFixture())
	assert.Contains(t, text, "Woke up at 06:30")
}
