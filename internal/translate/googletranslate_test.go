package translate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"pptxtrans/internal/translate"
)

func TestGoogleEngine_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req struct {
			Q      []string `json:"q"`
			Source string   `json:"source"`
			Target string   `json:"target"`
			Format string   `json:"format"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, []string{"Hello", "A & B"}, req.Q)
		require.Equal(t, "en", req.Source)
		require.Equal(t, "es", req.Target)
		require.Equal(t, "text", req.Format)

		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"translations": []map[string]string{
					{"translatedText": "Hola"},
					// The API sometimes entity-escapes despite format=text.
					{"translatedText": "A &amp; B"},
				},
			},
		})
	}))
	defer srv.Close()

	engine := translate.NewGoogleEngineForTest("test-key", srv.Client(), srv.URL)
	out, err := engine.Translate(context.Background(), []string{"Hello", "A & B"}, "en", "es")
	require.NoError(t, err)
	require.Equal(t, []string{"Hola", "A & B"}, out)
}

func TestGoogleEngine_Translate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	engine := translate.NewGoogleEngineForTest("bad-key", srv.Client(), srv.URL)
	_, err := engine.Translate(context.Background(), []string{"Hello"}, "en", "es")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 403")
}

func TestGoogleEngine_Translate_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"translations": []map[string]string{{"translatedText": "Hola"}},
			},
		})
	}))
	defer srv.Close()

	engine := translate.NewGoogleEngineForTest("test-key", srv.Client(), srv.URL)
	_, err := engine.Translate(context.Background(), []string{"Hello", "World"}, "en", "es")
	require.Error(t, err)
}

func TestNewGoogleEngine_RequiresKey(t *testing.T) {
	_, err := translate.NewGoogleEngine("", http.DefaultClient)
	require.Error(t, err)
}
