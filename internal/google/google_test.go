package google_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"pptxtrans/internal/google"
)

func testKey(t *testing.T, tokenURI string) *google.ServiceAccountKey {
	t.Helper()
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(rsaKey),
	})
	return &google.ServiceAccountKey{
		Type:        "service_account",
		ProjectID:   "test-project",
		PrivateKey:  string(keyPEM),
		ClientEmail: "svc@test-project.iam.gserviceaccount.com",
		TokenURI:    tokenURI,
	}
}

func TestParseKey(t *testing.T) {
	key, err := google.ParseKey([]byte(`{
		"type": "service_account",
		"project_id": "p",
		"private_key": "pem",
		"client_email": "svc@p.iam.gserviceaccount.com"
	}`))
	require.NoError(t, err)
	require.Equal(t, "https://oauth2.googleapis.com/token", key.TokenURI)

	_, err = google.ParseKey([]byte(`{"type": "authorized_user"}`))
	require.Error(t, err)

	_, err = google.ParseKey([]byte(`{"type": "service_account"}`))
	require.Error(t, err)
}

func TestTokenSource_ExchangesAndCaches(t *testing.T) {
	var exchanges int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&exchanges, 1)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", r.Form.Get("grant_type"))
		require.NotEmpty(t, r.Form.Get("assertion"))
		// A JWS has three dot-separated base64 segments.
		require.Len(t, strings.Split(r.Form.Get("assertion"), "."), 3)

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token-1",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()

	ts := google.NewTokenSource(testKey(t, srv.URL), srv.Client(), google.ScopeDriveSheets)
	ctx := context.Background()

	token, err := ts.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "token-1", token)

	// Second call hits the cache.
	token, err = ts.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "token-1", token)
	require.Equal(t, int32(1), atomic.LoadInt32(&exchanges))
}

func TestTokenSource_ExchangeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	ts := google.NewTokenSource(testKey(t, srv.URL), srv.Client(), google.ScopeDriveSheets)
	_, err := ts.Token(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 400")
}

func newTestClient(t *testing.T, handler http.Handler) (*google.Client, *httptest.Server) {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	})
	mux.Handle("/", handler)
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ts := google.NewTokenSource(testKey(t, srv.URL+"/token"), srv.Client(), google.ScopeDriveSheets)
	return google.NewClientForTest(ts, srv.Client(), srv.URL), srv
}

func TestClient_UploadFile_ConvertsToSheet(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Contains(t, r.Header.Get("Content-Type"), "multipart/related")

		body := new(strings.Builder)
		_, err := io.Copy(body, r.Body)
		require.NoError(t, err)
		// Metadata part names the target type, content part carries the xlsx.
		require.Contains(t, body.String(), `"mimeType":"application/vnd.google-apps.spreadsheet"`)
		require.Contains(t, body.String(), "xlsx-bytes")

		json.NewEncoder(w).Encode(map[string]string{"id": "file-123"})
	}))

	id, err := client.UploadFile(
		context.Background(),
		"deck_review",
		"application/vnd.google-apps.spreadsheet",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		[]byte("xlsx-bytes"),
	)
	require.NoError(t, err)
	require.Equal(t, "file-123", id)
}

func TestClient_SheetsValues(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/spreadsheets"):
			json.NewEncoder(w).Encode(map[string]string{"spreadsheetId": "sheet-1"})
		case strings.Contains(r.URL.Path, "/values/"):
			if r.Method == http.MethodPut {
				require.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))
				w.Write([]byte(`{}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"values": [][]string{{"Hola"}, {"Mundo"}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	ctx := context.Background()

	id, err := client.CreateSpreadsheet(ctx, "scratch")
	require.NoError(t, err)
	require.Equal(t, "sheet-1", id)

	err = client.UpdateValues(ctx, id, "Sheet1!A1:B2", [][]any{{"a", "b"}})
	require.NoError(t, err)

	rows, err := client.GetValues(ctx, id, "Sheet1!B1:B2")
	require.NoError(t, err)
	require.Equal(t, [][]string{{"Hola"}, {"Mundo"}}, rows)
}
