package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

const (
	defaultDriveBaseURL  = "https://www.googleapis.com/drive/v3"
	defaultUploadBaseURL = "https://www.googleapis.com/upload/drive/v3"
	defaultSheetsBaseURL = "https://sheets.googleapis.com/v4"
)

// Client speaks the Drive and Sheets REST APIs with a service-account
// token source.
type Client struct {
	ts   *TokenSource
	http *http.Client

	// Overridable for tests.
	driveBaseURL  string
	uploadBaseURL string
	sheetsBaseURL string
}

// NewClient creates a Drive/Sheets client.
func NewClient(ts *TokenSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		ts:            ts,
		http:          httpClient,
		driveBaseURL:  defaultDriveBaseURL,
		uploadBaseURL: defaultUploadBaseURL,
		sheetsBaseURL: defaultSheetsBaseURL,
	}
}

// NewClientForTest creates a client that talks to baseURL for every
// API surface. This is only for use in tests.
func NewClientForTest(ts *TokenSource, httpClient *http.Client, baseURL string) *Client {
	c := NewClient(ts, httpClient)
	c.driveBaseURL = baseURL
	c.uploadBaseURL = baseURL
	c.sheetsBaseURL = baseURL
	return c
}

func (c *Client) do(ctx context.Context, method, rawURL string, contentType string, body io.Reader) ([]byte, error) {
	token, err := c.ts.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, rawURL, resp.StatusCode, truncate(string(data), 200))
	}
	return data, nil
}

// UploadFile uploads content to Drive via a multipart/related request
// and returns the new file's ID. targetMIME is the Drive file type and
// may differ from contentMIME to request a conversion, e.g. uploading
// an .xlsx as application/vnd.google-apps.spreadsheet.
func (c *Client) UploadFile(ctx context.Context, name, targetMIME, contentMIME string, content []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	meta, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json; charset=UTF-8"}})
	if err != nil {
		return "", err
	}
	if err := json.NewEncoder(meta).Encode(map[string]string{"name": name, "mimeType": targetMIME}); err != nil {
		return "", err
	}
	media, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {contentMIME}})
	if err != nil {
		return "", err
	}
	if _, err := media.Write(content); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	uploadURL := c.uploadBaseURL + "/files?uploadType=multipart"
	contentType := "multipart/related; boundary=" + mw.Boundary()
	data, err := c.do(ctx, http.MethodPost, uploadURL, contentType, &buf)
	if err != nil {
		return "", fmt.Errorf("drive upload: %w", err)
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("parse upload response: %w", err)
	}
	return parsed.ID, nil
}

// DownloadFile fetches a Drive file's raw content.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	data, err := c.do(ctx, http.MethodGet, c.driveBaseURL+"/files/"+url.PathEscape(fileID)+"?alt=media", "", nil)
	if err != nil {
		return nil, fmt.Errorf("drive download: %w", err)
	}
	return data, nil
}

// ExportFile exports a Workspace document (e.g. a spreadsheet) to the
// given MIME type.
func (c *Client) ExportFile(ctx context.Context, fileID, mimeType string) ([]byte, error) {
	exportURL := c.driveBaseURL + "/files/" + url.PathEscape(fileID) + "/export?mimeType=" + url.QueryEscape(mimeType)
	data, err := c.do(ctx, http.MethodGet, exportURL, "", nil)
	if err != nil {
		return nil, fmt.Errorf("drive export: %w", err)
	}
	return data, nil
}

// DeleteFile removes a Drive file.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if _, err := c.do(ctx, http.MethodDelete, c.driveBaseURL+"/files/"+url.PathEscape(fileID), "", nil); err != nil {
		return fmt.Errorf("drive delete: %w", err)
	}
	return nil
}

// CreateSpreadsheet creates an empty spreadsheet and returns its ID.
func (c *Client) CreateSpreadsheet(ctx context.Context, title string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"properties": map[string]string{"title": title},
	})
	if err != nil {
		return "", err
	}
	data, err := c.do(ctx, http.MethodPost, c.sheetsBaseURL+"/spreadsheets", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("sheets create: %w", err)
	}

	var parsed struct {
		SpreadsheetID string `json:"spreadsheetId"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("parse create response: %w", err)
	}
	return parsed.SpreadsheetID, nil
}

// UpdateValues writes a cell range. Values go in as USER_ENTERED so
// formulas like GOOGLETRANSLATE() evaluate on Google's side.
func (c *Client) UpdateValues(ctx context.Context, spreadsheetID, a1Range string, values [][]any) error {
	body, err := json.Marshal(map[string]any{
		"range":          a1Range,
		"majorDimension": "ROWS",
		"values":         values,
	})
	if err != nil {
		return err
	}
	updateURL := fmt.Sprintf("%s/spreadsheets/%s/values/%s?valueInputOption=USER_ENTERED",
		c.sheetsBaseURL, url.PathEscape(spreadsheetID), url.PathEscape(a1Range))
	if _, err := c.do(ctx, http.MethodPut, updateURL, "application/json", bytes.NewReader(body)); err != nil {
		return fmt.Errorf("sheets update: %w", err)
	}
	return nil
}

// GetValues reads a cell range as strings.
func (c *Client) GetValues(ctx context.Context, spreadsheetID, a1Range string) ([][]string, error) {
	getURL := fmt.Sprintf("%s/spreadsheets/%s/values/%s",
		c.sheetsBaseURL, url.PathEscape(spreadsheetID), url.PathEscape(a1Range))
	data, err := c.do(ctx, http.MethodGet, getURL, "", nil)
	if err != nil {
		return nil, fmt.Errorf("sheets get: %w", err)
	}

	var parsed struct {
		Values [][]any `json:"values"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse values response: %w", err)
	}

	rows := make([][]string, len(parsed.Values))
	for i, row := range parsed.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = strings.TrimSpace(fmt.Sprint(v))
		}
		rows[i] = cells
	}
	return rows, nil
}
