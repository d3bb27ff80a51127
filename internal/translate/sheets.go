package translate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pptxtrans/internal/google"
	"pptxtrans/internal/logger"
)

// sheetsLoading is what a GOOGLETRANSLATE cell reads while Google is
// still evaluating it.
const sheetsLoading = "Loading..."

// SheetsEngine translates by round-tripping texts through a throwaway
// Google Sheet filled with GOOGLETRANSLATE() formulas.
type SheetsEngine struct {
	client       *google.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// NewSheetsEngine creates the formula-based engine.
func NewSheetsEngine(client *google.Client) *SheetsEngine {
	return &SheetsEngine{
		client:       client,
		pollInterval: 2 * time.Second,
		pollTimeout:  2 * time.Minute,
	}
}

func (e *SheetsEngine) Name() string { return EngineSheets }

func (e *SheetsEngine) Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	title := "pptxtrans-" + uuid.New().String()
	spreadsheetID, err := e.client.CreateSpreadsheet(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("create work sheet: %w", err)
	}
	defer func() {
		// The sheet is scratch space; losing the delete only leaks a
		// file into the service account's Drive.
		if err := e.client.DeleteFile(context.WithoutCancel(ctx), spreadsheetID); err != nil {
			logger.Warn("work sheet delete failed", "module", "translate", "action", "delete", "resource", "sheet", "result", "failed", "spreadsheet_id", spreadsheetID, "error", err)
		}
	}()

	values := make([][]any, len(texts))
	for i, text := range texts {
		formula := fmt.Sprintf(`=GOOGLETRANSLATE(A%d,"%s","%s")`, i+1, sourceLang, targetLang)
		values[i] = []any{text, formula}
	}
	writeRange := fmt.Sprintf("Sheet1!A1:B%d", len(texts))
	if err := e.client.UpdateValues(ctx, spreadsheetID, writeRange, values); err != nil {
		return nil, fmt.Errorf("write work sheet: %w", err)
	}

	readRange := fmt.Sprintf("Sheet1!B1:B%d", len(texts))
	deadline := time.Now().Add(e.pollTimeout)
	for {
		rows, err := e.client.GetValues(ctx, spreadsheetID, readRange)
		if err != nil {
			return nil, fmt.Errorf("read work sheet: %w", err)
		}
		if out, done := collectFormulaResults(rows, len(texts)); done {
			return out, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("formulas did not settle within %s", e.pollTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.pollInterval):
		}
	}
}

func collectFormulaResults(rows [][]string, n int) ([]string, bool) {
	if len(rows) < n {
		return nil, false
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		if len(rows[i]) == 0 {
			return nil, false
		}
		v := rows[i][0]
		if v == "" || v == sheetsLoading {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
