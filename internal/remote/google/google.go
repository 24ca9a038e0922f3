// Package google replicates the year snapshot into a Google Sheet directly,
// for households that own the spreadsheet but run no Apps Script shim. The
// whole snapshot is serialized into a single cell of a dedicated sheet, so
// both directions stay atomic like the script protocol.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"budgetbabah/internal/core"
	"budgetbabah/internal/remote"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ remote.Replica = (*Client)(nil)

// NewFromEnv creates a Sheets-backed replica from environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Budget")
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Budget"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) snapshotRange() string {
	return fmt.Sprintf("%s!A1", c.sheetName)
}

// Push overwrites the snapshot cell with the serialized year data.
func (c *Client) Push(ctx context.Context, year core.FullYearData) error {
	raw, err := json.Marshal(year)
	if err != nil {
		return fmt.Errorf("marshal year data: %w", err)
	}

	vr := &gsheet.ValueRange{Values: [][]interface{}{{string(raw)}}}
	_, err = c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, c.snapshotRange(), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update snapshot cell: %w", err)
	}
	return nil
}

// Pull reads the snapshot cell back. An empty cell yields an empty snapshot
// with a nil error, so callers leave local state untouched.
func (c *Client) Pull(ctx context.Context) (core.FullYearData, error) {
	resp, err := c.svc.Spreadsheets.Values.
		Get(c.spreadsheetID, c.snapshotRange()).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read snapshot cell: %w", err)
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return core.FullYearData{}, nil
	}
	raw, ok := resp.Values[0][0].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return core.FullYearData{}, nil
	}

	var year core.FullYearData
	if err := json.Unmarshal([]byte(raw), &year); err != nil {
		return nil, fmt.Errorf("decode snapshot cell: %w", err)
	}
	return year, nil
}

// Ping checks that the spreadsheet is reachable with current credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.svc.Spreadsheets.
		Get(c.spreadsheetID).
		Fields("spreadsheetId").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	return nil
}
