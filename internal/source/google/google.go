package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"ecomdash/internal/core"
	"ecomdash/internal/source"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client reads the dashboard extracts from a Google Spreadsheet, one sheet per table.
type Client struct {
	svc              *gsheet.Service
	spreadsheetID    string
	categorySheet    string
	stateSheet       string
	topCategorySheet string
}

// Ensure interface conformance
var _ source.Source = (*Client)(nil)

// Sheets names the three tabs holding the extracts.
type Sheets struct {
	Category    string
	State       string
	TopCategory string
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional sheet names: GOOGLE_CATEGORY_SHEET (default "CategoryRevenue"),
// GOOGLE_STATE_SHEET (default "CustomerConcentration"),
// GOOGLE_TOP_CATEGORY_SHEET (default "TopCategories").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	names := Sheets{
		Category:    envOr("GOOGLE_CATEGORY_SHEET", "CategoryRevenue"),
		State:       envOr("GOOGLE_STATE_SHEET", "CustomerConcentration"),
		TopCategory: envOr("GOOGLE_TOP_CATEGORY_SHEET", "TopCategories"),
	}

	return Dial(ctx, spreadsheetID, names)
}

// Dial connects with service account or OAuth credentials from the environment.
func Dial(ctx context.Context, spreadsheetID string, names Sheets) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID, names), nil
}

// New wraps an existing service.
func New(svc *gsheet.Service, spreadsheetID string, names Sheets) *Client {
	return &Client{
		svc:              svc,
		spreadsheetID:    spreadsheetID,
		categorySheet:    names.Category,
		stateSheet:       names.State,
		topCategorySheet: names.TopCategory,
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// newSheetsService initializes a read-only Sheets service.
// Service account credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS. Without them
// an OAuth user token saved by ecomdash-oauth-init is used.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var opt goption.ClientOption
	switch {
	case serviceAccountJSON != "":
		opt = goption.WithCredentialsJSON([]byte(serviceAccountJSON))
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		opt = goption.WithCredentialsJSON(b)
	default:
		ts, err := oauthTokenSource(ctx)
		if err != nil {
			return nil, err
		}
		opt = goption.WithTokenSource(ts)
	}

	svc, err := gsheet.NewService(ctx, opt, goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// OAuthConfig parses an OAuth client definition for read-only Sheets access.
func OAuthConfig(clientJSON []byte) (*oauth2.Config, error) {
	cfg, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

// OAuthClientFromEnv reads the client definition from GOOGLE_OAUTH_CLIENT_JSON
// or GOOGLE_OAUTH_CLIENT_FILE.
func OAuthClientFromEnv() ([]byte, error) {
	return jsonFromEnv("GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE",
		"missing oauth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
}

func oauthTokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	clientJSON, err := OAuthClientFromEnv()
	if err != nil {
		return nil, err
	}
	cfg, err := OAuthConfig(clientJSON)
	if err != nil {
		return nil, err
	}
	tokenJSON, err := jsonFromEnv("GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE",
		"missing oauth token (set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE)")
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	return cfg.TokenSource(ctx, &tok), nil
}

// jsonFromEnv returns the inline value of jsonKey or the contents of the file named by fileKey.
func jsonFromEnv(jsonKey, fileKey, missing string) ([]byte, error) {
	if v := strings.TrimSpace(os.Getenv(jsonKey)); v != "" {
		return []byte(v), nil
	}
	if path := strings.TrimSpace(os.Getenv(fileKey)); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fileKey, err)
		}
		return b, nil
	}
	return nil, errors.New(missing)
}

// Load fetches the three sheets in one batch request.
func (c *Client) Load(ctx context.Context) (core.Dataset, error) {
	if c.svc == nil {
		return core.Dataset{}, errors.New("sheets service not initialized")
	}
	sheets := []string{c.categorySheet, c.stateSheet, c.topCategorySheet}
	ranges := make([]string, len(sheets))
	for i, name := range sheets {
		ranges[i] = fmt.Sprintf("'%s'!A:Z", name)
	}

	resp, err := c.svc.Spreadsheets.Values.BatchGet(c.spreadsheetID).
		Ranges(ranges...).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return core.Dataset{}, fmt.Errorf("batch get ranges %v: %w", ranges, err)
	}
	if len(resp.ValueRanges) != len(sheets) {
		return core.Dataset{}, fmt.Errorf("expected %d ranges, got %d", len(sheets), len(resp.ValueRanges))
	}

	tables := make([]source.Table, len(sheets))
	for i, vr := range resp.ValueRanges {
		t, err := valuesToTable(sheets[i], vr.Values)
		if err != nil {
			return core.Dataset{}, err
		}
		tables[i] = t
	}

	var ds core.Dataset
	if ds.Categories, err = tables[0].CategoryRevenue(); err != nil {
		return core.Dataset{}, err
	}
	if ds.States, err = tables[1].StateConcentration(); err != nil {
		return core.Dataset{}, err
	}
	if ds.TopCategories, err = tables[2].TopCategories(); err != nil {
		return core.Dataset{}, err
	}

	slog.InfoContext(ctx, "Loaded extracts from Google Sheets",
		"spreadsheet_id", c.spreadsheetID,
		"category_rows", len(ds.Categories),
		"state_rows", len(ds.States),
		"top_category_rows", len(ds.TopCategories))
	return ds, nil
}

// valuesToTable converts a values matrix (as returned by Sheets API) into a Table.
// Fully blank rows are skipped.
func valuesToTable(name string, values [][]interface{}) (source.Table, error) {
	if len(values) == 0 {
		return source.Table{}, fmt.Errorf("sheet %s: %w", name, core.ErrEmptyTable)
	}
	t := source.Table{Name: "sheet " + name, Header: toStrings(values[0])}
	for _, row := range values[1:] {
		cells := toStrings(row)
		if isBlank(cells) {
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
