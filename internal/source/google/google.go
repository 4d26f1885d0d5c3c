// Package google reads and writes transactions and goals kept in a Google
// Sheets spreadsheet, one sheet per entity with a header row.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"painel/internal/core"
	"painel/internal/source"

	"github.com/google/uuid"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Ensure interface conformance
var (
	_ source.TransactionSource = (*Client)(nil)
	_ source.GoalSource        = (*Client)(nil)
	_ source.TransactionWriter = (*Client)(nil)
	_ source.GoalWriter        = (*Client)(nil)
)

type Options struct {
	SpreadsheetID     string
	TransactionsSheet string
	GoalsSheet        string
	// Service account credentials; JSON wins over File.
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	goalsSheet        string
	logger            *slog.Logger
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, opts, logger), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test
// endpoint.
func NewWithService(svc *gsheet.Service, opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	txSheet := strings.TrimSpace(opts.TransactionsSheet)
	if txSheet == "" {
		txSheet = "Transactions"
	}
	goalSheet := strings.TrimSpace(opts.GoalsSheet)
	if goalSheet == "" {
		goalSheet = "Goals"
	}
	return &Client{
		svc:               svc,
		spreadsheetID:     strings.TrimSpace(opts.SpreadsheetID),
		transactionsSheet: txSheet,
		goalsSheet:        goalSheet,
		logger:            logger,
	}
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		credentialsJSON = []byte(opts.CredentialsJSON)
	case strings.TrimSpace(opts.CredentialsFile) != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) ListTransactions(ctx context.Context, ownerID string) ([]core.RawTransaction, error) {
	rows, err := c.readSheet(ctx, c.transactionsSheet)
	if err != nil {
		return nil, err
	}
	all, err := source.ParseTransactionRows(rows)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", c.transactionsSheet, err)
	}
	out := make([]core.RawTransaction, 0, len(all))
	for _, tx := range all {
		if tx.OwnerID == ownerID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (c *Client) ListGoals(ctx context.Context, ownerID string, key core.PeriodKey) ([]core.Goal, error) {
	rows, err := c.readSheet(ctx, c.goalsSheet)
	if err != nil {
		return nil, err
	}
	all, bad, err := source.ParseGoalRows(rows)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", c.goalsSheet, err)
	}
	for _, rerr := range bad {
		c.logger.WarnContext(ctx, "skipping goal row", "sheet", c.goalsSheet, "row", rerr.Index, "goal_id", rerr.ID, "reason", rerr.Reason)
	}
	var out []core.Goal
	for _, g := range all {
		if g.OwnerID == ownerID && g.Matches(key) {
			out = append(out, g)
		}
	}
	return out, nil
}

// AppendTransaction appends tx as a new row and returns the updated range.
func (c *Client) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if err := c.ensureHeader(ctx, c.transactionsSheet, source.TransactionHeader); err != nil {
		return "", err
	}
	return c.appendRow(ctx, c.transactionsSheet, source.TransactionRow(tx.Raw()))
}

// SaveGoal overwrites the row holding g.ID, or appends a new one.
func (c *Client) SaveGoal(ctx context.Context, g core.Goal) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if err := c.ensureHeader(ctx, c.goalsSheet, source.GoalHeader); err != nil {
		return "", err
	}

	rows, err := c.readSheet(ctx, c.goalsSheet)
	if err != nil {
		return "", err
	}
	for i, row := range rows {
		if i == 0 || len(row) == 0 || strings.TrimSpace(row[0]) != g.ID {
			continue
		}
		rng := fmt.Sprintf("%s!A%d:%s%d", c.goalsSheet, i+1, lastColumn(source.GoalHeader), i+1)
		vr := &gsheet.ValueRange{Values: [][]any{toValues(source.GoalRow(g))}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("update %s: %w", rng, err)
		}
		return rng, nil
	}
	return c.appendRow(ctx, c.goalsSheet, source.GoalRow(g))
}

func (c *Client) readSheet(ctx context.Context, sheet string) ([][]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:Z", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = toStrings(row)
	}
	return rows, nil
}

func (c *Client) ensureHeader(ctx context.Context, sheet string, header []string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!1:1", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	vr := &gsheet.ValueRange{Values: [][]any{toValues(header)}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write header %s: %w", rng, err)
	}
	c.logger.InfoContext(ctx, "initialized sheet header", "sheet", sheet)
	return nil
}

func (c *Client) appendRow(ctx context.Context, sheet string, row []string) (string, error) {
	rng := fmt.Sprintf("%s!A:%s", sheet, lastColumn(row))
	vr := &gsheet.ValueRange{Values: [][]any{toValues(row)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", sheet, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func toValues(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// lastColumn returns the A1 column letter of the last cell in row.
func lastColumn(row []string) string {
	n := len(row)
	if n < 1 {
		n = 1
	}
	col := ""
	for n > 0 {
		n--
		col = string(rune('A'+n%26)) + col
		n /= 26
	}
	return col
}
