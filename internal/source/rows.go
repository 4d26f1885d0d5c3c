package source

import (
	"fmt"
	"strconv"
	"strings"

	"painel/internal/core"
)

// Column headers of the tabular formats (CSV seeds and spreadsheets).
var (
	TransactionHeader = []string{"id", "owner_id", "date", "kind", "category", "amount", "description"}
	GoalHeader        = []string{"id", "owner_id", "category", "target_amount", "period", "reference_month", "reference_year"}
)

// ParseTransactionRows reads transaction rows whose first row is a header.
// Columns are located by name so their order may vary. Values are kept raw;
// validating them is the normalizer's job.
func ParseTransactionRows(rows [][]string) ([]core.RawTransaction, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	cols, err := locate(rows[0], TransactionHeader, "id", "date", "kind", "amount")
	if err != nil {
		return nil, err
	}
	out := make([]core.RawTransaction, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		out = append(out, core.RawTransaction{
			ID:          safeGet(row, cols["id"]),
			OwnerID:     safeGet(row, cols["owner_id"]),
			Date:        safeGet(row, cols["date"]),
			Kind:        safeGet(row, cols["kind"]),
			Category:    safeGet(row, cols["category"]),
			Amount:      safeGet(row, cols["amount"]),
			Description: safeGet(row, cols["description"]),
		})
	}
	return out, nil
}

// ParseGoalRows reads goal rows whose first row is a header. Rows that do
// not describe a valid goal are returned as record errors, with indexes
// counting data rows from zero.
func ParseGoalRows(rows [][]string) ([]core.Goal, []core.RecordError, error) {
	if len(rows) == 0 {
		return nil, nil, nil
	}
	cols, err := locate(rows[0], GoalHeader, "id", "category", "target_amount", "period")
	if err != nil {
		return nil, nil, err
	}
	var (
		goals []core.Goal
		errs  []core.RecordError
	)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		g, err := goalFromRow(row, cols)
		if err != nil {
			errs = append(errs, core.RecordError{Index: i, ID: safeGet(row, cols["id"]), Reason: err.Error(), Err: err})
			continue
		}
		goals = append(goals, g)
	}
	return goals, errs, nil
}

func goalFromRow(row []string, cols map[string]int) (core.Goal, error) {
	rawTarget := safeGet(row, cols["target_amount"])
	if strings.HasPrefix(strings.TrimSpace(rawTarget), "-") {
		return core.Goal{}, core.ErrNegativeTarget
	}
	target, err := core.ParseAmountStrict(rawTarget)
	if err != nil {
		return core.Goal{}, fmt.Errorf("target amount: %w", err)
	}
	month, err := atoiOrZero(safeGet(row, cols["reference_month"]))
	if err != nil {
		return core.Goal{}, fmt.Errorf("reference month: %w", err)
	}
	year, err := atoiOrZero(safeGet(row, cols["reference_year"]))
	if err != nil {
		return core.Goal{}, fmt.Errorf("reference year: %w", err)
	}
	g := core.Goal{
		ID:             safeGet(row, cols["id"]),
		OwnerID:        safeGet(row, cols["owner_id"]),
		Category:       safeGet(row, cols["category"]),
		TargetAmount:   target,
		Period:         core.GoalPeriod(strings.ToLower(safeGet(row, cols["period"]))),
		ReferenceMonth: month,
		ReferenceYear:  year,
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

// TransactionRow renders raw in TransactionHeader column order.
func TransactionRow(raw core.RawTransaction) []string {
	amount := ""
	if raw.Amount != nil {
		amount = fmt.Sprint(raw.Amount)
	}
	return []string{raw.ID, raw.OwnerID, raw.Date, raw.Kind, raw.Category, amount, raw.Description}
}

// GoalRow renders g in GoalHeader column order.
func GoalRow(g core.Goal) []string {
	month := ""
	if g.ReferenceMonth != 0 {
		month = strconv.Itoa(g.ReferenceMonth)
	}
	return []string{g.ID, g.OwnerID, g.Category, g.TargetAmount.String(), string(g.Period), month, strconv.Itoa(g.ReferenceYear)}
}

func locate(header, known []string, required ...string) (map[string]int, error) {
	cols := make(map[string]int, len(known))
	for _, name := range known {
		cols[name] = indexOf(header, name)
	}
	var missing []string
	for _, name := range required {
		if cols[name] == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected header: missing %s; got headers=%v", strings.Join(missing, ","), header)
	}
	return cols, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func safeGet(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
