package google

import (
	"fmt"
	"strconv"
	"strings"

	"scadenze/internal/core"
)

// Column layout of the accounts sheet. Row 1 holds the headers; each
// following row is one installment. An account with no installments is a
// single row with the installment cells left empty.
var sheetHeaders = []string{"Account ID", "Name", "Product", "Description", "Installment", "Due date", "Amount"}

// parseAccounts converts a values matrix (as returned by Sheets API) into
// accounts, in order of first appearance. Rows are grouped by account id;
// the first row of an account provides its name, product and description.
func parseAccounts(values [][]interface{}) ([]core.AccountRecord, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	cols := make([]int, len(sheetHeaders))
	var missing []string
	for i, h := range sheetHeaders {
		cols[i] = indexOf(headers, h)
		if cols[i] == -1 {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected accounts header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}
	colID, colName, colProduct, colDesc, colNum, colDue, colAmount := cols[0], cols[1], cols[2], cols[3], cols[4], cols[5], cols[6]

	var out []core.AccountRecord
	pos := map[string]int{}
	for r := 1; r < len(values); r++ {
		row := toStrings(values[r])
		id := safeGet(row, colID)
		if id == "" {
			continue
		}
		i, seen := pos[id]
		if !seen {
			out = append(out, core.AccountRecord{
				ID:          id,
				Name:        safeGet(row, colName),
				Product:     safeGet(row, colProduct),
				Description: safeGet(row, colDesc),
			})
			i = len(out) - 1
			pos[id] = i
		}

		numStr, due, amountStr := safeGet(row, colNum), safeGet(row, colDue), safeGet(row, colAmount)
		if numStr == "" && due == "" && amountStr == "" {
			continue
		}
		num := 0
		if numStr != "" {
			n, err := strconv.Atoi(numStr)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid installment number %q", r+1, numStr)
			}
			num = n
		}
		amount, err := core.ParseMoney(amountStr)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid amount %q: %w", r+1, amountStr, err)
		}
		out[i].Details = append(out[i].Details, core.InstallmentDetail{
			InstallmentNumber: num,
			DueDate:           due,
			Amount:            amount,
		})
	}
	return out, nil
}

// accountRows renders an account as sheet rows, without the header.
func accountRows(a core.AccountRecord) [][]interface{} {
	if len(a.Details) == 0 {
		return [][]interface{}{{a.ID, a.Name, a.Product, a.Description, "", "", ""}}
	}
	rows := make([][]interface{}, 0, len(a.Details))
	for _, d := range a.Details {
		rows = append(rows, []interface{}{
			a.ID, a.Name, a.Product, a.Description,
			d.InstallmentNumber, d.DueDate, d.Amount.String(),
		})
	}
	return rows
}

// sheetValues renders the full sheet, header included.
func sheetValues(accounts []core.AccountRecord) [][]interface{} {
	header := make([]interface{}, len(sheetHeaders))
	for i, h := range sheetHeaders {
		header[i] = h
	}
	values := [][]interface{}{header}
	for _, a := range accounts {
		values = append(values, accountRows(a)...)
	}
	return values
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
