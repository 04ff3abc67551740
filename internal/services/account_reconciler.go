package services

import "scadenze/internal/core"

// ReconcileAction tells the caller which store write a save needs.
type ReconcileAction string

const (
	ActionCreate ReconcileAction = "create"
	ActionUpdate ReconcileAction = "update"
)

// Reconciliation is the outcome of Reconcile. Index is the position of the
// matched account in the known list, or -1 for a create.
type Reconciliation struct {
	Action ReconcileAction `json:"action"`
	Index  int             `json:"index"`
}

// Reconcile decides whether candidate is new or replaces a known account.
//
// Ids are compared exactly (case sensitive, no trimming) and the first
// match wins, so duplicate ids in known are never detected. An empty id is
// always a create.
func Reconcile(candidate core.AccountRecord, known []core.AccountRecord) Reconciliation {
	if candidate.ID == "" {
		return Reconciliation{Action: ActionCreate, Index: -1}
	}
	for i := range known {
		if known[i].ID == candidate.ID {
			return Reconciliation{Action: ActionUpdate, Index: i}
		}
	}
	return Reconciliation{Action: ActionCreate, Index: -1}
}

// ComputeTotal is the exact sum of the installment amounts.
func ComputeTotal(account core.AccountRecord) core.Money {
	total := core.Money{}
	for _, d := range account.Details {
		total = total.Add(d.Amount)
	}
	return total
}

// WithTotal pairs account with its freshly computed total.
func WithTotal(account core.AccountRecord) core.AccountWithTotal {
	return core.AccountWithTotal{
		AccountRecord: account.Clone(),
		TotalAmount:   ComputeTotal(account),
	}
}

// ExpandForEdit turns the stored installments into editable rows, in order.
func ExpandForEdit(account core.AccountRecord) []core.EditableInstallment {
	out := make([]core.EditableInstallment, 0, len(account.Details))
	for _, d := range account.Details {
		out = append(out, core.EditableInstallment{
			InstallmentNumber: d.InstallmentNumber,
			DueDate:           d.DueDate,
			Amount:            d.Amount,
		})
	}
	return out
}

// FormFromRecord pre-populates the account editor with a stored account.
func FormFromRecord(account core.AccountRecord) core.AccountForm {
	return core.AccountForm{
		ID:           account.ID,
		Name:         account.Name,
		Product:      account.Product,
		Description:  account.Description,
		Installments: ExpandForEdit(account),
	}
}

// FindByID returns the first account with the given id. A miss is a normal
// result, not an error.
func FindByID(accounts []core.AccountRecord, id string) (core.AccountRecord, bool) {
	for i := range accounts {
		if accounts[i].ID == id {
			return accounts[i], true
		}
	}
	return core.AccountRecord{}, false
}
