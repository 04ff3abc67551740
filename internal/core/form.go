package core

// EditableInstallment is the form-side shape of an installment. It mirrors
// InstallmentDetail field for field so edits never lose data.
type EditableInstallment struct {
	InstallmentNumber int    `json:"installmentNumber"`
	DueDate           string `json:"dueDate"`
	Amount            Money  `json:"amount"`
}

// AccountForm is the working state of the account editor.
type AccountForm struct {
	ID           string                `json:"id"`
	Name         string                `json:"Name"`
	Product      string                `json:"Product"`
	Description  string                `json:"Description"`
	Installments []EditableInstallment `json:"installments"`
}

// NewEditableInstallment returns the blank row added by "add installment".
func NewEditableInstallment() EditableInstallment {
	return EditableInstallment{}
}

func (e EditableInstallment) ToDetail() InstallmentDetail {
	return InstallmentDetail{
		InstallmentNumber: e.InstallmentNumber,
		DueDate:           e.DueDate,
		Amount:            e.Amount,
	}
}

// AddInstallment appends a blank installment row.
func (f *AccountForm) AddInstallment() {
	f.Installments = append(f.Installments, NewEditableInstallment())
}

// ToRecord builds the record that will be submitted to the store.
func (f AccountForm) ToRecord() AccountRecord {
	rec := AccountRecord{
		ID:          f.ID,
		Name:        f.Name,
		Product:     f.Product,
		Description: f.Description,
		Details:     make([]InstallmentDetail, 0, len(f.Installments)),
	}
	for _, e := range f.Installments {
		rec.Details = append(rec.Details, e.ToDetail())
	}
	return rec
}
