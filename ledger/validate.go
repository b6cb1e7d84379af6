package ledger

import "strings"

// Validation runs before a unit-of-work is opened, so a rejected request
// never touches the store.

func validateAccount(a Account) error {
	if strings.TrimSpace(a.AccountNumber) == "" {
		return invalid("account_number", "is required")
	}
	if strings.TrimSpace(a.FinancialInstitution) == "" {
		return invalid("financial_institution", "is required")
	}
	if strings.TrimSpace(a.AccountName) == "" {
		return invalid("account_name", "is required")
	}
	return nil
}

func validateCycle(c Cycle) error {
	if c.Start.IsZero() {
		return invalid("cycle_start", "is required")
	}
	if c.End.IsZero() {
		return invalid("cycle_end", "is required")
	}
	if c.Start.After(c.End) {
		return invalid("cycle_end", "must not be before cycle_start")
	}
	return nil
}

func validateTransaction(t Transaction) error {
	if t.TransactionDate.IsZero() {
		return invalid("transaction_date", "is required")
	}
	if strings.TrimSpace(t.Merchant) == "" {
		return invalid("merchant", "is required")
	}
	if t.AccountID <= 0 {
		return invalid("account_id", "is required")
	}
	if t.CycleID != nil && *t.CycleID <= 0 {
		return invalid("cycle_id", "must be a positive id")
	}
	return nil
}

func validateFolder(folder string) error {
	if folder == "" {
		return invalid("folder", "is required")
	}
	return nil
}
