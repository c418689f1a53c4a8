package mirror

import (
	"errors"
	"testing"

	"github.com/ManuelReschke/RecurFox/app/models"
	"github.com/ManuelReschke/RecurFox/internal/pkg/recurly"
)

func mustParse(t *testing.T, raw string) *recurly.Resource {
	t.Helper()
	res, err := recurly.ParseResource([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return res
}

func TestModelifyCreatesRow(t *testing.T) {
	res := mustParse(t, `<account>
		<account_code>alice</account_code>
		<state>ACTIVE</state>
		<email>alice@example.com</email>
		<tax_exempt type="boolean">true</tax_exempt>
	</account>`)

	account, changed, err := Modelify(res, accountSchema, nil, func(string) (*models.Account, error) { return nil, nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.AccountCode != "alice" || account.Email != "alice@example.com" {
		t.Fatalf("unexpected row: %+v", account)
	}
	if account.State != "active" {
		t.Fatalf("expected enum value lowercased, got %q", account.State)
	}
	if account.TaxExempt == nil || !*account.TaxExempt {
		t.Fatalf("expected tax_exempt=true, got %v", account.TaxExempt)
	}
	if changed == 0 {
		t.Fatalf("expected a fresh row to count as changed")
	}
}

func TestModelifyAbsentAttributeLeavesFieldAlone(t *testing.T) {
	existing := &models.Account{ID: 7, AccountCode: "alice", Email: "old@example.com", FirstName: "Alice"}
	res := mustParse(t, `<account>
		<account_code>alice</account_code>
		<email>new@example.com</email>
	</account>`)

	account, changed, err := Modelify(res, accountSchema, existing, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Email != "new@example.com" {
		t.Fatalf("expected present attribute to overwrite, got %q", account.Email)
	}
	if account.FirstName != "Alice" {
		t.Fatalf("expected absent attribute to leave field alone, got %q", account.FirstName)
	}
	if changed != 1 {
		t.Fatalf("expected exactly one change, got %d", changed)
	}
}

func TestModelifyNilAttributeOverwrites(t *testing.T) {
	existing := &models.Account{ID: 7, AccountCode: "alice", CompanyName: "Acme"}
	res := mustParse(t, `<account>
		<account_code>alice</account_code>
		<company_name nil="nil"></company_name>
	</account>`)

	account, changed, err := Modelify(res, accountSchema, existing, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.CompanyName != "" {
		t.Fatalf("expected nil attribute to clear the field, got %q", account.CompanyName)
	}
	if changed != 1 {
		t.Fatalf("expected one change, got %d", changed)
	}
}

func TestModelifyUnchangedRowReportsZeroChanges(t *testing.T) {
	existing := &models.Account{ID: 7, AccountCode: "alice", State: "active", Email: "alice@example.com"}
	res := mustParse(t, `<account>
		<account_code>alice</account_code>
		<state>active</state>
		<email>alice@example.com</email>
	</account>`)

	_, changed, err := Modelify(res, accountSchema, existing, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if changed != 0 {
		t.Fatalf("expected no changes, got %d", changed)
	}
}

func TestModelifyUsesLookupForExistingRow(t *testing.T) {
	stored := &models.Account{ID: 42, AccountCode: "alice"}
	res := mustParse(t, `<account><account_code>alice</account_code><email>a@example.com</email></account>`)

	account, _, err := Modelify(res, accountSchema, nil, func(value string) (*models.Account, error) {
		if value != "alice" {
			t.Fatalf("lookup called with %q", value)
		}
		return stored, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account != stored {
		t.Fatalf("expected the looked-up row to be updated in place")
	}
	if account.Email != "a@example.com" {
		t.Fatalf("expected field applied to looked-up row, got %q", account.Email)
	}
}

func TestModelifyNotResource(t *testing.T) {
	res := mustParse(t, `<account><billing_info><first_name>A</first_name></billing_info></account>`)
	// The outer element has only a nested child and no scalar attributes.
	_, _, err := Modelify(res, accountSchema, nil, nil)
	if !errors.Is(err, ErrNotResource) {
		t.Fatalf("expected ErrNotResource, got %v", err)
	}
}

func TestModelifyMissingUniqueValue(t *testing.T) {
	res := mustParse(t, `<account><email>a@example.com</email></account>`)
	_, _, err := Modelify(res, accountSchema, nil, nil)

	var missing *MissingUniqueValueError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingUniqueValueError, got %v", err)
	}
	if missing.Entity != "account" || missing.Attr != "account_code" {
		t.Fatalf("unexpected error detail: %+v", missing)
	}
}

func TestModelifyTransientRowWithoutLookup(t *testing.T) {
	res := mustParse(t, `<account><account_code>ghost</account_code></account>`)
	account, changed, err := Modelify(res, accountSchema, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.ID != 0 || account.AccountCode != "ghost" {
		t.Fatalf("expected a transient row, got %+v", account)
	}
	if changed == 0 {
		t.Fatalf("expected transient row to count as changed")
	}
}
