package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"loyalty-program/internal/domain"
	ledgerrepo "loyalty-program/internal/repository/ledger"
)

// CustomerWriter persists imported customers.
type CustomerWriter interface {
	Create(ctx context.Context, c domain.Customer) (*domain.Customer, error)
}

// CSVImporter reads a legacy loyalty spreadsheet export and registers its
// customers. Historical spend and accrued reward are carried over as one
// opening ledger entry per customer so the derived totals keep adding up.
type CSVImporter struct {
	reader    *csv.Reader
	customers CustomerWriter
	ledger    ledgerrepo.Repository
}

// NewCSVImporter builds an importer over r.
func NewCSVImporter(r io.Reader, customers CustomerWriter, ledger ledgerrepo.Repository) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:    csvr,
		customers: customers,
		ledger:    ledger,
	}
}

type csvRow struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	RewardType   string
	RewardRate   float64
	SpentCents   int64
	AccruedCents int64
}

// Run parses CSV rows and creates one customer per row, returning the count
// of customers imported.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row, err := parseRow(record, index)
		if err != nil {
			return imported, err
		}
		if row == nil {
			continue
		}
		if err := i.save(ctx, row); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	rewardType, err := domain.ParseRewardType(row.RewardType)
	if err != nil {
		return fmt.Errorf("row for %q %q: %w", row.FirstName, row.LastName, err)
	}
	if row.FirstName == "" || row.LastName == "" {
		return fmt.Errorf("row missing name: first=%q last=%q", row.FirstName, row.LastName)
	}
	if row.RewardRate < 0 {
		return fmt.Errorf("row for %q %q: negative reward rate", row.FirstName, row.LastName)
	}

	created, err := i.customers.Create(ctx, domain.Customer{
		FirstName:  row.FirstName,
		LastName:   row.LastName,
		Email:      row.Email,
		Phone:      row.Phone,
		RewardType: rewardType,
		RewardRate: row.RewardRate,
	})
	if err != nil {
		return fmt.Errorf("create customer %q %q: %w", row.FirstName, row.LastName, err)
	}

	if row.SpentCents == 0 && row.AccruedCents == 0 {
		return nil
	}
	// Opening ledger entry carrying the legacy balance.
	return i.ledger.InTx(ctx, func(r ledgerrepo.Repository) error {
		if _, err := r.InsertPurchase(ctx, domain.Purchase{
			CustomerID:  created.ID,
			AmountCents: row.SpentCents,
			EarnedCents: row.AccruedCents,
			SpentCents:  row.SpentCents,
		}); err != nil {
			return fmt.Errorf("opening entry for %s: %w", created.ID, err)
		}
		if row.SpentCents != 0 {
			if err := r.AddCustomerSpent(ctx, created.ID, row.SpentCents); err != nil {
				return fmt.Errorf("opening spend for %s: %w", created.ID, err)
			}
		}
		return nil
	})
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*csvRow, error) {
	first := pick(record, index, "first_name")
	last := pick(record, index, "last_name")
	if first == "" && last == "" {
		// Blank line or trailing-comma row.
		return nil, nil
	}

	rate, err := parseFloatField(record, index, "reward_rate")
	if err != nil {
		return nil, fmt.Errorf("row for %q %q: %w", first, last, err)
	}
	spent, err := parseIntField(record, index, "spent_cents")
	if err != nil {
		return nil, fmt.Errorf("row for %q %q: %w", first, last, err)
	}
	accrued, err := parseIntField(record, index, "accrued_cents")
	if err != nil {
		return nil, fmt.Errorf("row for %q %q: %w", first, last, err)
	}

	return &csvRow{
		FirstName:    first,
		LastName:     last,
		Email:        pick(record, index, "email"),
		Phone:        pick(record, index, "phone"),
		RewardType:   pick(record, index, "reward_type"),
		RewardRate:   rate,
		SpentCents:   spent,
		AccruedCents: accrued,
	}, nil
}

func parseFloatField(record []string, index map[string]int, key string) (float64, error) {
	s := pick(record, index, key)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, s, err)
	}
	return f, nil
}

func parseIntField(record []string, index map[string]int, key string) (int64, error) {
	s := pick(record, index, key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, s, err)
	}
	return n, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
