// Package domain holds the contract model shared by rendering, storage and
// the dialogue.
package domain

import (
	"fmt"
	"path/filepath"
	"time"

	passport "github.com/pravodoc/pravodoc-backend/internal/passport/domain"
	"github.com/pravodoc/pravodoc-backend/internal/schedule"
)

// Contract is a contract ready to be rendered. Number is assigned when the
// draft is prepared, before the client confirms it.
type Contract struct {
	Number       string             `json:"contract_number"`
	Passport     passport.Record    `json:"passport"`
	TotalAmount  int64              `json:"total_amount"`
	FirstPayment time.Time          `json:"first_payment_date"`
	Payments     []schedule.Payment `json:"payments"`
	Date         time.Time          `json:"date"`
}

// Initials returns the client's initials as printed in the contract title.
func (c *Contract) Initials() string {
	return c.Passport.Initials()
}

// BaseName returns the file name shared by the rendered documents, without
// extension.
func (c *Contract) BaseName() string {
	return fmt.Sprintf("dogovor_%s_%s", c.Number, c.Passport.SlugName())
}

// Dir returns the client's directory under root.
func (c *Contract) Dir(root string) string {
	return filepath.Join(root, c.Passport.SlugName())
}

// Files lists the rendered documents of a contract.
type Files struct {
	Docx string `json:"docx_path"`
	PDF  string `json:"pdf_path"`
	Xlsx string `json:"xlsx_path,omitempty"`
}

// Paths returns the non-empty file paths.
func (f Files) Paths() []string {
	paths := make([]string, 0, 3)
	for _, p := range []string{f.Docx, f.PDF, f.Xlsx} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// Entry is one registry record of a generated contract.
type Entry struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"-"`
	ContractNumber   string    `db:"contract_number" json:"contract_number"`
	Client           string    `db:"client" json:"client"`
	TotalAmount      int64     `db:"total_amount" json:"total_amount,omitempty"`
	FirstPaymentDate string    `db:"first_payment_date" json:"first_payment_date,omitempty"`
	DocxPath         string    `db:"docx_path" json:"docx_path"`
	PDFPath          string    `db:"pdf_path" json:"pdf_path"`
	XlsxPath         string    `db:"xlsx_path" json:"xlsx_path,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Files returns the documents referenced by the entry.
func (e *Entry) Files() Files {
	return Files{Docx: e.DocxPath, PDF: e.PDFPath, Xlsx: e.XlsxPath}
}

// NewEntry builds the registry record for a rendered contract.
func NewEntry(userID string, c *Contract, files Files, now time.Time) *Entry {
	return &Entry{
		UserID:           userID,
		ContractNumber:   c.Number,
		Client:           c.Passport.FullName,
		TotalAmount:      c.TotalAmount,
		FirstPaymentDate: c.FirstPayment.Format(time.DateOnly),
		DocxPath:         files.Docx,
		PDFPath:          files.PDF,
		XlsxPath:         files.Xlsx,
		CreatedAt:        now.UTC(),
	}
}

// Number builds a contract number from the counter value and the client's
// full name: the zero padded counter, a hyphen and the initials. The hyphen
// is omitted when the name yields no initials.
func Number(counter int, fullName string) string {
	n := fmt.Sprintf("%05d", counter)
	if initials := passport.Initials(fullName); initials != "" {
		return n + "-" + initials
	}
	return n
}
