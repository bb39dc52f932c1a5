// Package contract renders lease agreements as XLSX workbooks.
package contract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"

	"github.com/neomorfeo/rentiq/internal/domain"
)

const (
	// SheetName is the worksheet that holds the agreement.
	SheetName = "Lease Agreement"

	// ContentType is the media type of rendered contracts.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	dateLayout = "02-01-2006"
)

// Line is one row of the agreement: a label in column A and a value in
// column B. Value may reference placeholders such as ${TENANT_NAME}.
type Line struct {
	Label string
	Value string
}

// DefaultTemplate is the agreement layout used when none is given.
var DefaultTemplate = []Line{
	{Label: "LEASE AGREEMENT"},
	{},
	{Label: "LESSOR (PARTY A)"},
	{Label: "Full name", Value: "${OWNER_NAME_OWNER}"},
	{Label: "ID number", Value: "${ID_NUMBER_OWNER}"},
	{Label: "Issued by", Value: "${ISSUED_BY_OWNER} on ${ISSUE_DATE_OWNER}"},
	{Label: "Permanent address", Value: "${PERMANENT_ADDRESS_OWNER}"},
	{},
	{Label: "LESSEE (PARTY B)"},
	{Label: "Full name", Value: "${TENANT_NAME}"},
	{Label: "ID number", Value: "${ID_NUMBER}"},
	{Label: "Issued by", Value: "${ISSUED_BY} on ${ISSUE_DATE}"},
	{Label: "Permanent address", Value: "${PERMANENT_ADDRESS}"},
	{},
	{Label: "TERMS"},
	{Label: "Property address", Value: "${ADDRESS_PROPERTY}"},
	{Label: "Lease term", Value: "from ${START_DATE} to ${END_DATE}"},
	{Label: "Monthly rent", Value: "${MONTHLY_RENT}"},
	{Label: "Security deposit", Value: "${DEPOSIT_SECURITY}"},
	{},
	{Label: "Party A signature"},
	{Label: "Party B signature"},
}

// Renderer fills a template with lease data and writes it as a workbook.
type Renderer struct {
	template []Line
}

// NewRenderer creates a renderer. A nil template selects DefaultTemplate.
func NewRenderer(template []Line) *Renderer {
	if template == nil {
		template = DefaultTemplate
	}
	return &Renderer{template: template}
}

type field struct {
	key      string
	value    string
	required bool
}

// placeholders returns the placeholder values for a lease, keyed without
// the ${} wrapper, in a stable order.
func placeholders(d domain.LeaseDetail) []field {
	return []field{
		{"TENANT_NAME", d.Tenant.FullName(), true},
		{"ID_NUMBER", d.Tenant.IDNumber, true},
		{"ISSUED_BY", d.Tenant.IssuedBy, true},
		{"ISSUE_DATE", formatDate(d.Tenant.IssueDate), true},
		{"PERMANENT_ADDRESS", d.Tenant.PermanentAddress, true},
		{"OWNER_NAME_OWNER", d.Owner.FullName(), true},
		{"ID_NUMBER_OWNER", d.Owner.IDNumber, true},
		{"ISSUED_BY_OWNER", d.Owner.IssuedBy, true},
		{"ISSUE_DATE_OWNER", formatDate(d.Owner.IssueDate), true},
		{"PERMANENT_ADDRESS_OWNER", d.Owner.PermanentAddress, true},
		{"ADDRESS_PROPERTY", d.Property.Address, true},
		{"START_DATE", formatDate(d.Lease.StartDate), true},
		{"END_DATE", formatDate(d.Lease.EndDate), true},
		{"DEPOSIT_SECURITY", d.Lease.SecurityDeposit.StringFixed(2), false},
		{"MONTHLY_RENT", d.Lease.MonthlyRent.StringFixed(2), false},
	}
}

func formatDate(d civil.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.In(time.UTC).Format(dateLayout)
}

// Render implements domain.ContractRenderer.
func (r *Renderer) Render(ctx context.Context, d domain.LeaseDetail) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}

	fields := placeholders(d)
	var missing []string
	pairs := make([]string, 0, 2*len(fields))
	for _, f := range fields {
		if f.required && strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.key)
		}
		pairs = append(pairs, "${"+f.key+"}", f.value)
	}
	if len(missing) > 0 {
		return domain.Document{}, &domain.IncompleteContractError{LeaseID: d.Lease.ID, Fields: missing}
	}

	data, err := r.write(strings.NewReplacer(pairs...))
	if err != nil {
		return domain.Document{}, &domain.ExportError{LeaseID: d.Lease.ID, Err: err}
	}

	return domain.Document{
		Filename:    fmt.Sprintf("lease_%s.xlsx", d.Lease.ID),
		ContentType: ContentType,
		Data:        data,
	}, nil
}

func (r *Renderer) write(fill *strings.Replacer) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating title style: %w", err)
	}
	sectionStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("creating section style: %w", err)
	}

	for i, line := range r.template {
		row := i + 1
		if line.Label == "" && line.Value == "" {
			continue
		}
		if err := setCell(f, 1, row, line.Label); err != nil {
			return nil, err
		}
		if line.Value == "" {
			style := sectionStyle
			if row == 1 {
				style = titleStyle
				if err := f.MergeCell(SheetName, "A1", "B1"); err != nil {
					return nil, fmt.Errorf("merging title: %w", err)
				}
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
				return nil, fmt.Errorf("styling %s: %w", cell, err)
			}
			continue
		}
		if err := setCell(f, 2, row, fill.Replace(line.Value)); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 24); err != nil {
		return nil, fmt.Errorf("setting column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "B", "B", 60); err != nil {
		return nil, fmt.Errorf("setting column width: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		return fmt.Errorf("writing %s: %w", cell, err)
	}
	return nil
}
