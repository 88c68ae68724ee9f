// Package payslip lays out and renders a reconciliation result as a PDF.
// It formats the figures it is given and performs no arithmetic.
package payslip

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"payledger/internal/domain/reconcile"
)

type Branding struct {
	Currency string
	Footer   string
}

type Field struct {
	Label string
	Value string
}

// Row is one earnings line. Emphasis marks subtotal lines.
type Row struct {
	Label    string
	Amount   string
	Emphasis bool
}

type HistoryRow struct {
	Index  string
	ID     string
	Date   string
	Type   string
	Mode   string
	Amount string
}

// Sheet is the ordered layout of one payslip.
type Sheet struct {
	Title    string
	Period   string
	Company  []Field
	Identity []Field
	Bank     []Field
	Earnings []Row
	History  []HistoryRow
	Footer   string
}

var HistoryHeader = HistoryRow{Index: "#", ID: "ID", Date: "Date", Type: "Type", Mode: "Mode", Amount: "Amount"}

func BuildSheet(result reconcile.Result, branding Branding) Sheet {
	currency := strings.TrimSpace(branding.Currency)
	money := func(d decimal.Decimal) string {
		if currency == "" {
			return d.StringFixed(2)
		}
		return currency + " " + d.StringFixed(2)
	}

	sheet := Sheet{
		Title:  "Salary Slip",
		Period: result.Window.Label(),
		Footer: branding.Footer,
		Company: []Field{
			{Label: "Company", Value: result.Company.Name},
			{Label: "Address", Value: result.Company.Address},
		},
		Identity: []Field{
			{Label: "Employee", Value: result.Worker.Name},
			{Label: "Employee ID", Value: result.Worker.ID},
			{Label: "Designation", Value: result.Worker.Designation},
			{Label: "Phone", Value: result.Worker.Phone},
			{Label: "Salary Type", Value: result.SalaryType},
		},
		Bank: []Field{
			{Label: "Account Holder", Value: result.Bank.AccountHolder},
			{Label: "Account Number", Value: result.Bank.AccountNumber},
			{Label: "Bank", Value: result.Bank.BankName},
			{Label: "IFSC", Value: result.Bank.IFSC},
			{Label: "UPI", Value: result.Bank.UPI},
		},
	}

	sheet.Earnings = append(sheet.Earnings, Row{Label: "Basic Salary", Amount: money(result.BasicSalary)})
	for _, a := range result.Allowances {
		sheet.Earnings = append(sheet.Earnings, Row{Label: a.Name, Amount: money(a.Amount)})
	}
	sheet.Earnings = append(sheet.Earnings,
		Row{Label: "Gross Salary", Amount: money(result.GrossSalary), Emphasis: true},
		Row{Label: "Deductions", Amount: money(result.Deductions.Final)},
		Row{Label: "Deduction Credit", Amount: money(result.Payout.DeductionCredit)},
		Row{Label: "Incentives", Amount: money(result.Payout.Incentives)},
		Row{Label: "Total Amount", Amount: money(result.Payout.TotalAmount), Emphasis: true},
	)

	for i, t := range result.Transactions {
		amount := "-"
		if t.Amount != nil {
			amount = money(*t.Amount)
		}
		mode := t.PaymentMode
		if mode == "" {
			mode = "-"
		}
		sheet.History = append(sheet.History, HistoryRow{
			Index:  strconv.Itoa(i + 1),
			ID:     t.DisplayID,
			Date:   t.Date.Format("02 Jan 2006"),
			Type:   t.Type,
			Mode:   mode,
			Amount: amount,
		})
	}
	return sheet
}
