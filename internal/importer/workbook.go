package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fazamuttaqien/credit-engine/internal/domain"
	"github.com/fazamuttaqien/credit-engine/internal/engine"

	"github.com/xuri/excelize/v2"
)

var ErrMalformedWorkbook = errors.New("malformed workbook")

// Column headers as they appear on the first sheet of each workbook.
const (
	colCustomerID    = "Customer ID"
	colFirstName     = "First Name"
	colLastName      = "Last Name"
	colAge           = "Age"
	colPhoneNumber   = "Phone Number"
	colMonthlySalary = "Monthly Salary"
	colApprovedLimit = "Approved Limit"

	colLoanID       = "Loan ID"
	colLoanAmount   = "Loan Amount"
	colTenure       = "Tenure"
	colInterestRate = "Interest Rate"
	colMonthlyEMI   = "Monthly payment"
	colEMIsOnTime   = "EMIs paid on Time"
	colApprovalDate = "Date of Approval"
	colEndDate      = "End Date"
)

var (
	customerColumns = []string{colCustomerID, colFirstName, colLastName, colAge, colPhoneNumber, colMonthlySalary}
	loanColumns     = []string{colCustomerID, colLoanID, colLoanAmount, colTenure, colInterestRate, colMonthlyEMI}
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01-02-06",
	"1/2/06",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
}

// sheet is the first worksheet of a workbook with its header row indexed.
type sheet struct {
	header map[string]int
	rows   [][]string
}

func openSheet(r io.Reader, required []string) (*sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWorkbook, err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrMalformedWorkbook, name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrMalformedWorkbook, name)
	}

	header := make(map[string]int, len(rows[0]))
	for i, cell := range rows[0] {
		header[strings.TrimSpace(cell)] = i
	}
	for _, col := range required {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedWorkbook, col)
		}
	}

	return &sheet{header: header, rows: rows[1:]}, nil
}

// cell returns the trimmed value of col in row, or "" when the column is
// absent or the row is short.
func (s *sheet) cell(row []string, col string) string {
	i, ok := s.header[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ReadCustomers parses a customer workbook. An empty Approved Limit is
// derived from the monthly salary.
func ReadCustomers(r io.Reader) ([]domain.Customer, error) {
	s, err := openSheet(r, customerColumns)
	if err != nil {
		return nil, err
	}

	customers := make([]domain.Customer, 0, len(s.rows))
	for i, row := range s.rows {
		if blank(row) {
			continue
		}
		line := i + 2

		id, err := parseID(s.cell(row, colCustomerID))
		if err != nil {
			return nil, rowError(line, colCustomerID, err)
		}
		age, err := parseInt(s.cell(row, colAge))
		if err != nil {
			return nil, rowError(line, colAge, err)
		}
		salary, err := parseFloat(s.cell(row, colMonthlySalary))
		if err != nil {
			return nil, rowError(line, colMonthlySalary, err)
		}

		limit := engine.ApprovedLimit(salary)
		if raw := s.cell(row, colApprovedLimit); raw != "" {
			if limit, err = parseFloat(raw); err != nil {
				return nil, rowError(line, colApprovedLimit, err)
			}
		}

		customers = append(customers, domain.Customer{
			ID:            id,
			FirstName:     s.cell(row, colFirstName),
			LastName:      s.cell(row, colLastName),
			Age:           age,
			PhoneNumber:   s.cell(row, colPhoneNumber),
			MonthlyIncome: salary,
			ApprovedLimit: limit,
		})
	}

	return customers, nil
}

// ReadLoans parses a loan workbook.
//
// "EMIs paid on Time" holds either a count of on-time installments or a
// Yes/No flag. A count marks the loan on time once it covers the tenure.
func ReadLoans(r io.Reader) ([]domain.HistoricalLoan, error) {
	s, err := openSheet(r, loanColumns)
	if err != nil {
		return nil, err
	}

	loans := make([]domain.HistoricalLoan, 0, len(s.rows))
	for i, row := range s.rows {
		if blank(row) {
			continue
		}
		line := i + 2

		var loan domain.HistoricalLoan
		if loan.CustomerID, err = parseID(s.cell(row, colCustomerID)); err != nil {
			return nil, rowError(line, colCustomerID, err)
		}
		if loan.ID, err = parseID(s.cell(row, colLoanID)); err != nil {
			return nil, rowError(line, colLoanID, err)
		}
		if loan.LoanAmount, err = parseFloat(s.cell(row, colLoanAmount)); err != nil {
			return nil, rowError(line, colLoanAmount, err)
		}
		if loan.Tenure, err = parseInt(s.cell(row, colTenure)); err != nil {
			return nil, rowError(line, colTenure, err)
		}
		if loan.InterestRate, err = parseFloat(s.cell(row, colInterestRate)); err != nil {
			return nil, rowError(line, colInterestRate, err)
		}
		if loan.MonthlyInstallment, err = parseFloat(s.cell(row, colMonthlyEMI)); err != nil {
			return nil, rowError(line, colMonthlyEMI, err)
		}

		switch raw := s.cell(row, colEMIsOnTime); strings.ToLower(raw) {
		case "", "no":
		case "yes":
			loan.PaidOnTime = true
		default:
			count, err := parseInt(raw)
			if err != nil {
				return nil, rowError(line, colEMIsOnTime, err)
			}
			if count < 0 || count > loan.Tenure {
				return nil, rowError(line, colEMIsOnTime, fmt.Errorf("%d outside [0, %d]", count, loan.Tenure))
			}
			loan.EMIsPaidOnTime = count
			loan.PaidOnTime = count >= loan.Tenure
		}

		if loan.ApprovalDate, err = parseDate(s.cell(row, colApprovalDate)); err != nil {
			return nil, rowError(line, colApprovalDate, err)
		}
		if loan.EndDate, err = parseDate(s.cell(row, colEndDate)); err != nil {
			return nil, rowError(line, colEndDate, err)
		}

		loans = append(loans, loan)
	}

	return loans, nil
}

func rowError(line int, col string, err error) error {
	return fmt.Errorf("%w: row %d column %q: %v", ErrMalformedWorkbook, line, col, err)
}

func parseID(raw string) (uint64, error) {
	v, err := parseFloat(raw)
	if err != nil {
		return 0, err
	}
	if v <= 0 || v != float64(uint64(v)) {
		return 0, fmt.Errorf("invalid identifier %q", raw)
	}
	return uint64(v), nil
}

func parseInt(raw string) (int, error) {
	v, err := parseFloat(raw)
	if err != nil {
		return 0, err
	}
	if v != float64(int(v)) {
		return 0, fmt.Errorf("%q is not a whole number", raw)
	}
	return int(v), nil
}

func parseFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, errors.New("value is empty")
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	return v, nil
}

// parseDate accepts an Excel serial date or one of dateLayouts. An empty
// cell yields the zero time.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		return excelize.ExcelDateToTime(serial, false)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
