package lending

// Standard offer parameters. Loans advance a share of the cohort's month-one
// marketing spend and collect the same share of gross profit until the target
// annualized return is reached or the horizon expires.
const (
	DefaultLoanPercentage     = 0.80
	DefaultYearlyInterestRate = 0.16
	DefaultTargetIRR          = 0.16
	DefaultMaxYears           = 5
)

// Terms bundles the lending parameters applied to every trajectory of a run.
type Terms struct {
	LoanPercentage     float64 `json:"loanPercentage"`
	YearlyInterestRate float64 `json:"yearlyInterestRate"`
	TargetIRR          float64 `json:"targetIRR"`
	MaxYears           int     `json:"maxYears"`
}

// DefaultTerms returns the standard offer.
func DefaultTerms() Terms {
	return Terms{
		LoanPercentage:     DefaultLoanPercentage,
		YearlyInterestRate: DefaultYearlyInterestRate,
		TargetIRR:          DefaultTargetIRR,
		MaxYears:           DefaultMaxYears,
	}
}

// Normalized fills unset fields with the standard offer values.
func (t Terms) Normalized() Terms {
	if t.LoanPercentage == 0 {
		t.LoanPercentage = DefaultLoanPercentage
	}
	if t.YearlyInterestRate == 0 {
		t.YearlyInterestRate = DefaultYearlyInterestRate
	}
	if t.TargetIRR == 0 {
		t.TargetIRR = DefaultTargetIRR
	}
	if t.MaxYears == 0 {
		t.MaxYears = DefaultMaxYears
	}
	return t
}

// Horizon returns the tracking window in months.
func (t Terms) Horizon() int {
	return t.MaxYears * 12
}
