package simulation

const projectionMonths = 60

// Projection is one cohort's projected 60-month outcome. Revenue cells are
// nil from the first month the retention curve had no observation; gross
// profit coerces those months to zero.
type Projection struct {
	Revenue     []*float64
	GrossProfit []float64
}

// Projector composes a sampled spend/ratio pair with a retention curve into
// a cohort trajectory.
type Projector struct {
	grossMargin float64
}

func NewProjector(grossMargin float64) *Projector {
	return &Projector{grossMargin: grossMargin}
}

// Project rolls the month-one cohort forward through the retention curve.
// Month one earns spend/ratio (zero when the ratio is not positive); every
// later month multiplies the prior month by its retention cell. A nil cell
// makes that month and all following months unknown.
func (p *Projector) Project(spend, ratio float64, curve []*float64) Projection {
	revenue := make([]*float64, projectionMonths)
	grossProfit := make([]float64, projectionMonths)

	first := 0.0
	if ratio > 0 {
		first = spend / ratio
	}
	revenue[0] = &first

	for i := 1; i < projectionMonths; i++ {
		prev := revenue[i-1]
		var cell *float64
		if i < len(curve) {
			cell = curve[i]
		}
		if prev == nil || cell == nil {
			continue
		}
		v := *prev * *cell
		revenue[i] = &v
	}

	for i, r := range revenue {
		if r != nil {
			grossProfit[i] = *r * p.grossMargin
		}
	}

	return Projection{Revenue: revenue, GrossProfit: grossProfit}
}

// Cashflow is the cohort cash-flow vector: the spend outlay followed by the
// 60 months of gross profit.
func (p Projection) Cashflow(spend float64) []float64 {
	cashflow := make([]float64, len(p.GrossProfit)+1)
	cashflow[0] = -spend
	copy(cashflow[1:], p.GrossProfit)
	return cashflow
}

// LTVToCAC is lifetime gross profit relative to the acquisition spend, nil
// when there was no spend to relate it to.
func (p Projection) LTVToCAC(spend float64) *float64 {
	if spend <= 0 {
		return nil
	}
	total := 0.0
	for _, gp := range p.GrossProfit {
		total += gp
	}
	ratio := total / spend
	return &ratio
}
