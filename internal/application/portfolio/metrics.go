package portfolio

import "math"

const defaultPeriodsPerYear = 252

// Metrics are the win/loss and risk statistics of a run. Win statistics
// come from the resolution ledger, risk statistics from the equity curve.
// Every denominator-zero path yields 0 rather than NaN or Inf.
type Metrics struct {
	ResolvedMarkets    int     `json:"resolved_markets"`
	WinningResolutions int     `json:"winning_resolutions"`
	WinRate            float64 `json:"win_rate"`
	AvgWin             float64 `json:"avg_win"`
	AvgLoss            float64 `json:"avg_loss"`
	ProfitFactor       float64 `json:"profit_factor"`
	Expectancy         float64 `json:"expectancy"`
	Sharpe             float64 `json:"sharpe"`
	Sortino            float64 `json:"sortino"`
	MaxDrawdown        float64 `json:"max_drawdown"`
	MaxDrawdownPct     float64 `json:"max_drawdown_pct"`
	Calmar             float64 `json:"calmar"`
	TotalReturnPct     float64 `json:"total_return_pct"`
	AnnualizedReturn   float64 `json:"annualized_return"`
}

func computeMetrics(
	resolutions []ResolutionRecord,
	equity []EquityPoint,
	peak, maxDrawdownPct, initialCapital, periodsPerYear float64,
) Metrics {
	if periodsPerYear <= 0 {
		periodsPerYear = defaultPeriodsPerYear
	}

	m := Metrics{
		ResolvedMarkets: len(resolutions),
		MaxDrawdownPct:  maxDrawdownPct,
		MaxDrawdown:     maxDrawdownPct * peak,
	}

	var sumWins, sumLosses float64
	var wins, losses int
	for _, r := range resolutions {
		switch {
		case r.PnL > 0:
			wins++
			sumWins += r.PnL
		case r.PnL < 0:
			losses++
			sumLosses += -r.PnL
		}
	}
	m.WinningResolutions = wins
	if len(resolutions) > 0 {
		m.WinRate = float64(wins) / float64(len(resolutions))
	}
	if wins > 0 {
		m.AvgWin = sumWins / float64(wins)
	}
	if losses > 0 {
		m.AvgLoss = sumLosses / float64(losses)
	}
	if sumLosses > 0 {
		m.ProfitFactor = sumWins / sumLosses
	}
	m.Expectancy = m.WinRate*m.AvgWin - (1-m.WinRate)*m.AvgLoss

	if len(equity) >= 2 {
		first := equity[0].Equity
		last := equity[len(equity)-1].Equity
		if first > 0 {
			m.TotalReturnPct = (last - first) / first
		}

		returns := periodReturns(equity)
		mean := meanOf(returns)
		sd := stdevOf(returns, mean)
		if sd > 0 {
			m.Sharpe = mean / sd * math.Sqrt(periodsPerYear)
		}
		downSd := downsideStdev(returns)
		if downSd > 0 {
			m.Sortino = mean / downSd * math.Sqrt(periodsPerYear)
		}

		days := equity[len(equity)-1].Timestamp.Sub(equity[0].Timestamp).Hours() / 24
		if days > 0 {
			m.AnnualizedReturn = math.Pow(1+m.TotalReturnPct, 365.25/days) - 1
		}
	}

	if m.MaxDrawdownPct > 0 {
		m.Calmar = m.TotalReturnPct / m.MaxDrawdownPct
	}

	return m
}

// periodReturns computes r_i = (eq_i − eq_{i−1}) / eq_{i−1}, skipping
// zero-equity samples.
func periodReturns(equity []EquityPoint) []float64 {
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, (equity[i].Equity-prev)/prev)
	}
	return returns
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdevOf is the sample standard deviation around mean.
func stdevOf(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

// downsideStdev is the sample standard deviation of negative returns only.
func downsideStdev(xs []float64) float64 {
	var neg []float64
	for _, x := range xs {
		if x < 0 {
			neg = append(neg, x)
		}
	}
	if len(neg) < 2 {
		return 0
	}
	return stdevOf(neg, meanOf(neg))
}
