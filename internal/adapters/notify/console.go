package notify

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/predsim/internal/application/engine"
	"github.com/alejandrodnm/predsim/internal/domain"
)

// Console renders simulation results to a terminal.
type Console struct {
	out       io.Writer
	maxTrades int
}

// NewConsole creates a console writer on stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout, maxTrades: 20}
}

// NewConsoleWriter creates a console writer for tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w, maxTrades: 20}
}

// PrintResults renders the full run report: header, performance metrics,
// execution quality, per-strategy and per-platform breakdowns, and the
// most recent trades.
func (c *Console) PrintResults(r *engine.Results) {
	fmt.Fprintf(c.out, "\n========================================================\n")
	fmt.Fprintf(c.out, "  SIMULATION RESULTS — %s\n", r.Mode)
	fmt.Fprintf(c.out, "  %s to %s\n",
		r.StartDate.Format("2006-01-02 15:04"),
		r.EndDate.Format("2006-01-02 15:04"))
	fmt.Fprintf(c.out, "========================================================\n\n")

	fmt.Fprintf(c.out, "  Initial capital:  $%.2f\n", r.InitialCapital)
	fmt.Fprintf(c.out, "  Final value:      $%.2f\n", r.FinalValue)
	fmt.Fprintf(c.out, "  Total return:     %+.2f%%\n", r.TotalReturnPct*100)

	m := r.Metrics
	fmt.Fprintf(c.out, "\n  --- PERFORMANCE ---\n")
	fmt.Fprintf(c.out, "  Resolved markets:  %d (%d wins, win rate %.1f%%)\n",
		m.ResolvedMarkets, m.WinningResolutions, m.WinRate*100)
	fmt.Fprintf(c.out, "  Avg win / loss:    $%.2f / $%.2f\n", m.AvgWin, m.AvgLoss)
	fmt.Fprintf(c.out, "  Profit factor:     %.2f\n", m.ProfitFactor)
	fmt.Fprintf(c.out, "  Expectancy:        $%.2f\n", m.Expectancy)
	fmt.Fprintf(c.out, "  Sharpe / Sortino:  %.2f / %.2f\n", m.Sharpe, m.Sortino)
	fmt.Fprintf(c.out, "  Max drawdown:      $%.2f (%.1f%%)\n", m.MaxDrawdown, m.MaxDrawdownPct*100)
	fmt.Fprintf(c.out, "  Calmar:            %.2f\n", m.Calmar)
	fmt.Fprintf(c.out, "  Annualized return: %+.2f%%\n", m.AnnualizedReturn*100)

	e := r.Execution
	fmt.Fprintf(c.out, "\n  --- EXECUTION ---\n")
	fmt.Fprintf(c.out, "  Orders:       %d submitted, %d filled, %d partial, %d rejected\n",
		e.OrdersSubmitted, e.OrdersFilled, e.OrdersPartial, e.OrdersRejected)
	fmt.Fprintf(c.out, "  Volume:       $%.2f\n", e.TotalVolume)
	fmt.Fprintf(c.out, "  Fees paid:    $%.2f\n", e.TotalFees)
	fmt.Fprintf(c.out, "  Avg slippage: %.4f\n", e.AvgSlippage)
	fmt.Fprintf(c.out, "  Avg latency:  %.0fms\n", e.AvgLatencyMs)

	c.printBreakdown("BY STRATEGY", r.ByStrategy)
	c.printBreakdown("BY PLATFORM", r.ByPlatform)
	c.printTrades(r.Trades)
	fmt.Fprintln(c.out)
}

func (c *Console) printBreakdown(title string, breakdown map[string]*engine.Breakdown) {
	if len(breakdown) == 0 {
		return
	}

	keys := make([]string, 0, len(breakdown))
	for k := range breakdown {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(c.out, "\n  --- %s ---\n", title)
	table := tablewriter.NewWriter(c.out)
	table.Header("Name", "Trades", "Volume", "Fees")
	for _, k := range keys {
		b := breakdown[k]
		table.Append(
			k,
			fmt.Sprintf("%d", b.Trades),
			fmt.Sprintf("$%.2f", b.Volume),
			fmt.Sprintf("$%.2f", b.Fees),
		)
	}
	table.Render()
}

func (c *Console) printTrades(trades []domain.TradeEvent) {
	if len(trades) == 0 {
		fmt.Fprintln(c.out, "\n  No trades executed.")
		return
	}

	shown := trades
	if len(shown) > c.maxTrades {
		shown = shown[len(shown)-c.maxTrades:]
	}

	fmt.Fprintf(c.out, "\n  --- TRADES (last %d of %d) ---\n", len(shown), len(trades))
	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Market", "Side", "Size", "Price", "Fees", "Strategy")
	for _, t := range shown {
		table.Append(
			t.Timestamp.Format("01-02 15:04"),
			truncate(t.MarketID, 24),
			string(t.Side),
			fmt.Sprintf("%.1f", t.Size),
			fmt.Sprintf("%.4f", t.Price),
			fmt.Sprintf("$%.4f", t.Fees),
			t.Strategy,
		)
	}
	table.Render()
}

// PrintPaperStatus prints a one-line heartbeat for a live paper session.
func (c *Console) PrintPaperStatus(equity, cash float64, openPositions, tradeCount int) {
	fmt.Fprintf(c.out, "[%s][PAPER] equity $%.2f | cash $%.2f | %d positions | %d trades\n",
		time.Now().Format("15:04:05"), equity, cash, openPositions, tradeCount)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
