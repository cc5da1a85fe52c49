package notifier

import (
	"fmt"
	"html"
	"strings"

	"AwesomeSentinel/internal/collector"
	"AwesomeSentinel/internal/model"
)

// SignalLabel returns the display label for a signal.
func SignalLabel(s model.Signal) string {
	switch s {
	case model.SignalBuy:
		return "🟢 BUY"
	case model.SignalSell:
		return "🔴 SELL"
	default:
		return "⚪ NEUTRAL"
	}
}

// FormatAnalysisReport formats the latest state of a record into a Telegram message.
func FormatAnalysisReport(rec *model.AnalysisRecord, company string) string {
	bar, ind, ok := rec.Latest()
	if !ok {
		return "No analysis loaded yet. Use /analyze SYMBOL."
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> (%s) | week of %s\n\n",
		html.EscapeString(rec.Symbol), html.EscapeString(company), bar.Date.Format("2006-01-02")))

	b.WriteString(fmt.Sprintf("Close: %.2f\n", bar.Close))
	b.WriteString(fmt.Sprintf("Volume: %.0f\n\n", bar.Volume))

	b.WriteString("📈 <b>Oscillators:</b>\n")
	b.WriteString(fmt.Sprintf("  AO: %+.4f\n", ind.AO))
	b.WriteString(fmt.Sprintf("  AC: %+.4f\n\n", ind.AC))

	b.WriteString(fmt.Sprintf("Signal: <b>%s</b>\n", SignalLabel(rec.Signal)))
	b.WriteString(fmt.Sprintf("Source: %s | %d weeks\n", rec.Source, len(rec.Bars)))
	b.WriteString(fmt.Sprintf("Updated: %s", rec.LastUpdated.Format("2006-01-02 15:04")))
	return b.String()
}

// FormatSignalChange formats an alert for a signal transition.
func FormatSignalChange(rec *model.AnalysisRecord, prev model.Signal, company string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔔 <b>Signal change: %s</b>\n", html.EscapeString(rec.Symbol)))
	b.WriteString(fmt.Sprintf("%s → %s\n\n", SignalLabel(prev), SignalLabel(rec.Signal)))
	b.WriteString(FormatAnalysisReport(rec, company))
	return b.String()
}

// FormatError formats a failed analysis for the chat.
func FormatError(symbol string, err error) string {
	return fmt.Sprintf("⚠️ <b>%s</b>: %s", html.EscapeString(symbol), html.EscapeString(collector.UserMessage(err)))
}

// FormatSectorList lists the screener sectors.
func FormatSectorList(names []string) string {
	var b strings.Builder
	b.WriteString("🗂 <b>Sectors</b>\n\n")
	for _, n := range names {
		b.WriteString(fmt.Sprintf("• %s\n", html.EscapeString(n)))
	}
	b.WriteString("\nUse /sectors NAME to list its stocks.")
	return b.String()
}

// FormatSector lists the industries and symbols of one sector.
func FormatSector(name string, industries, symbols []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>%s</b>\n\n", html.EscapeString(name)))
	b.WriteString(fmt.Sprintf("Industries: %s\n", html.EscapeString(strings.Join(industries, ", "))))
	b.WriteString(fmt.Sprintf("Stocks: %s", html.EscapeString(strings.Join(symbols, " "))))
	return b.String()
}

// HelpText lists the supported bot commands.
const HelpText = `🤖 <b>AwesomeSentinel</b>

/analyze SYMBOL - fetch weekly bars and analyze a stock
/refresh - re-run the analysis for the current symbol
/signal - show the current AO/AC signal
/sectors [NAME] - browse the stock screener
/help - show this message`
