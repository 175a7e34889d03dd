package alert

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"solana-buy-alert/internal/domain"
)

// DefaultSymbol is the token name used in the alert header.
const DefaultSymbol = "SUOLALA"

var printer = message.NewPrinter(language.English)

// FormatCaption renders the alert text for buy priced against snap.
//
//	🟢 SUOLALA BUY
//
//	💰 Buy Size: $1,500.00 USD / 10.0000 SOL
//	👤 Buyer: 9WzD...AWWM
//	📈 Price: $0.0020000000
//	🏦 MCap: $2,000,000
//	💧 Liquidity: $150,000
//
//	Don't miss the chance 🚀
func FormatCaption(symbol string, buy *domain.BuyEvent, snap *domain.MarketSnapshot) string {
	if symbol == "" {
		symbol = DefaultSymbol
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🟢 %s BUY\n\n", strings.ToUpper(symbol))
	fmt.Fprintf(&b, "💰 Buy Size: $%s USD / %s SOL\n",
		printer.Sprintf("%.2f", buy.USDValue.InexactFloat64()),
		buy.SOLSpent.StringFixed(4))
	fmt.Fprintf(&b, "👤 Buyer: %s\n", buy.ShortWallet())
	fmt.Fprintf(&b, "📈 Price: $%s\n", snap.PriceUSD.StringFixed(10))
	fmt.Fprintf(&b, "🏦 MCap: $%s\n", printer.Sprintf("%.0f", snap.MarketCapUSD.InexactFloat64()))
	fmt.Fprintf(&b, "💧 Liquidity: $%s\n\n", printer.Sprintf("%.0f", snap.LiquidityUSD.InexactFloat64()))
	b.WriteString("Don't miss the chance 🚀")
	return b.String()
}
