package steam

import "fmt"

// priceOverview is the store's price block, amounts in minor units.
type priceOverview struct {
	Currency        string `json:"currency"`
	Initial         int    `json:"initial"`
	Final           int    `json:"final"`
	DiscountPercent int    `json:"discount_percent"`
}

const (
	freeLabel    = "Free"
	noPriceLabel = "No price"
)

// FormatPrice renders the store's price block for chat and ledger storage.
// Free titles say so, discounted titles show the original struck through
// with the cut, regular titles show just the final price, and titles with
// no pricing get a placeholder.
func FormatPrice(isFree bool, overview *priceOverview) string {
	if isFree {
		return freeLabel
	}
	if overview == nil {
		return noPriceLabel
	}

	final := formatAmount(overview.Final, overview.Currency)
	if overview.DiscountPercent > 0 {
		initial := formatAmount(overview.Initial, overview.Currency)
		return fmt.Sprintf("<s>%s</s> ➡️ <b>%s</b> (-%d%%)", initial, final, overview.DiscountPercent)
	}
	return fmt.Sprintf("<b>%s</b>", final)
}

func formatAmount(minorUnits int, currency string) string {
	whole := (minorUnits + 50) / 100
	return fmt.Sprintf("%d%s", whole, currencySymbol(currency))
}

func currencySymbol(currency string) string {
	switch currency {
	case "USD":
		return "$"
	case "EUR":
		return "€"
	case "RUB":
		return "₽"
	case "GBP":
		return "£"
	default:
		return " " + currency
	}
}
