package pricing

import (
	"bytes"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/order-tracker/internal/entity"
)

// priceSelector matches the elements that carry a displayed price.
const priceSelector = ".pip-price, .pip-price-package, .price, [data-product-price]"

var (
	rePrice      = regexp.MustCompile(`¥\s*([\d,]+(?:\.\d{2})?)`)
	rePlainPrice = regexp.MustCompile(`^\s*([\d,]+(?:\.\d{1,2})?)\s*$`)

	ten     = decimal.NewFromInt(10)
	hundred = decimal.NewFromInt(100)
)

// saleIndicators are page phrases that accompany a promotion.
var saleIndicators = []string{"优惠有效期", "更低价格", "会员价", "限时", "促销", "特价"}

// ExtractPrices returns the distinct positive prices shown on a product
// page, ascending. Prices from price elements are combined with every yuan
// amount found anywhere in the page.
func ExtractPrices(page []byte) []decimal.Decimal {
	var found []decimal.Decimal
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page)); err == nil {
		doc.Find(priceSelector).Each(func(_ int, s *goquery.Selection) {
			if v, ok := s.Attr("data-product-price"); ok {
				found = append(found, plainPrices(v)...)
			}
			text := s.Text()
			if m := currencyPrices(text); len(m) > 0 {
				found = append(found, m...)
				return
			}
			found = append(found, plainPrices(text)...)
		})
	}
	found = append(found, currencyPrices(string(page))...)
	return uniquePositive(found)
}

func currencyPrices(s string) []decimal.Decimal {
	var out []decimal.Decimal
	for _, m := range rePrice.FindAllStringSubmatch(s, -1) {
		if d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "")); err == nil {
			out = append(out, d)
		}
	}
	return out
}

func plainPrices(s string) []decimal.Decimal {
	m := rePlainPrice.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return nil
	}
	return []decimal.Decimal{d}
}

func uniquePositive(in []decimal.Decimal) []decimal.Decimal {
	var out []decimal.Decimal
	for _, d := range in {
		if !d.IsPositive() {
			continue
		}
		if slices.ContainsFunc(out, d.Equal) {
			continue
		}
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b decimal.Decimal) int { return a.Cmp(b) })
	return out
}

// SelectPrices picks (original, current) from ascending distinct prices.
// The highest is the original price and the lowest the current one,
// unless the lowest is under 10 and a tenth of the next, in which case it
// is treated as noise and the next price is current.
func SelectPrices(prices []decimal.Decimal) (original, current decimal.NullDecimal) {
	switch {
	case len(prices) == 0:
		return decimal.NullDecimal{}, decimal.NullDecimal{}
	case len(prices) == 1:
		return decimal.NewNullDecimal(prices[0]), decimal.NewNullDecimal(prices[0])
	}
	lowest, second := prices[0], prices[1]
	cur := lowest
	if lowest.LessThan(ten) && second.Div(lowest).GreaterThan(ten) {
		cur = second
	}
	return decimal.NewNullDecimal(prices[len(prices)-1]), decimal.NewNullDecimal(cur)
}

// onSale reports whether original > current, and guards against absurd
// ratios: a current price under 10 that is more than 100x below the
// original is replaced by the original.
func onSale(original, current decimal.NullDecimal) (bool, decimal.NullDecimal) {
	if !original.Valid || !current.Valid || !original.Decimal.GreaterThan(current.Decimal) {
		return false, current
	}
	if current.Decimal.LessThan(ten) && original.Decimal.Div(current.Decimal).GreaterThan(hundred) {
		return false, original
	}
	return true, current
}

// ParsePage turns a fetched product page into price details.
func ParsePage(code string, page []byte, logger *slog.Logger) entity.PriceDetails {
	if logger == nil {
		logger = slog.Default()
	}
	out := entity.PriceDetails{ProductCode: code}

	prices := ExtractPrices(page)
	if len(prices) == 0 {
		logger.Warn("pricing.no_prices", "product_code", code)
		return out
	}
	logger.Debug("pricing.prices_found", "product_code", code, "prices", prices)

	original, current := SelectPrices(prices)
	if len(prices) >= 2 && !current.Decimal.Equal(prices[0]) {
		logger.Warn("pricing.outlier_ignored", "product_code", code, "price", prices[0].String())
	}
	sale, adjusted := onSale(original, current)
	if !adjusted.Decimal.Equal(current.Decimal) {
		logger.Warn("pricing.suspicious_ratio", "product_code", code,
			"original", original.Decimal.String(), "current", current.Decimal.String())
	}
	current = adjusted

	text := string(page)
	for _, ind := range saleIndicators {
		if strings.Contains(text, ind) {
			logger.Debug("pricing.sale_indicator", "product_code", code, "indicator", ind)
		}
	}

	out.OriginalPrice = original
	out.CurrentPrice = current
	out.IsOnSale = sale
	return out
}
