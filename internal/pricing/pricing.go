// Package pricing содержит расчёт стоимости заказа.
package pricing

import "github.com/shopspring/decimal"

var thousand = decimal.NewFromInt(1000)

// Charge вычисляет стоимость заказа: quantity / 1000 * pricePer1000.
// Результат округляется до сотых (половина — вверх). Функция чистая,
// сумма фиксируется в заказе один раз и далее не пересчитывается.
func Charge(quantity int, pricePer1000 decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(quantity)).
		Mul(pricePer1000).
		Div(thousand).
		Round(2)
}
