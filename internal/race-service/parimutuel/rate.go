package parimutuel

import "github.com/shopspring/decimal"

var (
	one       = decimal.NewFromInt(1)
	ten       = decimal.NewFromInt(10)
	hundred   = decimal.NewFromInt(100)
	MinReturn = one // acertador nunca recebe menos que o valor apostado
)

// CalculatePayoutRate devolve o multiplicador de pagamento de uma seleção vencedora.
//
//	totalPool            soma das apostas do tipo
//	winningStake         soma das apostas na seleção vencedora
//	totalWinningStake    soma das apostas em todas as seleções vencedoras do tipo
//	winningCount         quantidade de seleções vencedoras distintas
//	takeoutRate          fração retida antes do rateio, em [0, 1)
//
// O resultado é truncado em 0.1 (nunca arredonda para cima) e tem piso 1.0.
func CalculatePayoutRate(totalPool, winningStake, totalWinningStake int64, winningCount int, takeoutRate decimal.Decimal) decimal.Decimal {
	if winningStake <= 0 {
		return decimal.Zero
	}

	stake := decimal.NewFromInt(winningStake)
	netPool := decimal.NewFromInt(totalPool).Mul(one.Sub(takeoutRate))

	var perUnit decimal.Decimal
	if winningCount > 1 {
		profit := decimal.Max(decimal.Zero, netPool.Sub(decimal.NewFromInt(totalWinningStake)))
		share := profit.Div(decimal.NewFromInt(int64(winningCount)))
		perUnit = stake.Add(share).Div(stake)
	} else {
		perUnit = netPool.Div(stake)
	}

	rate := perUnit.Mul(ten).Floor().Div(ten)
	return decimal.Max(MinReturn, rate)
}

// PayoutFor aplica a taxa ao valor apostado, descartando a fração
func PayoutFor(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Floor().IntPart()
}

// UnitPayout é o pagamento publicado para cada 100 apostados
func UnitPayout(rate decimal.Decimal) int64 {
	return hundred.Mul(rate).Floor().IntPart()
}
