package parimutuel

import "sort"

// IsWinningBet decide se a aposta acertou.
// finishers deve vir em ordem crescente de chegada; com colocados insuficientes, tipo
// desconhecido ou seleções fora do formato, a resposta é false.
func IsWinningBet(betType string, selections []int, finishers []Finisher) bool {
	bt, ok := Lookup(betType)
	if !ok {
		return false
	}
	if len(selections) != bt.Selections || len(finishers) < bt.MinFinishers {
		return false
	}

	n := bt.Window
	if n > len(finishers) {
		n = len(finishers)
	}
	top := make([]int, n)
	for i := 0; i < n; i++ {
		top[i] = bt.Key(finishers[i])
	}

	switch bt.Mode {
	case MatchExact:
		if len(top) != len(selections) {
			return false
		}
		for i := range selections {
			if selections[i] != top[i] {
				return false
			}
		}
		return true

	case MatchCombination:
		if len(top) != len(selections) {
			return false
		}
		a := append([]int(nil), selections...)
		sort.Ints(a)
		sort.Ints(top)
		for i := range a {
			if a[i] != top[i] {
				return false
			}
		}
		return true

	case MatchWithin:
		for _, s := range selections {
			if !contains(top, s) {
				return false
			}
		}
		return true
	}
	return false
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
