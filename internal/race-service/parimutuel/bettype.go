// Package parimutuel concentra as regras de tipos de aposta, acerto e cálculo de rateio.
// Tudo aqui é puro: sem banco, sem relógio.
package parimutuel

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	Win             = "win"
	Place           = "place"
	Quinella        = "quinella"
	Exacta          = "exacta"
	BracketQuinella = "bracket_quinella"
	Wide            = "wide"
	Trio            = "trio"
	Trifecta        = "trifecta"
)

// MatchMode define como as seleções são comparadas com os primeiros colocados
type MatchMode int

const (
	// MatchExact: seleções iguais aos N primeiros, na ordem
	MatchExact MatchMode = iota
	// MatchCombination: mesmo multiconjunto dos N primeiros, ordem livre
	MatchCombination
	// MatchWithin: cada seleção aparece entre os N primeiros
	MatchWithin
)

// Finisher é um colocado, em ordem crescente de chegada
type Finisher struct {
	Number  int
	Bracket int
}

// KeyFunc extrai do colocado o valor comparado com as seleções
type KeyFunc func(Finisher) int

func byNumber(f Finisher) int  { return f.Number }
func byBracket(f Finisher) int { return f.Bracket }

// BetType é uma variante fechada de aposta
type BetType struct {
	Code          string
	Selections    int  // quantidade exata de seleções
	Ordered       bool // a ordem das seleções importa
	Window        int  // compara contra os N primeiros
	MinFinishers  int  // colocados conhecidos necessários; abaixo disso nunca acerta
	Mode          MatchMode
	AllowRepeated bool // seleções repetidas (grupos no bracket_quinella)
	Key           KeyFunc
}

var registry = map[string]BetType{
	Win:             {Code: Win, Selections: 1, Ordered: true, Window: 1, MinFinishers: 1, Mode: MatchExact, Key: byNumber},
	Place:           {Code: Place, Selections: 1, Window: 3, MinFinishers: 1, Mode: MatchWithin, Key: byNumber},
	Quinella:        {Code: Quinella, Selections: 2, Window: 2, MinFinishers: 2, Mode: MatchCombination, Key: byNumber},
	Exacta:          {Code: Exacta, Selections: 2, Ordered: true, Window: 2, MinFinishers: 2, Mode: MatchExact, Key: byNumber},
	BracketQuinella: {Code: BracketQuinella, Selections: 2, Window: 2, MinFinishers: 2, Mode: MatchCombination, AllowRepeated: true, Key: byBracket},
	Wide:            {Code: Wide, Selections: 2, Window: 3, MinFinishers: 2, Mode: MatchWithin, Key: byNumber},
	Trio:            {Code: Trio, Selections: 3, Window: 3, MinFinishers: 3, Mode: MatchCombination, Key: byNumber},
	Trifecta:        {Code: Trifecta, Selections: 3, Ordered: true, Window: 3, MinFinishers: 3, Mode: MatchExact, Key: byNumber},
}

// Lookup devolve a definição do tipo pelo código
func Lookup(code string) (BetType, bool) {
	bt, ok := registry[code]
	return bt, ok
}

// Codes lista os códigos suportados em ordem estável
func Codes() []string {
	out := make([]string, 0, len(registry))
	for code := range registry {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

var ErrInvalidSelection = errors.New("invalid selection")

// Validate confere quantidade, valores positivos e repetição
func (bt BetType) Validate(selections []int) error {
	if len(selections) != bt.Selections {
		return fmt.Errorf("%w: %s needs %d selections, got %d", ErrInvalidSelection, bt.Code, bt.Selections, len(selections))
	}
	seen := make(map[int]struct{}, len(selections))
	for _, s := range selections {
		if s <= 0 {
			return fmt.Errorf("%w: %d is not a positive number", ErrInvalidSelection, s)
		}
		if _, dup := seen[s]; dup && !bt.AllowRepeated {
			return fmt.Errorf("%w: %d selected twice", ErrInvalidSelection, s)
		}
		seen[s] = struct{}{}
	}
	return nil
}

// UsesBracket indica se as seleções são números de grupo
func (bt BetType) UsesBracket() bool { return bt.Code == BracketQuinella }

// Canonical devolve as seleções na forma canônica: ordenadas quando a ordem não importa
func (bt BetType) Canonical(selections []int) []int {
	out := append([]int(nil), selections...)
	if !bt.Ordered {
		sort.Ints(out)
	}
	return out
}

// SelectionKey serializa a forma canônica, ex: "[3,7]"
func (bt BetType) SelectionKey(selections []int) string {
	canon := bt.Canonical(selections)
	parts := make([]string, len(canon))
	for i, n := range canon {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
