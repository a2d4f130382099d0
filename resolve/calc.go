package resolve

import (
	"math"
	"strconv"
	"strings"

	"cssnitro/css"
)

var precedence = map[string]int{"+": 1, "-": 1, "*": 2, "/": 2}

type operand struct {
	value   float64
	percent bool
}

// rpnToken is either operator or operand.
type rpnToken struct {
	op string
	operand
}

// calc evaluates infix arithmetic over numbers and percentages. Malformed
// expression, mixing percentages with plain numbers in addition or
// multiplying two percentages gives null.
func calc(tokens []css.Value) css.Value {
	var (
		output []rpnToken
		ops    []string
	)

	for _, t := range tokens {
		if n, ok := t.AsNumber(); ok {
			output = append(output, rpnToken{operand: operand{value: round(n)}})
			continue
		}
		s, ok := t.AsString()
		if !ok {
			return css.Null()
		}
		switch {
		case strings.HasSuffix(s, "%"):
			n, err := strconv.ParseFloat(strings.TrimSpace(s[:len(s)-1]), 64)
			if err != nil {
				return css.Null()
			}
			output = append(output, rpnToken{operand: operand{value: round(n / 100), percent: true}})
		case precedence[s] > 0:
			for len(ops) > 0 && precedence[ops[len(ops)-1]] >= precedence[s] {
				output = append(output, rpnToken{op: ops[len(ops)-1]})
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, s)
		case s == "(":
			ops = append(ops, s)
		case s == ")":
			for len(ops) > 0 && ops[len(ops)-1] != "(" {
				output = append(output, rpnToken{op: ops[len(ops)-1]})
				ops = ops[:len(ops)-1]
			}
			if len(ops) == 0 {
				return css.Null()
			}
			ops = ops[:len(ops)-1]
		default:
			return css.Null()
		}
	}
	for len(ops) > 0 {
		op := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		if op == "(" {
			return css.Null()
		}
		output = append(output, rpnToken{op: op})
	}

	var stack []operand
	for _, t := range output {
		if t.op == "" {
			stack = append(stack, t.operand)
			continue
		}
		if len(stack) < 2 {
			return css.Null()
		}
		a, b := stack[len(stack)-2], stack[len(stack)-1]
		stack = stack[:len(stack)-2]

		var res operand
		switch t.op {
		case "+", "-":
			if a.percent != b.percent {
				return css.Null()
			}
			res.percent = a.percent
			if t.op == "+" {
				res.value = round(a.value + b.value)
			} else {
				res.value = round(a.value - b.value)
			}
		case "*":
			if a.percent && b.percent {
				return css.Null()
			}
			res.percent = a.percent || b.percent
			res.value = round(a.value * b.value)
		case "/":
			if b.value == 0 {
				return css.Null()
			}
			// ratio of two percentages is plain number
			res.percent = a.percent != b.percent
			res.value = round(a.value / b.value)
		}
		stack = append(stack, res)
	}

	if len(stack) != 1 {
		return css.Null()
	}
	if final := stack[0]; final.percent {
		return css.String(strconv.FormatFloat(round(final.value*100), 'f', -1, 64) + "%")
	}
	return css.Number(stack[0].value)
}

// epsilon is difference between 1 and next representable float64.
const epsilon = 0x1p-52

func round(n float64) float64 {
	return math.Round((n+epsilon)*10000) / 10000
}
