// Package calc provides the sandboxed arithmetic evaluator shared by the
// calculation tool and the weight-value calculator. It is the single source
// of truth for numeric evaluation and result formatting.
//
// The safety property of this package is deliberately narrow: an expression
// is evaluated only if it survives a strict character whitelist, an operator
// placement check, and a balanced-parentheses check. There is no identifier
// syntax at all, so no expression can reference anything outside itself.
package calc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Result holds the outcome of one evaluated expression.
type Result struct {
	Expression      string  `json:"expression"`
	Description     string  `json:"description,omitempty"`
	Value           float64 `json:"result"`
	FormattedResult string  `json:"formattedResult"`
}

// Validate reports whether expr is a well-formed arithmetic expression.
// Only digits, '.', the four basic operators, parentheses and spaces are
// permitted. Consecutive operators are rejected, with the single exception
// of a unary minus at the start of the expression or directly after '('.
func Validate(expr string) error {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return errors.New("expression is empty")
	}

	depth := 0
	var prev rune
	spaced := false
	for _, r := range trimmed {
		switch {
		case r >= '0' && r <= '9', r == '.':
			// Evaluation strips spaces, so two space-separated numbers
			// would silently concatenate unless rejected here.
			if spaced && (prev >= '0' && prev <= '9' || prev == '.') {
				return errors.New("numbers must be joined by an operator")
			}
		case r == ' ':
			spaced = true
			continue
		case r == '(':
			depth++
		case r == ')':
			depth--
			if depth < 0 {
				return errors.New("unbalanced parentheses")
			}
			if prev == '(' {
				return errors.New("empty parentheses")
			}
		case r == '+' || r == '-' || r == '*' || r == '/':
			if isOperator(prev) {
				return fmt.Errorf("consecutive operators near %q", string(prev)+string(r))
			}
			if (prev == 0 || prev == '(') && r != '-' {
				return fmt.Errorf("expression cannot start with %q", string(r))
			}
		default:
			return fmt.Errorf("illegal character %q in expression", string(r))
		}
		prev = r
		spaced = false
	}
	if depth != 0 {
		return errors.New("unbalanced parentheses")
	}
	if isOperator(prev) {
		return errors.New("expression ends with an operator")
	}
	return nil
}

func isOperator(r rune) bool {
	return r == '+' || r == '-' || r == '*' || r == '/'
}

// Evaluate validates and evaluates expr. The evaluator is a small
// recursive-descent parser over the whitelisted grammar; it has no access
// to any surrounding scope.
func Evaluate(expr string) (float64, error) {
	if err := Validate(expr); err != nil {
		return 0, err
	}
	p := &parser{input: strings.ReplaceAll(expr, " ", "")}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("unexpected token at position %d", p.pos)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errors.New("expression result is not a finite number")
	}
	return v, nil
}

// Calculate evaluates expr and attaches a human-readable description label.
func Calculate(expr, description string) (*Result, error) {
	v, err := Evaluate(expr)
	if err != nil {
		return nil, err
	}
	return &Result{
		Expression:      strings.TrimSpace(expr),
		Description:     description,
		Value:           v,
		FormattedResult: FormatResult(v),
	}, nil
}

// parser implements the grammar
//
//	expr   = term   { ("+" | "-") term }
//	term   = factor { ("*" | "/") factor }
//	factor = "-" factor | "(" expr ")" | number
type parser struct {
	input string
	pos   int
}

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) parseExpr() (float64, error) {
	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v += rhs
		case '-':
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v -= rhs
		default:
			return v, nil
		}
	}
}

func (p *parser) parseTerm() (float64, error) {
	v, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			v *= rhs
		case '/':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, errors.New("division by zero")
			}
			v /= rhs
		default:
			return v, nil
		}
	}
}

func (p *parser) parseFactor() (float64, error) {
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.parseFactor()
		return -v, err
	case '(':
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, errors.New("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	}
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c < '0' || c > '9') && c != '.' {
			break
		}
		p.pos++
	}
	if start == p.pos {
		return 0, fmt.Errorf("expected a number at position %d", start)
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.input[start:p.pos])
	}
	return v, nil
}
