package packsize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Errors returned by the arithmetic sub-parser.
var (
	ErrEmptyExpression = errors.New("empty pack-size expression")
	ErrMixedUnits      = errors.New("mixed unit classes in pack-size expression")
	ErrBadExpression   = errors.New("malformed pack-size expression")
)

var exprTokenRe = regexp.MustCompile(`\d+(?:\.\d+)?|[a-z]+|[+*()]`)

// NumValue reduces a pack-size string to a single comparable number and unit
// class. Quantities like "2 x 250ml" become 500 in the mass class; bare
// counts like "3+1 tablets" become 4 in the pack class. Expressions mixing
// unit classes are rejected rather than combined into a nonsense value.
func NumValue(text string) (float64, string, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return 0, "", ErrEmptyExpression
	}

	toks := exprTokenRe.FindAllString(s, -1)
	if strings.Join(toks, "") != strings.Join(strings.Fields(s), "") {
		return 0, "", fmt.Errorf("%w: %q", ErrBadExpression, text)
	}

	var (
		expr      []string
		class     string
		pending   float64 // factor from a unit token preceding its number
		hasNumber bool
		prevNum   bool
	)

	setClass := func(c string) error {
		if class != "" && class != c {
			return fmt.Errorf("%w: %q", ErrMixedUnits, text)
		}
		class = c
		return nil
	}

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch {
		case t == "x":
			expr = append(expr, "*")
			prevNum = false
		case t == "+" || t == "*" || t == "(" || t == ")":
			expr = append(expr, t)
			prevNum = false
		case isNumberToken(t):
			if prevNum {
				return 0, "", fmt.Errorf("%w: %q", ErrBadExpression, text)
			}
			val, err := strconv.ParseFloat(t, 64)
			if err != nil {
				return 0, "", fmt.Errorf("%w: %q", ErrBadExpression, text)
			}
			if pending != 0 {
				val *= pending
				pending = 0
			} else if i+1 < len(toks) && isWordToken(toks[i+1]) && toks[i+1] != "x" {
				c, f := unitClass(toks[i+1])
				if err := setClass(c); err != nil {
					return 0, "", err
				}
				val *= f
				i++
			}
			hasNumber = true
			prevNum = true
			expr = append(expr, strconv.FormatFloat(val, 'f', -1, 64))
		default:
			// unit token ahead of its number, e.g. "kg 2"
			c, f := unitClass(t)
			if err := setClass(c); err != nil {
				return 0, "", err
			}
			pending = f
		}
	}

	if !hasNumber {
		return 0, "", fmt.Errorf("%w: %q", ErrBadExpression, text)
	}

	value, err := evalExpr(strings.Join(expr, ""))
	if err != nil {
		return 0, "", err
	}
	if class == "" {
		class = UnitPack
	}
	return value, class, nil
}

// evalExpr evaluates a grammar-restricted arithmetic expression: numbers,
// '+', '*' and parentheses only. Anything else is an error. The restriction
// is deliberate since the input originates from scraped retailer text.
func evalExpr(s string) (float64, error) {
	p := &exprParser{input: s}
	v, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.input) {
		return 0, fmt.Errorf("%w: trailing input in %q", ErrBadExpression, s)
	}
	return v, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) parseSum() (float64, error) {
	v, err := p.parseProduct()
	if err != nil {
		return 0, err
	}
	for p.peek() == '+' {
		p.pos++
		rhs, err := p.parseProduct()
		if err != nil {
			return 0, err
		}
		v += rhs
	}
	return v, nil
}

func (p *exprParser) parseProduct() (float64, error) {
	v, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for p.peek() == '*' {
		p.pos++
		rhs, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		v *= rhs
	}
	return v, nil
}

func (p *exprParser) parseFactor() (float64, error) {
	if p.peek() == '(' {
		p.pos++
		v, err := p.parseSum()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("%w: unclosed parenthesis in %q", ErrBadExpression, p.input)
		}
		p.pos++
		return v, nil
	}

	start := p.pos
	for p.pos < len(p.input) && (isDigit(p.input[p.pos]) || p.input[p.pos] == '.') {
		p.pos++
	}
	if p.pos == start {
		return 0, fmt.Errorf("%w: expected number in %q", ErrBadExpression, p.input)
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadExpression, p.input)
	}
	return v, nil
}

func (p *exprParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isNumberToken(t string) bool {
	return t != "" && isDigit(t[0])
}

func isWordToken(t string) bool {
	return t != "" && t[0] >= 'a' && t[0] <= 'z'
}
