/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/tableops/storagemodels"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLParen
	tokRParen
	tokComma
	tokCompare
	tokPlus
	tokMinus
)

type token struct {
	kind tokenKind
	text string
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '#' || r == ':' || r == '.' || r == '[' || r == ']'
}

func tokenize(s string) ([]token, error) {
	var toks []token
	rs := []rune(s)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case r == ',':
			toks = append(toks, token{tokComma, ","})
			i++
		case r == '+':
			toks = append(toks, token{tokPlus, "+"})
			i++
		case r == '-':
			toks = append(toks, token{tokMinus, "-"})
			i++
		case r == '=':
			toks = append(toks, token{tokCompare, "="})
			i++
		case r == '<' || r == '>':
			op := string(r)
			if i+1 < len(rs) && (rs[i+1] == '=' || (r == '<' && rs[i+1] == '>')) {
				op += string(rs[i+1])
				i++
			}
			toks = append(toks, token{tokCompare, op})
			i++
		case isIdentRune(r):
			start := i
			for i < len(rs) && isIdentRune(rs[i]) {
				i++
			}
			toks = append(toks, token{tokIdent, string(rs[start:i])})
		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", r, i)
		}
	}
	return append(toks, token{kind: tokEOF}), nil
}

// operand is an attribute path or a substituted value.
type operand struct {
	path  []string
	value types.AttributeValue
}

func (o operand) resolve(item storagemodels.Item) (types.AttributeValue, bool) {
	if o.value != nil {
		return o.value, true
	}
	return getPath(item, o.path)
}

func getPath(item storagemodels.Item, path []string) (types.AttributeValue, bool) {
	var cur types.AttributeValue
	m := item
	for i, seg := range path {
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
		if i == len(path)-1 {
			break
		}
		next, isMap := v.(*types.AttributeValueMemberM)
		if !isMap {
			return nil, false
		}
		m = next.Value
	}
	return cur, cur != nil
}

type predicate func(item storagemodels.Item) bool

type parser struct {
	toks   []token
	pos    int
	names  map[string]string
	values map[string]types.AttributeValue
}

func newParser(expr string, names map[string]string, values map[string]types.AttributeValue) (*parser, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	return &parser{toks: toks, names: names, values: values}, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) keyword(word string) bool {
	t := p.peek()
	return t.kind == tokIdent && strings.EqualFold(t.text, word)
}

func (p *parser) expect(kind tokenKind, what string) error {
	if t := p.next(); t.kind != kind {
		return fmt.Errorf("expected %s, got %q", what, t.text)
	}
	return nil
}

func (p *parser) path(text string) (operand, error) {
	segs := strings.Split(text, ".")
	for i, seg := range segs {
		if strings.HasPrefix(seg, "#") {
			name, ok := p.names[seg]
			if !ok {
				return operand{}, fmt.Errorf("An expression attribute name used in the document path is not defined; attribute name: %s", seg)
			}
			segs[i] = name
		}
	}
	return operand{path: segs}, nil
}

func (p *parser) operand() (operand, error) {
	t := p.next()
	if t.kind != tokIdent {
		return operand{}, fmt.Errorf("expected operand, got %q", t.text)
	}
	if strings.HasPrefix(t.text, ":") {
		v, ok := p.values[t.text]
		if !ok {
			return operand{}, fmt.Errorf("An expression attribute value used in expression is not defined; attribute value: %s", t.text)
		}
		return operand{value: v}, nil
	}
	return p.path(t.text)
}

// compileCondition parses a condition, filter or key condition expression.
func compileCondition(expr string, names map[string]string, values map[string]types.AttributeValue) (predicate, error) {
	p, err := newParser(expr, names, values)
	if err != nil {
		return nil, err
	}
	pred, err := p.or()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected token %q", t.text)
	}
	return pred, nil
}

func (p *parser) or() (predicate, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.keyword("OR") {
		p.next()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		l := left
		left = func(item storagemodels.Item) bool { return l(item) || right(item) }
	}
	return left, nil
}

func (p *parser) and() (predicate, error) {
	left, err := p.not()
	if err != nil {
		return nil, err
	}
	for p.keyword("AND") {
		p.next()
		right, err := p.not()
		if err != nil {
			return nil, err
		}
		l := left
		left = func(item storagemodels.Item) bool { return l(item) && right(item) }
	}
	return left, nil
}

func (p *parser) not() (predicate, error) {
	if p.keyword("NOT") {
		p.next()
		inner, err := p.not()
		if err != nil {
			return nil, err
		}
		return func(item storagemodels.Item) bool { return !inner(item) }, nil
	}
	return p.primary()
}

func (p *parser) primary() (predicate, error) {
	if p.peek().kind == tokLParen {
		p.next()
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	}

	if t := p.peek(); t.kind == tokIdent && p.toks[p.pos+1].kind == tokLParen {
		return p.function(strings.ToLower(p.next().text))
	}

	left, err := p.operand()
	if err != nil {
		return nil, err
	}

	switch {
	case p.keyword("BETWEEN"):
		p.next()
		lo, err := p.operand()
		if err != nil {
			return nil, err
		}
		if !p.keyword("AND") {
			return nil, fmt.Errorf("expected AND in BETWEEN")
		}
		p.next()
		hi, err := p.operand()
		if err != nil {
			return nil, err
		}
		return func(item storagemodels.Item) bool {
			v, ok1 := left.resolve(item)
			l, ok2 := lo.resolve(item)
			h, ok3 := hi.resolve(item)
			if !ok1 || !ok2 || !ok3 {
				return false
			}
			c1, okl := compareScalars(v, l)
			c2, okh := compareScalars(v, h)
			return okl && okh && c1 >= 0 && c2 <= 0
		}, nil

	case p.keyword("IN"):
		p.next()
		if err := p.expect(tokLParen, "("); err != nil {
			return nil, err
		}
		var set []operand
		for {
			o, err := p.operand()
			if err != nil {
				return nil, err
			}
			set = append(set, o)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return func(item storagemodels.Item) bool {
			v, ok := left.resolve(item)
			if !ok {
				return false
			}
			for _, o := range set {
				if w, ok := o.resolve(item); ok && equalValues(v, w) {
					return true
				}
			}
			return false
		}, nil

	case p.peek().kind == tokCompare:
		op := p.next().text
		right, err := p.operand()
		if err != nil {
			return nil, err
		}
		return comparison(op, left, right), nil
	}
	return nil, fmt.Errorf("expected comparison after operand, got %q", p.peek().text)
}

func comparison(op string, left, right operand) predicate {
	return func(item storagemodels.Item) bool {
		a, ok1 := left.resolve(item)
		b, ok2 := right.resolve(item)
		if !ok1 || !ok2 {
			return op == "<>" && ok1 != ok2
		}
		switch op {
		case "=":
			return equalValues(a, b)
		case "<>":
			return !equalValues(a, b)
		}
		cmp, ok := compareScalars(a, b)
		if !ok {
			return false
		}
		switch op {
		case "<":
			return cmp < 0
		case "<=":
			return cmp <= 0
		case ">":
			return cmp > 0
		case ">=":
			return cmp >= 0
		}
		return false
	}
}

func (p *parser) function(name string) (predicate, error) {
	p.next() // (
	var args []operand
	for p.peek().kind != tokRParen {
		o, err := p.operand()
		if err != nil {
			return nil, err
		}
		args = append(args, o)
		if p.peek().kind == tokComma {
			p.next()
		}
	}
	p.next() // )

	arity := map[string]int{
		"attribute_exists":     1,
		"attribute_not_exists": 1,
		"begins_with":          2,
		"contains":             2,
		"attribute_type":       2,
	}
	want, known := arity[name]
	if !known {
		return nil, fmt.Errorf("Invalid function name; function: %s", name)
	}
	if len(args) != want {
		return nil, fmt.Errorf("Incorrect number of operands for operator or function; function: %s", name)
	}

	switch name {
	case "attribute_exists":
		return func(item storagemodels.Item) bool {
			_, ok := args[0].resolve(item)
			return ok
		}, nil
	case "attribute_not_exists":
		return func(item storagemodels.Item) bool {
			_, ok := args[0].resolve(item)
			return !ok
		}, nil
	case "begins_with":
		return func(item storagemodels.Item) bool {
			v, ok1 := args[0].resolve(item)
			prefix, ok2 := args[1].resolve(item)
			if !ok1 || !ok2 {
				return false
			}
			return beginsWith(v, prefix)
		}, nil
	case "contains":
		return func(item storagemodels.Item) bool {
			v, ok1 := args[0].resolve(item)
			elem, ok2 := args[1].resolve(item)
			if !ok1 || !ok2 {
				return false
			}
			return contains(v, elem)
		}, nil
	default: // attribute_type
		return func(item storagemodels.Item) bool {
			v, ok1 := args[0].resolve(item)
			want, ok2 := args[1].resolve(item)
			s, isS := want.(*types.AttributeValueMemberS)
			return ok1 && ok2 && isS && typeCode(v) == s.Value
		}, nil
	}
}

func beginsWith(v, prefix types.AttributeValue) bool {
	switch tv := v.(type) {
	case *types.AttributeValueMemberS:
		p, ok := prefix.(*types.AttributeValueMemberS)
		return ok && strings.HasPrefix(tv.Value, p.Value)
	case *types.AttributeValueMemberB:
		p, ok := prefix.(*types.AttributeValueMemberB)
		return ok && bytes.HasPrefix(tv.Value, p.Value)
	}
	return false
}

func contains(v, elem types.AttributeValue) bool {
	switch tv := v.(type) {
	case *types.AttributeValueMemberS:
		e, ok := elem.(*types.AttributeValueMemberS)
		return ok && strings.Contains(tv.Value, e.Value)
	case *types.AttributeValueMemberSS:
		e, ok := elem.(*types.AttributeValueMemberS)
		return ok && containsString(tv.Value, e.Value)
	case *types.AttributeValueMemberNS:
		e, ok := elem.(*types.AttributeValueMemberN)
		if !ok {
			return false
		}
		for _, n := range tv.Value {
			if equalValues(&types.AttributeValueMemberN{Value: n}, e) {
				return true
			}
		}
	case *types.AttributeValueMemberL:
		for _, x := range tv.Value {
			if equalValues(x, elem) {
				return true
			}
		}
	}
	return false
}

func containsString(set []string, s string) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

func typeCode(av types.AttributeValue) string {
	switch av.(type) {
	case *types.AttributeValueMemberS:
		return "S"
	case *types.AttributeValueMemberN:
		return "N"
	case *types.AttributeValueMemberB:
		return "B"
	case *types.AttributeValueMemberBOOL:
		return "BOOL"
	case *types.AttributeValueMemberNULL:
		return "NULL"
	case *types.AttributeValueMemberM:
		return "M"
	case *types.AttributeValueMemberL:
		return "L"
	case *types.AttributeValueMemberSS:
		return "SS"
	case *types.AttributeValueMemberNS:
		return "NS"
	case *types.AttributeValueMemberBS:
		return "BS"
	}
	return ""
}
