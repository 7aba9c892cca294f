/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/tableops/storagemodels"
)

var updateSections = []string{"SET", "REMOVE", "ADD", "DELETE"}

func (p *parser) sectionStart() (string, bool) {
	for _, s := range updateSections {
		if p.keyword(s) {
			return s, true
		}
	}
	return "", false
}

// applyUpdate parses an update expression and applies it to item in place.
func applyUpdate(expr string, names map[string]string, values map[string]types.AttributeValue, item storagemodels.Item) error {
	p, err := newParser(expr, names, values)
	if err != nil {
		return err
	}
	// Resolve every operand against the item as it was before the update
	before := cloneItem(item)

	if p.peek().kind == tokEOF {
		return fmt.Errorf("update expression is empty")
	}
	for p.peek().kind != tokEOF {
		section, ok := p.sectionStart()
		if !ok {
			return fmt.Errorf("Syntax error; token: %q", p.peek().text)
		}
		p.next()
		for {
			if err := p.updateClause(section, before, item); err != nil {
				return err
			}
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	return nil
}

func (p *parser) target() ([]string, error) {
	t := p.next()
	if t.kind != tokIdent || strings.HasPrefix(t.text, ":") {
		return nil, fmt.Errorf("expected attribute path, got %q", t.text)
	}
	o, err := p.path(t.text)
	if err != nil {
		return nil, err
	}
	return o.path, nil
}

func (p *parser) updateClause(section string, before, item storagemodels.Item) error {
	path, err := p.target()
	if err != nil {
		return err
	}

	switch section {
	case "REMOVE":
		removePath(item, path)
		return nil

	case "SET":
		if t := p.next(); t.kind != tokCompare || t.text != "=" {
			return fmt.Errorf("expected = in SET clause, got %q", t.text)
		}
		v, err := p.setValue(before)
		if err != nil {
			return err
		}
		return setPath(item, path, v)

	case "ADD":
		o, err := p.operand()
		if err != nil {
			return err
		}
		delta, _ := o.resolve(before)
		current, exists := getPath(before, path)
		if !exists {
			return setPath(item, path, delta)
		}
		v, err := addValues(current, delta, 1)
		if err != nil {
			return err
		}
		return setPath(item, path, v)

	default: // DELETE
		o, err := p.operand()
		if err != nil {
			return err
		}
		remove, _ := o.resolve(before)
		current, exists := getPath(before, path)
		if !exists {
			return nil
		}
		v, empty, err := subtractSet(current, remove)
		if err != nil {
			return err
		}
		if empty {
			removePath(item, path)
			return nil
		}
		return setPath(item, path, v)
	}
}

func (p *parser) setValue(before storagemodels.Item) (types.AttributeValue, error) {
	left, err := p.setTerm(before)
	if err != nil {
		return nil, err
	}
	switch p.peek().kind {
	case tokPlus, tokMinus:
		sign := 1
		if p.next().kind == tokMinus {
			sign = -1
		}
		right, err := p.setTerm(before)
		if err != nil {
			return nil, err
		}
		return addValues(left, right, sign)
	}
	return left, nil
}

func (p *parser) setTerm(before storagemodels.Item) (types.AttributeValue, error) {
	t := p.peek()
	if t.kind == tokIdent && p.toks[p.pos+1].kind == tokLParen {
		fn := strings.ToLower(p.next().text)
		p.next() // (
		a, err := p.operand()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokComma, ","); err != nil {
			return nil, err
		}
		b, err := p.operand()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		switch fn {
		case "if_not_exists":
			if v, ok := a.resolve(before); ok {
				return v, nil
			}
			v, _ := b.resolve(before)
			return v, nil
		case "list_append":
			x, _ := a.resolve(before)
			y, _ := b.resolve(before)
			xl, ok1 := x.(*types.AttributeValueMemberL)
			yl, ok2 := y.(*types.AttributeValueMemberL)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("list_append requires two lists")
			}
			out := append(append([]types.AttributeValue{}, xl.Value...), yl.Value...)
			return &types.AttributeValueMemberL{Value: out}, nil
		default:
			return nil, fmt.Errorf("Invalid function name; function: %s", fn)
		}
	}

	o, err := p.operand()
	if err != nil {
		return nil, err
	}
	v, ok := o.resolve(before)
	if !ok {
		return nil, fmt.Errorf("The provided expression refers to an attribute that does not exist in the item")
	}
	return v, nil
}

func addValues(a, b types.AttributeValue, sign int) (types.AttributeValue, error) {
	switch av := a.(type) {
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		if !ok {
			return nil, fmt.Errorf("An operand in the update expression has an incorrect data type")
		}
		x, ok1 := parseNumber(av.Value)
		y, ok2 := parseNumber(bv.Value)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("invalid number")
		}
		if sign < 0 {
			y.Neg(y)
		}
		return &types.AttributeValueMemberN{Value: formatNumber(x.Add(x, y))}, nil
	case *types.AttributeValueMemberSS:
		bv, ok := b.(*types.AttributeValueMemberSS)
		if !ok || sign < 0 {
			return nil, fmt.Errorf("An operand in the update expression has an incorrect data type")
		}
		out := append([]string{}, av.Value...)
		for _, s := range bv.Value {
			if !containsString(out, s) {
				out = append(out, s)
			}
		}
		return &types.AttributeValueMemberSS{Value: out}, nil
	case *types.AttributeValueMemberNS:
		bv, ok := b.(*types.AttributeValueMemberNS)
		if !ok || sign < 0 {
			return nil, fmt.Errorf("An operand in the update expression has an incorrect data type")
		}
		out := append([]string{}, av.Value...)
		for _, n := range bv.Value {
			if !contains(&types.AttributeValueMemberNS{Value: out}, &types.AttributeValueMemberN{Value: n}) {
				out = append(out, n)
			}
		}
		return &types.AttributeValueMemberNS{Value: out}, nil
	}
	return nil, fmt.Errorf("An operand in the update expression has an incorrect data type")
}

func subtractSet(a, b types.AttributeValue) (types.AttributeValue, bool, error) {
	switch av := a.(type) {
	case *types.AttributeValueMemberSS:
		bv, ok := b.(*types.AttributeValueMemberSS)
		if !ok {
			break
		}
		var out []string
		for _, s := range av.Value {
			if !containsString(bv.Value, s) {
				out = append(out, s)
			}
		}
		return &types.AttributeValueMemberSS{Value: out}, len(out) == 0, nil
	case *types.AttributeValueMemberNS:
		bv, ok := b.(*types.AttributeValueMemberNS)
		if !ok {
			break
		}
		var out []string
		for _, n := range av.Value {
			if !contains(bv, &types.AttributeValueMemberN{Value: n}) {
				out = append(out, n)
			}
		}
		return &types.AttributeValueMemberNS{Value: out}, len(out) == 0, nil
	case *types.AttributeValueMemberBS:
		bv, ok := b.(*types.AttributeValueMemberBS)
		if !ok {
			break
		}
		var out [][]byte
		for _, x := range av.Value {
			found := false
			for _, y := range bv.Value {
				if bytes.Equal(x, y) {
					found = true
					break
				}
			}
			if !found {
				out = append(out, x)
			}
		}
		return &types.AttributeValueMemberBS{Value: out}, len(out) == 0, nil
	}
	return nil, false, fmt.Errorf("An operand in the update expression has an incorrect data type")
}

func setPath(item storagemodels.Item, path []string, v types.AttributeValue) error {
	if v == nil {
		return fmt.Errorf("update value is missing")
	}
	m := item
	for _, seg := range path[:len(path)-1] {
		next, ok := m[seg].(*types.AttributeValueMemberM)
		if !ok {
			return fmt.Errorf("The document path provided in the update expression is invalid for update")
		}
		// copy on write so the previous item image stays untouched
		cp := &types.AttributeValueMemberM{Value: cloneItem(next.Value)}
		m[seg] = cp
		m = cp.Value
	}
	m[path[len(path)-1]] = v
	return nil
}

func removePath(item storagemodels.Item, path []string) {
	m := item
	for _, seg := range path[:len(path)-1] {
		next, ok := m[seg].(*types.AttributeValueMemberM)
		if !ok {
			return
		}
		cp := &types.AttributeValueMemberM{Value: cloneItem(next.Value)}
		m[seg] = cp
		m = cp.Value
	}
	delete(m, path[len(path)-1])
}

func cloneItem(item storagemodels.Item) storagemodels.Item {
	if item == nil {
		return nil
	}
	out := make(storagemodels.Item, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
