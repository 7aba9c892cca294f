/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package expr

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/suparena/tableops/errors"
	"github.com/suparena/tableops/storagemodels"
)

type actionKind int

const (
	actionSet actionKind = iota + 1
	actionAdd
	actionRemove
	actionDelete
)

type action struct {
	kind  actionKind
	attr  string
	value any
}

// Update is an immutable list of update actions. Every method returns a new Update.
type Update struct {
	actions []action
}

// Set assigns v to attr.
func Set(attr string, v any) Update {
	return Update{}.Set(attr, v)
}

// Add adds v to a number attribute or unions v into a set attribute.
func Add(attr string, v any) Update {
	return Update{}.Add(attr, v)
}

// Remove deletes attr from the item.
func Remove(attr string) Update {
	return Update{}.Remove(attr)
}

// Delete removes the elements of v from a set attribute.
func Delete(attr string, v any) Update {
	return Update{}.Delete(attr, v)
}

func (u Update) with(a action) Update {
	actions := make([]action, len(u.actions), len(u.actions)+1)
	copy(actions, u.actions)
	return Update{actions: append(actions, a)}
}

// Set appends a SET action.
func (u Update) Set(attr string, v any) Update {
	return u.with(action{kind: actionSet, attr: attr, value: v})
}

// Add appends an ADD action.
func (u Update) Add(attr string, v any) Update {
	return u.with(action{kind: actionAdd, attr: attr, value: v})
}

// Remove appends a REMOVE action.
func (u Update) Remove(attr string) Update {
	return u.with(action{kind: actionRemove, attr: attr})
}

// Delete appends a DELETE action.
func (u Update) Delete(attr string, v any) Update {
	return u.with(action{kind: actionDelete, attr: attr, value: v})
}

// IsZero reports whether u has no actions.
func (u Update) IsZero() bool {
	return len(u.actions) == 0
}

// Attributes returns the attributes touched by u, in order.
func (u Update) Attributes() []string {
	out := make([]string, len(u.actions))
	for i, a := range u.actions {
		out[i] = a.attr
	}
	return out
}

func (u Update) builder(keys storagemodels.KeySchema) (expression.UpdateBuilder, error) {
	var ub expression.UpdateBuilder
	if u.IsZero() {
		return ub, errors.NewValidationError("update", "update has no actions")
	}

	seen := make(map[string]bool, len(u.actions))
	for _, a := range u.actions {
		switch {
		case a.attr == "":
			return ub, errors.NewValidationError("update", "action requires an attribute name")
		case keys.IsKey(a.attr):
			return ub, errors.NewValidationError(a.attr, "key attributes cannot be updated")
		case seen[a.attr]:
			return ub, errors.NewValidationError(a.attr, "attribute updated more than once")
		case a.kind != actionRemove && a.value == nil:
			return ub, errors.NewValidationError(a.attr, "update value is required")
		}
		seen[a.attr] = true

		name := expression.Name(a.attr)
		switch a.kind {
		case actionSet:
			ub = ub.Set(name, expression.Value(a.value))
		case actionAdd:
			ub = ub.Add(name, expression.Value(a.value))
		case actionRemove:
			ub = ub.Remove(name)
		case actionDelete:
			ub = ub.Delete(name, expression.Value(a.value))
		default:
			return ub, errors.NewValidationError(a.attr, fmt.Sprintf("unknown action %d", a.kind))
		}
	}
	return ub, nil
}
