/*
Package expr builds provider expressions from typed conditions and updates.

Conditions are trees of comparisons joined by And. The same tree serves as a
query condition, a scan filter or a write precondition:

	c := expr.And(expr.Equals("species", "Pig"), expr.LessOrEqual("number", 2))
	e, err := expr.BuildQuery(c, keys)

BuildQuery routes the partition key equality and a single sort key predicate
into the key condition and everything else into the filter. Between includes
both bounds. There is no OR or NOT.
*/
package expr
