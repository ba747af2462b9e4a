// Package sqlgen turns frame trees into SQL and runs them.
//
// Compilation walks the tree bottom-up and builds one SELECT block per run
// of Filter, Projection and Grouping nodes. A block is wrapped as a
// subquery when the next operator cannot be expressed in the same SELECT:
//
//   - any operator over a DISTINCT block
//   - a Filter or Grouping over a grouped block
//   - a Join whose left side is not a bare FROM clause
//   - a Join whose right side is not a plain table
//
// Column references are qualified by provenance. A ref is traced through
// its owner down to the base table that supplies it, and the table alias is
// then mapped through the aliases of any subqueries that enclose it.
//
// Literals are always sent as bind parameters by Compile. Render inlines
// them for display.
package sqlgen
