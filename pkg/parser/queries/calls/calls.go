// Package calls holds the query used for validator-call discovery.
package calls

// Queries matches call expressions whose callee is a bare identifier.
//
// Member accesses (obj.validateX(...)) deliberately do not match: only plain
// identifier callees count as validator invocations. The shape is identical
// in the TypeScript and JavaScript grammars so one query serves both.
const Queries = `
(call_expression
  function: (identifier) @call.callee
)
`
