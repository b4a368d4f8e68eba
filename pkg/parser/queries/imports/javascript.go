package imports

// JSQueries contains the JavaScript variant of the import/export queries.
//
// JavaScript files never declare interfaces or enums, but they can still
// import, re-export, and call validators, so the import surface matches the
// TypeScript query minus the type declarations.
const JSQueries = `
(import_statement
  source: (string (string_fragment) @import.source)
)

(import_specifier
  name: (identifier) @import.named
)

(import_specifier
  alias: (identifier) @import.alias
)

(import_statement
  (import_clause
    (identifier) @import.default
  )
)

(import_statement
  (import_clause
    (namespace_import
      (identifier) @import.namespace
    )
  )
)

(export_specifier
  name: (identifier) @export.name
)

(export_specifier
  alias: (identifier) @export.alias
)

(export_statement
  source: (string (string_fragment) @export.reexport.source)
)

(export_statement
  (export_clause
    (export_specifier
      name: (identifier) @export.reexport.name
    )
  )
  source: (string)
)
`
