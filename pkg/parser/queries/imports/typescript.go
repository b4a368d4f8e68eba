package imports

// TSQueries contains tree-sitter query patterns for TypeScript import and
// export extraction.
//
// These patterns cover the statements the symbol table consumes: ES6 imports
// (named, aliased, default, namespace, type-only), exported declarations
// (interface, type alias, enum), export lists, and
// re-exports.
const TSQueries = `
; ===========================================================================
; IMPORT STATEMENTS
; ===========================================================================

; Import source - capture from all import types
(import_statement
  source: (string (string_fragment) @import.source)
)

; Named imports: import { foo, bar, baz as b } from './utils';
(import_specifier
  name: (identifier) @import.named
)

; Named import aliases: import { foo as f } from './utils';
(import_specifier
  alias: (identifier) @import.alias
)

; Default import: import React from 'react';
(import_statement
  (import_clause
    (identifier) @import.default
  )
)

; Namespace import: import * as utils from './utils';
(import_statement
  (import_clause
    (namespace_import
      (identifier) @import.namespace
    )
  )
)

; ===========================================================================
; EXPORT STATEMENTS
; ===========================================================================

; TypeScript interface export: export interface User {}
(export_statement
  declaration: (interface_declaration
    name: (type_identifier) @export.name
  )
)

; TypeScript type alias export: export type ID = string;
(export_statement
  declaration: (type_alias_declaration
    name: (type_identifier) @export.name
  )
)

; TypeScript enum export: export enum Color {}
(export_statement
  declaration: (enum_declaration
    name: (identifier) @export.name
  )
)

; Export list names: export { foo, bar };
(export_specifier
  name: (identifier) @export.name
)

; Export list aliases: export { foo as bar };
(export_specifier
  alias: (identifier) @export.alias
)

; Re-export source: export { X } from './other'; / export * from './other';
(export_statement
  source: (string (string_fragment) @export.reexport.source)
)

; Re-export names: export { foo, bar } from './other';
(export_statement
  (export_clause
    (export_specifier
      name: (identifier) @export.reexport.name
    )
  )
  source: (string)
)
`
