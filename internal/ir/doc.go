// Package ir provides the value types shared by grizzly's query tree and its
// collaborators.
//
// This package contains literal values, result sets, and the canonical
// serialization used to fingerprint generated queries. All other internal
// packages import ir; ir imports nothing internal. This keeps ir the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Value is a sealed interface: Null, String, Int, Float, Bool
//   - Literals are stored verbatim in expression trees and never evaluated here
//   - Fingerprints use canonical JSON (sorted keys, NFC strings) so the same
//     query text and parameters always hash to the same identifier
package ir
