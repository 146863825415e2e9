// Package ir provides the canonical domain types shared by every stage of
// timeline reconstruction.
//
// This package contains type definitions and their canonical encodings only.
// All other internal packages import ir; ir imports nothing internal. This
// keeps the game model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - NO float types anywhere - clock values are whole seconds (int)
//   - Away fields always precede home fields in situation codes
//   - All JSON tags use camelCase to match the upstream data feeds
//   - Nothing in this package reads the wall clock
package ir
