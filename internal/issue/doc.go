// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors for the crossbox CLI.
//
// An ActionableError records which operation failed, on which resource, and
// what the user can do about it. Errors may also point at an entry of the
// Markdown issue catalog, which the CLI renders with glamour in verbose mode.
package issue
