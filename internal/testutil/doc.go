// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by crossbox tests: environment and
// directory management, and a recorder that stands in for the container
// engine binary using the TestHelperProcess pattern.
package testutil
