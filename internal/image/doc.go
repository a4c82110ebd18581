// SPDX-License-Identifier: MPL-2.0

// Package image picks the container image a target is built in and lists
// the images crossbox has pulled.
package image
