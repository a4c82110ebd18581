// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/crossbox/crossbox/cmd/crossbox"

func main() {
	cmd.Execute()
}
