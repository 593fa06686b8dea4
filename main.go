// SPDX-License-Identifier: MPL-2.0

package main

import cmd "drvpack-cli/cmd/drvpack"

func main() {
	cmd.Execute()
}
