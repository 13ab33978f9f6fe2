// SPDX-License-Identifier: MPL-2.0

package main

import cmd "sgpipe/cmd/sgpipe"

func main() {
	cmd.Execute()
}
