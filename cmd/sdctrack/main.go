// Command sdctrack administers the SDC tracking store.
package main

import "github.com/mesh-intelligence/sdctrack/internal/cli"

func main() {
	cli.Execute()
}
