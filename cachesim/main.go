// Command cachesim runs the cache simulator from the command line or as a
// web server.
package main

import "github.com/sarchlab/cachesim/cachesim/cmd"

func main() {
	cmd.Execute()
}
