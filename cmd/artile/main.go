// Command artile loads microscopy images into tiles and describes them.
package main

import "github.com/robert-malhotra/go-artile/internal/cli"

func main() {
	cli.Execute()
}
