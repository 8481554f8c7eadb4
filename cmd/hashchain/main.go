package main

import "github.com/thetatoken/hashchain/cmd/hashchain/cmd"

func main() {
	cmd.Execute()
}
