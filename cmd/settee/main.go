package main

import (
	"github.com/setteedb/settee/cmd/settee/cmd"
)

func main() {
	cmd.Execute()
}
