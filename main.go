// The main package for the zvezda-crawler executable.
package main

import (
	"github.com/JakeFAU/zvezda-crawler/cmd"
)

func main() {
	cmd.Execute()
}
