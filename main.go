package main

import (
	"github.com/tangtown/tangdesk/cmd"
)

func main() {
	cmd.Execute()
}
