package main

import "github.com/oshokin/appci-number/cmd/appci-number/cmd"

func main() {
	cmd.Execute()
}
