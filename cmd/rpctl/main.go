package main

import "github.com/researchplatform/rpctl/pkg/cli"

func main() {
	cli.Execute()
}
