package main

import (
	"log"

	"github.com/researchplatform/rpctl/pkg/api"
)

func main() {
	if err := api.Main(); err != nil {
		log.Fatal(err)
	}
}
