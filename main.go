package main

import (
	"log"
	"os"

	"event-market/cmd"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "seed" {
		if err := cmd.Seed(); err != nil {
			log.Fatal(err)
		}
		return
	}
	if err := cmd.Start(); err != nil {
		log.Fatal(err)
	}
}
