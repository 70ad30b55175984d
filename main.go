package main

import (
	"log"

	"github.com/gridpulse/csipd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
