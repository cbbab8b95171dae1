package main

import (
	"log"

	"github.com/craftista/godownload/cmd"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}
