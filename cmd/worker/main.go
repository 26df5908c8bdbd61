package main

import (
	"log"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker refresh [--providers aws,azure] [--regions us-east-1,...] [--max-pages N]")
	}

	switch os.Args[1] {
	case "refresh":
		RunRefresh(os.Args[2:])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
