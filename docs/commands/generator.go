package main

import (
	"log"
	"strings"

	"github.com/spf13/cobra/doc"

	hashchain "github.com/thetatoken/hashchain/cmd/hashchain/cmd"
)

const outputDir = "./hashchain/"

func generateHashchainDoc(filePrepender, linkHandler func(string) string) {
	var all = hashchain.RootCmd
	err := doc.GenMarkdownTreeCustom(all, outputDir, filePrepender, linkHandler)
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	filePrepender := func(filename string) string {
		return ""
	}

	linkHandler := func(name string) string {
		return strings.ToLower(name)
	}

	generateHashchainDoc(filePrepender, linkHandler)
	Walk(outputDir)
}
