package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
)

// scrubHome replaces the generating user's home directory, which leaks into
// flag defaults such as --config, with a placeholder.
func scrubHome(contents string, home string) string {
	if home == "" {
		return contents
	}
	return strings.Replace(contents, home, "<home>", -1)
}

func visitor(home string) filepath.WalkFunc {
	return func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}

		matched, err := filepath.Match("*.md", fi.Name())
		if err != nil || !matched {
			return err
		}

		read, err := ioutil.ReadFile(path)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return ioutil.WriteFile(path, []byte(scrubHome(string(read), home)), fi.Mode())
	}
}

// Walk rewrites every generated *.md file under root so it does not mention the current home directory.
func Walk(root string) {
	home, err := homedir.Dir()
	if err != nil {
		panic(err)
	}
	if err := filepath.Walk(root, visitor(home)); err != nil {
		panic(err)
	}
}
