package main

import "TabSorter/internal/cli"

func main() {
	cli.Execute()
}
