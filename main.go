package main

import "tsugite/internal/tsugite"

func main() {
	tsugite.Main()
}
