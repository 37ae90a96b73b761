package main

import (
	"github.com/site-exporter/cmd/exporter"
)

func main() {
	exporter.Execute()
}
