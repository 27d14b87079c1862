package main

import (
	"github.com/rigtoolkit/rig/pkg/app"
)

func main() {
	app.Run()
}
