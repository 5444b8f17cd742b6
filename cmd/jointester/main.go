package main

import (
	"github.com/armadaproject/jointester/cmd/jointester/cmd"
	"github.com/armadaproject/jointester/internal/common/logging"
)

func main() {
	logging.MustConfigureApplicationLogging()
	cmd.Execute()
}
