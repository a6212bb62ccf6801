package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Output is where component loggers write. Stdout is reserved for command
// results, so it defaults to stderr.
var Output io.Writer = os.Stderr

// New returns a stdlib-backed logger with component prefix, for libraries
// that expect a Printf-style logger.
func New(component string) *log.Logger {
	prefix := fmt.Sprintf("[%s] ", component)
	return log.New(Output, prefix, log.LstdFlags)
}
