package graph

import (
	"os/exec"
	"runtime"

	"github.com/m-mizutani/goerr/v2"
)

// OpenCommand returns the platform viewer invocation for path.
var OpenCommand = func(path string) []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"open", path}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler", path}
	default:
		return []string{"xdg-open", path}
	}
}

// Open shows path in the system's default viewer without waiting for it to exit.
func Open(path string) error {
	argv := OpenCommand(path)
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return goerr.Wrap(err, "failed to open viewer", goerr.V("path", path), goerr.V("viewer", argv[0]))
	}
	go cmd.Wait()
	return nil
}
