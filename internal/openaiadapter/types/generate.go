//go:build ignore

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

func main() {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		fmt.Fprintln(os.Stderr, "Cannot get current file info")
		os.Exit(1)
	}
	baseDir := filepath.Dir(currentFile)

	run := func(name string, arg ...string) error {
		cmd := exec.Command(name, arg...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Dir = baseDir
		return cmd.Run()
	}

	// api.yaml is self-contained, no bundling step
	if err := run("go", "tool", "oapi-codegen", "-config", "./generate_cfg.yaml", "./api.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "Error running oapi-codegen: %v\n", err)
		os.Exit(1)
	}
}
