//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

func Build() error {
	mg.Deps(BuildConverter)
	mg.Deps(BuildPlotter)
	fmt.Println("Compilation finished")
	return nil
}

// goCommand runs go with cgo enabled, hdf5 is needed by the converter.
func goCommand(args ...string) *exec.Cmd {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

func BuildConverter() error {
	fmt.Println("Building converter executable...")
	return goCommand("build", "-o", "./bin/converter", "./converter").Run()
}

func BuildPlotter() error {
	fmt.Println("Building plotter executable...")
	return goCommand("build", "-o", "./bin/plotter", "./plotter").Run()
}

// Test runs the package tests. The HDF5 writer tests need libhdf5.
func Test() error {
	fmt.Println("Running tests...")
	return goCommand("test", "./...").Run()
}
