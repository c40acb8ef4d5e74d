//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "bin/testgen"

// Default target - build the binary
var Default = Build

// version returns the git description of HEAD, or "dev".
func version() string {
	v, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || v == "" {
		return "dev"
	}
	return v
}

// Build builds the testgen binary
func Build() error {
	ldflags := fmt.Sprintf("-s -w -X main.version=%s", version())
	return sh.RunV("go", "build", "-ldflags", ldflags, "-o", binary, "./cmd/testgen")
}

// Install installs testgen into GOPATH/bin
func Install() error {
	ldflags := fmt.Sprintf("-s -w -X main.version=%s", version())
	return sh.RunV("go", "install", "-ldflags", ldflags, "./cmd/testgen")
}

// Test runs the unit tests with the race detector
func Test() error {
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// Integration checks the Python toolchain and runs the packages whose
// tests execute pytest
func Integration() error {
	if _, err := exec.LookPath("python3"); err != nil {
		return fmt.Errorf("python3 not found: %w", err)
	}
	if err := sh.Run("python3", "-c", "import pytest, coverage"); err != nil {
		return fmt.Errorf("pytest and coverage must be installed: %w", err)
	}
	return sh.RunV("go", "test", "-count=1", "-v", "./internal/sandbox/...", "./internal/pipeline/...")
}

// Lint runs go vet and, when installed, golangci-lint
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return fmt.Errorf("vet failed: %w", err)
	}
	if _, err := exec.LookPath("golangci-lint"); err != nil {
		fmt.Fprintln(os.Stderr, "golangci-lint not found, skipping")
		return nil
	}
	return sh.RunV("golangci-lint", "run", "./...")
}

// QA runs lint and tests
func QA() {
	mg.SerialDeps(Lint, Test)
}

// Clean removes build artifacts
func Clean() error {
	return sh.Rm("bin")
}
