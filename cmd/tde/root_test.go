package main

import (
	"testing"
)

func TestProjectRootFlagOverride(t *testing.T) {
	orig := rootFlag
	defer func() { rootFlag = orig }()

	rootFlag = "/tmp/some-project"
	if got := projectRoot(); got != "/tmp/some-project" {
		t.Errorf("projectRoot() = %q, want %q", got, "/tmp/some-project")
	}
}

func TestProjectRootDefaultsToWorkingDirectory(t *testing.T) {
	orig := rootFlag
	defer func() { rootFlag = orig }()

	rootFlag = ""
	if got := projectRoot(); got == "" {
		t.Error("projectRoot() returned empty string")
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{
		"analyze",
		"dashboard",
		"deps",
		"init",
		"refactor",
		"serve",
		"token",
	}

	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}

	for _, name := range want {
		if !registered[name] {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestDepsSubcommands(t *testing.T) {
	want := []string{"report", "vulnerabilities", "outdated", "analysis", "update"}

	registered := make(map[string]bool)
	for _, c := range depsCmd.Commands() {
		registered[c.Name()] = true
	}

	for _, name := range want {
		if !registered[name] {
			t.Errorf("deps subcommand %q not registered", name)
		}
	}
}
