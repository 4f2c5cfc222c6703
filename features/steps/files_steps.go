//go:build integration

package steps

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"video-processing/application/distribution"
	"video-processing/cmd"

	"github.com/cucumber/godog"
)

func InitializeFilesScenario(ctx *godog.ScenarioContext) {
	ctx.Step(`^the working directory holds "([^"]*)"$`, theWorkingDirectoryHolds)
	ctx.Step(`^I check whether "([^"]*)" is a valid file$`, iCheckWhetherIsAValidFile)
	ctx.Step(`^the file should be reported (valid|invalid)$`, theFileShouldBeReported)
	ctx.Step(`^I delete "([^"]*)" from the working directory$`, iDeleteFromTheWorkingDirectory)
	ctx.Step(`^I clean the working directory$`, iCleanTheWorkingDirectory)
	ctx.Step(`^I list the working directory$`, iListTheWorkingDirectory)
	ctx.Step(`^the delete should fail$`, theDeleteShouldFail)
	ctx.Step(`^the working directory holds "([^"]*)" of (\d+) bytes$`, theWorkingDirectoryHoldsOfBytes)
	ctx.Step(`^I prune the working directory to "([^"]*)"$`, iPruneTheWorkingDirectoryTo)
	ctx.Step(`^"([^"]*)" should still be in the working directory$`, shouldStillBeInTheWorkingDirectory)
}

var lastValid bool

func theWorkingDirectoryHolds(name string) error {
	p := getPipelineContext()
	return os.WriteFile(filepath.Join(p.store.Dir(), name), []byte("video"), 0644)
}

// theWorkingDirectoryHoldsOfBytes writes files with increasing modification
// times so listing order follows the scenario order
func theWorkingDirectoryHoldsOfBytes(name string, size int) error {
	p := getPipelineContext()
	path := filepath.Join(p.store.Dir(), name)
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		return err
	}
	entries, err := p.store.List()
	if err != nil {
		return err
	}
	mtime := time.Now().Add(-time.Hour).Add(time.Duration(len(entries)) * time.Minute)
	return os.Chtimes(path, mtime, mtime)
}

func iPruneTheWorkingDirectoryTo(limit string) error {
	p := getPipelineContext()
	commandOutput.Reset()
	p.err = cmd.RunFilesPruneWithDependencies(distribution.NewRetentionService(p.store), limit, &commandOutput)
	return p.err
}

func shouldStillBeInTheWorkingDirectory(name string) error {
	p := getPipelineContext()
	if _, err := os.Stat(filepath.Join(p.store.Dir(), name)); err != nil {
		return fmt.Errorf("expected %s to remain: %w", name, err)
	}
	return nil
}

func iCheckWhetherIsAValidFile(name string) error {
	p := getPipelineContext()
	lastValid = p.coord.IsValidFile(p.sourcePath(name))
	return nil
}

func theFileShouldBeReported(state string) error {
	if want := state == "valid"; lastValid != want {
		return fmt.Errorf("expected file to be %s", state)
	}
	return nil
}

func iDeleteFromTheWorkingDirectory(name string) error {
	p := getPipelineContext()
	commandOutput.Reset()
	p.err = cmd.RunFilesDeleteWithDependencies(p.coord, name, &commandOutput)
	return nil
}

func iCleanTheWorkingDirectory() error {
	p := getPipelineContext()
	commandOutput.Reset()
	p.err = cmd.RunFilesCleanWithDependencies(p.coord, &commandOutput)
	return nil
}

func iListTheWorkingDirectory() error {
	p := getPipelineContext()
	commandOutput.Reset()
	p.err = cmd.RunFilesListWithDependencies(p.coord, &commandOutput)
	return p.err
}

func theDeleteShouldFail() error {
	if getPipelineContext().err == nil {
		return fmt.Errorf("expected delete to fail")
	}
	return nil
}
