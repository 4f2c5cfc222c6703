//go:build integration

package steps

import (
	"context"
	"errors"
	"fmt"

	"video-processing/application/pipeline"

	"github.com/cucumber/godog"
)

func InitializeEditorScenario(ctx *godog.ScenarioContext) {
	ctx.Step(`^I open the editor on "([^"]*)"$`, iOpenTheEditorOn)
	ctx.Step(`^I try to open the editor on "([^"]*)"$`, iTryToOpenTheEditorOn)
	ctx.Step(`^I select the range "([^"]*)" to "([^"]*)" in the editor$`, iSelectTheRangeInTheEditor)
	ctx.Step(`^I start the range "([^"]*)" to "([^"]*)" in the editor$`, iStartTheRangeInTheEditor)
	ctx.Step(`^I press cancel in the editor$`, iPressCancelInTheEditor)
	ctx.Step(`^I close the editor$`, iCloseTheEditor)
	ctx.Step(`^the editor should be closed$`, theEditorShouldBeClosed)
}

func iOpenTheEditorOn(name string) error {
	p := getPipelineContext()
	s, err := p.coord.OpenEditor(p.sourcePath(name), pipeline.EditorOptions{})
	if err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	p.editor = s
	return nil
}

func iTryToOpenTheEditorOn(name string) error {
	p := getPipelineContext()
	_, p.err = p.coord.OpenEditor(p.sourcePath(name), pipeline.EditorOptions{})
	return nil
}

func iStartTheRangeInTheEditor(start, end string) error {
	p := getPipelineContext()
	if p.editor == nil {
		return fmt.Errorf("no editor open")
	}
	opts, err := trimOptions(start, end)
	if err != nil {
		return err
	}
	p.track(p.editor.Trim(context.Background(), opts.StartTimeMs, opts.EndTimeMs))
	return nil
}

func iSelectTheRangeInTheEditor(start, end string) error {
	if err := iStartTheRangeInTheEditor(start, end); err != nil {
		return err
	}
	return getPipelineContext().wait()
}

func iPressCancelInTheEditor() error {
	p := getPipelineContext()
	if p.editor == nil {
		return fmt.Errorf("no editor open")
	}
	if p.handle != nil {
		select {
		case <-p.codec.running:
		case <-p.handle.Done():
		}
	}
	if err := p.editor.Cancel(); err != nil {
		return err
	}
	if p.handle != nil {
		return p.wait()
	}
	return nil
}

func iCloseTheEditor() error {
	p := getPipelineContext()
	if p.editor == nil {
		return fmt.Errorf("no editor open")
	}
	return p.editor.Close()
}

func theEditorShouldBeClosed() error {
	p := getPipelineContext()
	if err := p.coord.CloseEditor(); !errors.Is(err, pipeline.ErrNoEditorOpen) {
		return fmt.Errorf("expected no open editor, CloseEditor returned %v", err)
	}
	return nil
}
