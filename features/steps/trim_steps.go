//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"video-processing/cmd"
	"video-processing/domain/event"
	"video-processing/domain/video"
	"video-processing/infrastructure/ffmpeg"

	"github.com/cucumber/godog"
)

func InitializeTrimScenario(ctx *godog.ScenarioContext) {
	ctx.Step(`^I trim "([^"]*)" from "([^"]*)" to "([^"]*)"$`, iTrimFromTo)
	ctx.Step(`^I start trimming "([^"]*)" from "([^"]*)" to "([^"]*)"$`, iStartTrimmingFromTo)
	ctx.Step(`^I run the trim command on "([^"]*)" from "([^"]*)" to "([^"]*)"$`, iRunTheTrimCommandOnFromTo)
	ctx.Step(`^the trim should complete with duration (\d+)$`, theTrimShouldCompleteWithDuration)
	ctx.Step(`^the output file should be in the working directory with prefix "([^"]*)"$`, theOutputFileShouldBeInTheWorkingDirectoryWithPrefix)
	ctx.Step(`^the finish event should carry start (\d+), end (\d+) and duration (\d+)$`, theFinishEventShouldCarry)
	ctx.Step(`^ffmpeg should be called with arguments:$`, ffmpegShouldBeCalledWithArguments)
	ctx.Step(`^the command output should contain "([^"]*)"$`, theCommandOutputShouldContain)
}

// commandOutput holds the output of the last command run through cmd
var commandOutput bytes.Buffer

func iStartTrimmingFromTo(name, start, end string) error {
	p := getPipelineContext()
	opts, err := trimOptions(start, end)
	if err != nil {
		return err
	}
	h, err := p.coord.Trim(context.Background(), p.sourcePath(name), opts)
	p.track(h, err)
	return nil
}

func iTrimFromTo(name, start, end string) error {
	if err := iStartTrimmingFromTo(name, start, end); err != nil {
		return err
	}
	return getPipelineContext().wait()
}

func iRunTheTrimCommandOnFromTo(name, start, end string) error {
	p := getPipelineContext()
	commandOutput.Reset()
	p.err = cmd.RunTrimWithDependencies(context.Background(), p.coord, p.bus, p.sourcePath(name), start, end, false, false, &commandOutput)
	return nil
}

func theTrimShouldCompleteWithDuration(duration int) error {
	p := getPipelineContext()
	if p.err != nil {
		return fmt.Errorf("unexpected error: %v", p.err)
	}
	if p.result == nil || p.result.Trim == nil {
		return fmt.Errorf("expected a trim result, got %+v", p.result)
	}
	if p.result.Trim.Duration != int64(duration) {
		return fmt.Errorf("expected duration %d, got %d", duration, p.result.Trim.Duration)
	}
	return nil
}

func theOutputFileShouldBeInTheWorkingDirectoryWithPrefix(prefix string) error {
	p := getPipelineContext()
	path := ""
	switch {
	case p.result != nil && p.result.Trim != nil:
		path = p.result.Trim.OutputPath
	case p.result != nil && p.result.Compress != nil:
		path = p.result.Compress.OutputPath
	default:
		return fmt.Errorf("no completed result")
	}
	if !strings.HasPrefix(path, p.store.Dir()) {
		return fmt.Errorf("output %s is outside %s", path, p.store.Dir())
	}
	if base := path[len(p.store.Dir())+1:]; !strings.HasPrefix(base, prefix) {
		return fmt.Errorf("expected prefix %q, got %s", prefix, base)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("output missing: %v", err)
	}
	return nil
}

func theFinishEventShouldCarry(start, end, duration int) error {
	p := getPipelineContext()
	recorded, err := p.recorded()
	if err != nil {
		return err
	}
	for _, e := range recorded {
		if e.Kind != event.KindFinishTrimming {
			continue
		}
		payload, ok := e.Payload.(event.FinishTrimming)
		if !ok {
			return fmt.Errorf("unexpected payload %T", e.Payload)
		}
		if payload.StartTime != int64(start) || payload.EndTime != int64(end) || payload.Duration != int64(duration) {
			return fmt.Errorf("unexpected finish payload %+v", payload)
		}
		return nil
	}
	return fmt.Errorf("no finishTrimming event")
}

func ffmpegShouldBeCalledWithArguments(table *godog.Table) error {
	p := getPipelineContext()
	req, err := p.codec.lastRequest()
	if err != nil {
		return err
	}
	args, err := ffmpeg.BuildArgs(req, ffmpeg.DefaultSettings())
	if err != nil {
		return err
	}

	var expected []string
	for i, row := range table.Rows {
		if i == 0 {
			continue // Skip header row
		}
		value := strings.ReplaceAll(row.Cells[0].Value, "<source>", req.Job.SourcePath)
		value = strings.ReplaceAll(value, "<output>", req.OutputPath)
		expected = append(expected, value)
	}

	// the expected table lists the job-specific tail after the common flags
	if len(args) < len(expected) {
		return fmt.Errorf("expected at least %d args, got %v", len(expected), args)
	}
	tail := args[len(args)-len(expected):]
	if !reflect.DeepEqual(tail, expected) {
		return fmt.Errorf("expected args %v, got %v", expected, tail)
	}
	return nil
}

func theCommandOutputShouldContain(text string) error {
	if !strings.Contains(commandOutput.String(), text) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", text, commandOutput.String())
	}
	return nil
}

func trimOptions(start, end string) (video.TrimOptions, error) {
	startMs, err := video.ParsePosition(start)
	if err != nil {
		return video.TrimOptions{}, err
	}
	endMs, err := video.ParsePosition(end)
	if err != nil {
		return video.TrimOptions{}, err
	}
	return video.TrimOptions{StartTimeMs: startMs, EndTimeMs: endMs}, nil
}
