//go:build integration

package steps

import (
	"context"
	"fmt"
	"strconv"

	"video-processing/domain/event"
	"video-processing/domain/video"

	"github.com/cucumber/godog"
)

type compressRequest struct {
	opts   video.CompressOptions
	preset string
}

var pendingCompress compressRequest

func InitializeCompressScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		pendingCompress = compressRequest{}
		return c, nil
	})

	ctx.Step(`^compress options:$`, compressOptions)
	ctx.Step(`^I compress "([^"]*)"$`, iCompress)
	ctx.Step(`^I compress "([^"]*)" with preset "([^"]*)"$`, iCompressWithPreset)
	ctx.Step(`^I start compressing "([^"]*)"$`, iStartCompressing)
	ctx.Step(`^the compression ratio should be ([\d.]+) percent$`, theCompressionRatioShouldBePercent)
	ctx.Step(`^the compressed size should be (\d+) of (\d+) bytes$`, theCompressedSizeShouldBeOfBytes)
	ctx.Step(`^the encoder should receive height (\d+) and crf (\d+)$`, theEncoderShouldReceiveHeightAndCrf)
}

func compressOptions(table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue // Skip header row
		}
		key, value := row.Cells[0].Value, row.Cells[1].Value
		opts := &pendingCompress.opts
		switch key {
		case "width", "height":
			n, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			if opts.Resolution == nil {
				opts.Resolution = &video.Resolution{}
			}
			if key == "width" {
				opts.Resolution.Width = n
			} else {
				opts.Resolution.Height = n
			}
		case "crf":
			n, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			opts.CRF = &n
		case "fps":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return err
			}
			opts.FPS = &f
		case "bitrate":
			opts.Bitrate = value
		case "audioBitrate":
			opts.AudioBitrate = value
		case "encoderPreset":
			opts.EncoderPreset = value
		default:
			return fmt.Errorf("unknown compress option %q", key)
		}
	}
	return nil
}

func iStartCompressing(name string) error {
	p := getPipelineContext()
	opts := pendingCompress.opts
	opts.InputPath = p.sourcePath(name)
	if pendingCompress.preset != "" {
		merged, err := video.ApplyPreset(pendingCompress.preset, opts)
		if err != nil {
			p.err = err
			return nil
		}
		opts = merged
	}
	p.track(p.coord.Compress(context.Background(), opts))
	return nil
}

func iCompress(name string) error {
	if err := iStartCompressing(name); err != nil {
		return err
	}
	return getPipelineContext().wait()
}

func iCompressWithPreset(name, preset string) error {
	pendingCompress.preset = preset
	return iCompress(name)
}

func completedCompress() (*video.CompressResult, error) {
	p := getPipelineContext()
	if p.err != nil {
		return nil, fmt.Errorf("unexpected error: %v", p.err)
	}
	if p.result == nil || p.result.Compress == nil {
		return nil, fmt.Errorf("expected a compress result, got %+v", p.result)
	}
	return p.result.Compress, nil
}

func theCompressionRatioShouldBePercent(ratio float64) error {
	r, err := completedCompress()
	if err != nil {
		return err
	}
	if r.RatioPercent() != ratio {
		return fmt.Errorf("expected ratio %.2f, got %.2f", ratio, r.RatioPercent())
	}

	recorded, err := getPipelineContext().recorded()
	if err != nil {
		return err
	}
	for _, e := range recorded {
		if payload, ok := e.Payload.(event.FinishCompressing); ok {
			if payload.CompressionRatio != ratio {
				return fmt.Errorf("finish event ratio %.2f, want %.2f", payload.CompressionRatio, ratio)
			}
			return nil
		}
	}
	return fmt.Errorf("no finishCompressing event")
}

func theCompressedSizeShouldBeOfBytes(compressed, original int) error {
	r, err := completedCompress()
	if err != nil {
		return err
	}
	if r.CompressedSize != int64(compressed) || r.OriginalSize != int64(original) {
		return fmt.Errorf("expected %d of %d bytes, got %d of %d", compressed, original, r.CompressedSize, r.OriginalSize)
	}
	return nil
}

func theEncoderShouldReceiveHeightAndCrf(height, crf int) error {
	req, err := getPipelineContext().codec.lastRequest()
	if err != nil {
		return err
	}
	opts := req.Job.Compress
	if opts.Resolution == nil || opts.Resolution.Height != height {
		return fmt.Errorf("expected height %d, got %+v", height, opts.Resolution)
	}
	if opts.CRF == nil || *opts.CRF != crf {
		return fmt.Errorf("expected crf %d, got %v", crf, opts.CRF)
	}
	return nil
}
