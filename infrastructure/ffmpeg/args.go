package ffmpeg

import (
	"fmt"
	"strconv"

	"video-processing/domain/video"
)

// commonArgs make ffmpeg report machine-readable progress on stdout and
// prefix every stderr line with its level
var commonArgs = []string{
	"-hide_banner",
	"-nostdin",
	"-loglevel", "level+info",
	"-progress", "pipe:1",
	"-nostats",
}

// Settings are the encoder choices that are not per-job options
type Settings struct {
	VideoCodec string
	AudioCodec string
}

// DefaultSettings encode H.264 video with AAC audio
func DefaultSettings() Settings {
	return Settings{VideoCodec: "libx264", AudioCodec: "aac"}
}

// BuildArgs returns the ffmpeg arguments for one job
func BuildArgs(req video.EncodeRequest, s Settings) ([]string, error) {
	if req.Job == nil {
		return nil, fmt.Errorf("encode request has no job")
	}

	switch req.Job.Kind {
	case video.KindTrim:
		return trimArgs(req), nil
	case video.KindCompress:
		return compressArgs(req, s)
	default:
		return nil, fmt.Errorf("unsupported job kind %q", req.Job.Kind)
	}
}

func trimArgs(req video.EncodeRequest) []string {
	opts := req.Job.Trim
	args := append([]string{}, commonArgs...)
	return append(args,
		"-i", req.Job.SourcePath,
		"-ss", video.TimestampFromMilliseconds(opts.StartTimeMs).String(),
		"-to", video.TimestampFromMilliseconds(opts.EndTimeMs).String(),
		"-c", "copy",
		"-y", // the output path is a reservation created by the file store
		req.OutputPath,
	)
}

func compressArgs(req video.EncodeRequest, s Settings) ([]string, error) {
	opts := req.Job.Compress
	args := append([]string{}, commonArgs...)
	args = append(args, "-i", req.Job.SourcePath, "-c:v", s.VideoCodec)

	if opts.EncoderPreset != "" {
		args = append(args, "-preset", opts.EncoderPreset)
	}

	if opts.CRF != nil {
		args = append(args, "-crf", strconv.Itoa(*opts.CRF))
	}
	if opts.Bitrate != "" {
		bits, err := video.ParseBitrate(opts.Bitrate)
		if err != nil {
			return nil, err
		}
		if opts.CRF == nil {
			args = append(args, "-b:v", opts.Bitrate)
		}
		// caps a CRF encode, or bounds an average bitrate one
		args = append(args,
			"-maxrate", opts.Bitrate,
			"-bufsize", strconv.FormatInt(bits*2, 10),
		)
	}

	if opts.Resolution != nil {
		w, h := opts.Resolution.Derive(req.Source.Width, req.Source.Height)
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", w, h))
	}
	if opts.FPS != nil {
		args = append(args, "-r", strconv.FormatFloat(*opts.FPS, 'f', -1, 64))
	}

	args = append(args, "-c:a", s.AudioCodec)
	if opts.AudioBitrate != "" {
		args = append(args, "-b:a", opts.AudioBitrate)
	}

	return append(args,
		"-movflags", "+faststart",
		"-y",
		req.OutputPath,
	), nil
}
