package ingest

import (
	"bufio"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	ctx "context"

	"github.com/citypulse/media-services/constants"
)

// FFmpegEncoder runs ffmpeg with the pipeline's fixed single-pass
// compression profile. One profile for every asset: H.264/AAC, capped
// bitrate and frame rate, bounded dimensions (scale down only, aspect
// preserved), CRF quality target, fast-start container for progressive
// playback, "fast" preset favoring throughput over size.
type FFmpegEncoder struct {
	FFmpegPath  string
	FFprobePath string
}

func NewFFmpegEncoder(ffmpegPath, ffprobePath string) *FFmpegEncoder {
	return &FFmpegEncoder{
		FFmpegPath:  ffmpegPath,
		FFprobePath: ffprobePath,
	}
}

// BuildEncodeArgs constructs the complete ffmpeg argument slice for one
// transcode. Kept as a pure function so the profile is testable without
// running ffmpeg.
func BuildEncodeArgs(inputPath, outputPath string) []string {
	scale := fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease",
		constants.MaxWidth, constants.MaxHeight)
	return []string{
		"-hide_banner", "-nostdin", "-y",
		"-loglevel", "error",
		"-i", inputPath,
		"-vf", scale,
		"-c:v", constants.VideoCodec,
		"-preset", constants.EncoderPreset,
		"-crf", strconv.Itoa(constants.VideoCRF),
		"-maxrate", constants.VideoBitrateCap,
		"-bufsize", constants.VideoBitrateCap,
		"-r", strconv.Itoa(constants.MaxFrameRate),
		"-c:a", constants.AudioCodec,
		"-b:a", constants.AudioBitrate,
		"-movflags", "+faststart",
		"-progress", "pipe:1",
		"-nostats",
		outputPath,
	}
}

// Encode transcodes inputPath to outputPath, reporting progress through
// the observer as ffmpeg emits it. Returns ErrEncodeFailed (wrapped with
// detail) on non-zero exit or a broken progress stream. The context
// deadline kills the ffmpeg subprocess, which is the only protection
// against malformed input that stalls the encoder.
func (e *FFmpegEncoder) Encode(c ctx.Context, inputPath, outputPath string, observer ProgressObserver) error {
	duration, err := e.probeDuration(c, inputPath)
	if err != nil {
		// Progress will be coarse without a duration, but the
		// transcode itself can still succeed.
		duration = 0
	}

	args := BuildEncodeArgs(inputPath, outputPath)
	cmd := exec.CommandContext(c, e.FFmpegPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: stdout pipe: %v", ErrEncodeFailed, err)
	}
	var stderrBuf strings.Builder
	cmd.Stderr = &stderrBuf

	if err = cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}

	scanErr := consumeProgress(bufio.NewScanner(stdout), duration, observer)

	if err = cmd.Wait(); err != nil {
		return fmt.Errorf("%w: %v - %s", ErrEncodeFailed, err,
			strings.TrimSpace(stderrBuf.String()))
	}
	if scanErr != nil {
		return fmt.Errorf("%w: progress stream: %v", ErrEncodeFailed, scanErr)
	}
	if observer != nil {
		observer(100)
	}
	return nil
}

// probeDuration asks ffprobe for the input's duration in seconds, which
// turns ffmpeg's out_time_ms progress values into percentages.
func (e *FFmpegEncoder) probeDuration(c ctx.Context, inputPath string) (float64, error) {
	cmd := exec.CommandContext(c, e.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inputPath)
	output, err := cmd.Output()
	if err != nil {
		return 0, err
	}
	durationStr := strings.TrimSpace(string(output))
	if durationStr == "" {
		return 0, fmt.Errorf("ffprobe returned empty duration")
	}
	return strconv.ParseFloat(durationStr, 64)
}

// consumeProgress parses ffmpeg's key=value progress stream and feeds
// whole-percentage updates to the observer.
func consumeProgress(scanner *bufio.Scanner, duration float64, observer ProgressObserver) error {
	lastReported := -1
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "out_time_ms":
			if duration <= 0 || observer == nil {
				continue
			}
			outTimeMs, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				continue
			}
			// out_time_ms is actually microseconds.
			pct := int(math.Min(100, math.Max(0, (outTimeMs/1000000.0)/duration*100)))
			if pct > lastReported {
				lastReported = pct
				observer(pct)
			}
		case "progress":
			if parts[1] == "end" {
				return scanner.Err()
			}
		}
	}
	return scanner.Err()
}
