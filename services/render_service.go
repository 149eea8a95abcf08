package services

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"shorts_backend/models"
)

// FFmpegRenderer cuts one segment out of the source video and converts
// it to a 9:16 1080x1920 vertical clip.
type FFmpegRenderer struct {
	ffmpeg  string
	ffprobe string
}

func NewFFmpegRenderer(ffmpegPath, ffprobePath string) *FFmpegRenderer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegRenderer{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (r *FFmpegRenderer) RenderClip(ctx context.Context, videoPath string, segment models.ClipSegment, outputPath string) error {
	cmd := exec.CommandContext(ctx, r.ffmpeg,
		"-y",
		"-ss", fmtSeconds(segment.StartTime),
		"-to", fmtSeconds(segment.EndTime),
		"-i", videoPath,
		// center-crop to 9:16, then scale to the standard vertical frame
		"-vf", "crop=min(iw\\,ih*9/16):ih,scale=1080:1920",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "128k",
		outputPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg render clip: %w\n%s", err, string(b))
	}
	return nil
}

func (r *FFmpegRenderer) ProbeDuration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, r.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
