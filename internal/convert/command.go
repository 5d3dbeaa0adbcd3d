package convert

import (
	"strings"

	"m4b-studio/internal/domain"
)

// DefaultBitrate is the AAC bitrate used when settings leave it empty.
const DefaultBitrate = "128k"

// ConcatList renders the engine's concat demuxer list for the ordered
// inputs. Each entry appears exactly once, in playback order. Single
// quotes inside paths are escaped per the demuxer's quoting rules, so
// paths with shell metacharacters are carried literally.
func ConcatList(files []string) string {
	var b strings.Builder
	for _, file := range files {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(file, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

// EngineArgs builds the ffmpeg argument vector for one conversion.
// Deterministic: identical inputs always produce identical vectors.
// The ipod muxer is forced so the result is a valid .m4b container
// regardless of how the destination path is spelled.
func EngineArgs(listPath string, meta domain.AudiobookMeta, outputPath, bitrate string) []string {
	if strings.TrimSpace(bitrate) == "" {
		bitrate = DefaultBitrate
	}

	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-vn",
		"-c:a", "aac",
		"-b:a", bitrate,
		"-movflags", "+faststart",
		"-progress", "-",
	}

	if title := strings.TrimSpace(meta.Title); title != "" {
		args = append(args, "-metadata", "title="+title)
	}
	if author := strings.TrimSpace(meta.Author); author != "" {
		args = append(args, "-metadata", "artist="+author)
	}

	return append(args, "-f", "ipod", outputPath)
}
