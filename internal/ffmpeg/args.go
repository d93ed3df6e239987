// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// AudioTranscoder - FFmpeg 批量音频转换工具

package ffmpeg

// ArgsConfig holds the optional global engine flags
type ArgsConfig struct {
	LogLevel string
	Stats    bool
}

// Args builds the engine arguments for converting source into output:
//
//	-i <source> -y [-loglevel L] [-stats] <container flags> <encoder params> <output>
func Args(config ArgsConfig, source, output string, policy Policy) []string {
	args := []string{"-i", source, "-y"}
	if config.LogLevel != "" {
		args = append(args, "-loglevel", config.LogLevel)
	}
	if config.Stats {
		args = append(args, "-stats")
	}
	args = append(args, policy.ContainerFlags...)
	args = append(args, policy.EncoderParams...)
	args = append(args, output)
	return args
}
