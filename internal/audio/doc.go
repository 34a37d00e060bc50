// Package audio plays synthesized WAV audio. Player plays in process through
// oto/v3, CommandPlayer hands files to an external program such as aplay,
// and FallbackPlayer combines the two.
package audio
