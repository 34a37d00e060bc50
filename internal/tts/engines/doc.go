// Package engines contains the speech synthesizers. VOICEVOX is an HTTP
// engine, eSpeak runs as a subprocess and Mock produces silence for dry
// runs. Each implements tts.Synthesizer.
package engines
