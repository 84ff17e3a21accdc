// Package wav provides minimal inspection of WAV container headers.
//
// It reads the fixed 44-byte canonical header to recover the sample
// format and derive playable duration without pulling in an audio
// codec dependency. It is not a decoder: only uncompressed PCM
// containers produced by the capture layer are supported.
package wav
