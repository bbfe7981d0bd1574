// Package opus turns raw PCM into Opus frames for Discord voice playback.
//
// Input is the transcoder's output: interleaved 32-bit float little-endian
// samples, 2 channels at 48 kHz. FrameReader cuts it into 20 ms frames,
// Encoder compresses each frame, and SendFrame hands it to a voice connection.
package opus
