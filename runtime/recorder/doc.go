// Package recorder controls live microphone capture.
//
// A Controller moves through Idle -> Capturing -> Finalizing -> Idle. Start
// acquires the microphone and buffers chunks as they arrive; Stop asks the
// stream to flush and returns a Completion that resolves to a single
// audio.Payload once every chunk has been drained. The microphone stream is
// released on every exit path, including capture that ends on its own.
//
// The PortAudio microphone is compiled only with the "portaudio" build tag.
// Without it NewDefaultMicrophone returns a microphone that always reports
// DeviceUnavailable.
package recorder
