// Package carrier adapts images and PCM audio to the lsb codec.
//
// Both media expose the same BitCarrier view: a flat []int of amplitude
// units (R, G and B channel values for images, interleaved samples for
// audio) and a way to rebuild the medium from modified units.
//
// Images are always written as PNG. Audio is written as uncompressed WAV in
// the format it was read in; inputs that are not PCM WAV go through an
// external transcoder first.
//
// Acquirer supplies image carriers when the caller has none: it tries a
// rotating list of remote sources and falls back to a generated nebula.
package carrier
