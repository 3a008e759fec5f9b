// Package fluorsim simulates the acquisition of a fluorescence microscopy
// image: diffraction blur, photon shot noise, detector gain, a fixed offset,
// electronic read noise and clipping to a finite bit depth.
//
// The pipeline operates in place on caller-owned single-channel float buffers
// and is reproducible given a seeded variate source. It has no notion of
// files, displays or UI; image decoding and display rescaling live at the
// boundary (see FromImage, DecodeTIFF, EncodeEXR and cmd/fluorsim).
package fluorsim
