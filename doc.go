// Package mediameta reads metadata from media container files.
//
// Images, audio and video containers are all trees of length-prefixed
// records: ISO boxes, RIFF chunks, JPEG segments. mediameta walks those
// trees with one traversal engine and lets a small handler per format
// decide which records to enter, which to decode and which to skip. The
// result is a Metadata value holding named Directories of tags.
//
// # Quick Start
//
//	md, err := mediameta.ExtractFile("IMG_0001.HEIC")
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, dir := range md.Directories() {
//		for _, tag := range dir.TagList() {
//			fmt.Printf("[%s] %s - %s\n", dir.Name, tag.Name, tag)
//		}
//	}
//
// # Supported Formats
//
//   - QuickTime MOV, MP4/M4A/M4B/3GP and Canon CR3 (ISO base media boxes)
//   - HEIF and AVIF still images
//   - WAV, AVI and WebP (RIFF chunks), AIFF and AIFF-C (IFF chunks)
//   - JPEG segments, including Exif, XMP, ICC and Photoshop blocks
//   - TIFF, BigTIFF and the CR2, ORF and RW2 raw variants (header only)
//
// Other recognized signatures (PNG, GIF, PSD, ...) yield only a "File
// Type" directory.
//
// # Errors
//
// Malformed content never aborts an extraction. Problems are recorded on
// the Directory that was being filled when they were found, and every
// record decoded before them is kept:
//
//	for _, msg := range md.Errors() {
//		log.Printf("warning: %s", msg)
//	}
//
// Returned errors are limited to I/O setup failures, context
// cancellation and, with WithStrictParsing, the first recorded problem.
//
// # Streams and Random Access
//
// ExtractFile and ExtractReaderAt seek past skipped records. Extract
// accepts a plain io.Reader and discards skipped bytes instead, so it
// works on pipes and network bodies but reads the whole input.
//
// # Concurrency
//
// Each call owns its state, so calls may run in parallel. ExtractMany
// does so with a bounded worker pool.
package mediameta
