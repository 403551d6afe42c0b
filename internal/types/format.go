package types

// Format identifies a container format detected from a file's leading bytes.
type Format int

const (
	// FormatUnknown is returned when no signature matches.
	FormatUnknown Format = iota
	// FormatJPEG represents JPEG/JFIF/Exif images.
	FormatJPEG
	// FormatTIFF represents classic TIFF images.
	FormatTIFF
	// FormatBigTIFF represents 64-bit offset TIFF images.
	FormatBigTIFF
	// FormatCR2 represents Canon CR2 raw images (TIFF based).
	FormatCR2
	// FormatORF represents Olympus ORF raw images (TIFF based).
	FormatORF
	// FormatRW2 represents Panasonic RW2 raw images (TIFF based).
	FormatRW2
	// FormatPSD represents Photoshop documents.
	FormatPSD
	// FormatPNG represents PNG images.
	FormatPNG
	// FormatGIF represents GIF images.
	FormatGIF
	// FormatBMP represents Windows bitmaps.
	FormatBMP
	// FormatICO represents Windows icons.
	FormatICO
	// FormatPCX represents PCX images.
	FormatPCX
	// FormatWAV represents RIFF WAVE audio.
	FormatWAV
	// FormatAVI represents RIFF AVI video.
	FormatAVI
	// FormatWebP represents RIFF WebP images.
	FormatWebP
	// FormatRIFF represents a RIFF file with an unrecognized form type.
	FormatRIFF
	// FormatQuickTime represents QuickTime movies.
	FormatQuickTime
	// FormatMP4 represents ISO base media (MP4) files.
	FormatMP4
	// FormatM4A represents MPEG-4 audio files.
	FormatM4A
	// FormatM4B represents MPEG-4 audiobooks.
	FormatM4B
	// Format3GP represents 3GPP/3GPP2 multimedia files.
	Format3GP
	// FormatHEIF represents HEIF/HEIC images.
	FormatHEIF
	// FormatAVIF represents AV1 image files.
	FormatAVIF
	// FormatCR3 represents Canon CR3 raw images.
	FormatCR3
	// FormatFLAC represents FLAC audio.
	FormatFLAC
	// FormatMP3 represents MPEG audio, with or without ID3v2.
	FormatMP3
	// FormatOgg represents Ogg streams.
	FormatOgg
	// FormatAIFF represents AIFF/AIFC audio.
	FormatAIFF
)

type formatInfo struct {
	name       string
	longName   string
	mime       string
	extensions []string
}

var formatInfos = map[Format]formatInfo{
	FormatUnknown:   {"Unknown", "Unknown", "", nil},
	FormatJPEG:      {"JPEG", "Joint Photographic Experts Group", "image/jpeg", []string{".jpg", ".jpeg", ".jpe"}},
	FormatTIFF:      {"TIFF", "Tagged Image File Format", "image/tiff", []string{".tiff", ".tif"}},
	FormatBigTIFF:   {"BigTIFF", "Tagged Image File Format (64-bit)", "image/tiff", []string{".tiff", ".tif", ".btf"}},
	FormatCR2:       {"CR2", "Canon Camera Raw 2", "image/x-canon-cr2", []string{".cr2"}},
	FormatORF:       {"ORF", "Olympus Camera Raw", "image/x-olympus-orf", []string{".orf"}},
	FormatRW2:       {"RW2", "Panasonic Camera Raw", "image/x-panasonic-rw2", []string{".rw2"}},
	FormatPSD:       {"PSD", "Photoshop Document", "image/vnd.adobe.photoshop", []string{".psd"}},
	FormatPNG:       {"PNG", "Portable Network Graphics", "image/png", []string{".png"}},
	FormatGIF:       {"GIF", "Graphics Interchange Format", "image/gif", []string{".gif"}},
	FormatBMP:       {"BMP", "Device Independent Bitmap", "image/bmp", []string{".bmp"}},
	FormatICO:       {"ICO", "Windows Icon", "image/x-icon", []string{".ico"}},
	FormatPCX:       {"PCX", "PiCture eXchange", "image/x-pcx", []string{".pcx"}},
	FormatWAV:       {"WAV", "Waveform Audio File Format", "audio/vnd.wave", []string{".wav", ".wave"}},
	FormatAVI:       {"AVI", "Audio Video Interleaved", "video/vnd.avi", []string{".avi"}},
	FormatWebP:      {"WebP", "WebP", "image/webp", []string{".webp"}},
	FormatRIFF:      {"RIFF", "Resource Interchange File Format", "", nil},
	FormatQuickTime: {"MOV", "QuickTime Movie", "video/quicktime", []string{".mov", ".qt"}},
	FormatMP4:       {"MP4", "MPEG-4 Part 14", "video/mp4", []string{".mp4", ".m4v"}},
	FormatM4A:       {"M4A", "MPEG-4 Audio", "audio/mp4", []string{".m4a", ".m4p"}},
	FormatM4B:       {"M4B", "MPEG-4 Audiobook", "audio/mp4", []string{".m4b"}},
	Format3GP:       {"3GP", "3rd Generation Partnership Project", "video/3gpp", []string{".3gp", ".3g2"}},
	FormatHEIF:      {"HEIF", "High Efficiency Image File Format", "image/heif", []string{".heic", ".heif"}},
	FormatAVIF:      {"AVIF", "AV1 Image File Format", "image/avif", []string{".avif"}},
	FormatCR3:       {"CR3", "Canon Camera Raw 3", "image/x-canon-cr3", []string{".cr3"}},
	FormatFLAC:      {"FLAC", "Free Lossless Audio Codec", "audio/flac", []string{".flac"}},
	FormatMP3:       {"MP3", "MPEG Audio Layer III", "audio/mpeg", []string{".mp3"}},
	FormatOgg:       {"Ogg", "Ogg Container", "audio/ogg", []string{".ogg", ".oga", ".opus"}},
	FormatAIFF:      {"AIFF", "Audio Interchange File Format", "audio/aiff", []string{".aiff", ".aif", ".aifc"}},
}

func (f Format) info() formatInfo {
	if fi, ok := formatInfos[f]; ok {
		return fi
	}
	return formatInfos[FormatUnknown]
}

// String returns the short name of the format.
func (f Format) String() string {
	return f.info().name
}

// LongName returns the descriptive name of the format.
func (f Format) LongName() string {
	return f.info().longName
}

// MIMEType returns the media type, or "" when none is assigned.
func (f Format) MIMEType() string {
	return f.info().mime
}

// Extensions returns common file extensions for this format.
func (f Format) Extensions() []string {
	return f.info().extensions
}

// Known reports whether f is a recognized format.
func (f Format) Known() bool {
	return f != FormatUnknown
}
