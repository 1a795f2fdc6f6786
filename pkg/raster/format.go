package raster

import (
	"github.com/disintegration/imaging"
)

// Format describes an image encoding.
type Format struct {
	MIME string // e.g. "image/png"
	Ext  string // Canonical extension with dot, e.g. ".png"
}

// String returns the MIME type.
func (f Format) String() string { return f.MIME }

var (
	FormatPNG  = Format{MIME: "image/png", Ext: ".png"}
	FormatJPEG = Format{MIME: "image/jpeg", Ext: ".jpg"}
	FormatGIF  = Format{MIME: "image/gif", Ext: ".gif"}
	FormatBMP  = Format{MIME: "image/bmp", Ext: ".bmp"}
	FormatTIFF = Format{MIME: "image/tiff", Ext: ".tiff"}
	FormatWebP = Format{MIME: "image/webp", Ext: ".webp"}
)

// formats maps sniffed MIME types to known formats.
var formats = map[string]Format{
	FormatPNG.MIME:   FormatPNG,
	FormatJPEG.MIME:  FormatJPEG,
	FormatGIF.MIME:   FormatGIF,
	FormatBMP.MIME:   FormatBMP,
	"image/x-ms-bmp": FormatBMP,
	FormatTIFF.MIME:  FormatTIFF,
	FormatWebP.MIME:  FormatWebP,
}

// encoders maps formats that can be re-encoded to their imaging encoder.
var encoders = map[Format]imaging.Format{
	FormatPNG:  imaging.PNG,
	FormatJPEG: imaging.JPEG,
	FormatGIF:  imaging.GIF,
	FormatBMP:  imaging.BMP,
	FormatTIFF: imaging.TIFF,
}

// LookupFormat returns the format for a MIME type.
func LookupFormat(mime string) (Format, bool) {
	f, ok := formats[mime]
	return f, ok
}

// CanEncode reports whether variants can be produced in format f.
func CanEncode(f Format) bool {
	_, ok := encoders[f]
	return ok
}
