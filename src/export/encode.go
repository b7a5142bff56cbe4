package export

import (
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
)

// Options tunes the lossy and palette encoders.
type Options struct {
	JPEGQuality int
	GIFColors   int
}

// DefaultOptions returns the encoder settings used when none are configured.
func DefaultOptions() Options {
	return Options{JPEGQuality: 90, GIFColors: 256}
}

func (o Options) normalized() Options {
	if o.JPEGQuality < 1 || o.JPEGQuality > 100 {
		o.JPEGQuality = 90
	}
	if o.GIFColors < 2 || o.GIFColors > 256 {
		o.GIFColors = 256
	}
	return o
}

// Encode writes img to w using the encoder for f.
func Encode(w io.Writer, img image.Image, f Format, opts Options) error {
	opts = opts.normalized()
	switch f {
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: opts.JPEGQuality})
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.DefaultCompression}
		return enc.Encode(w, img)
	case FormatGIF:
		return gif.Encode(w, img, &gif.Options{NumColors: opts.GIFColors, Drawer: draw.FloydSteinberg})
	default:
		return fmt.Errorf("unsupported format %v", f)
	}
}
