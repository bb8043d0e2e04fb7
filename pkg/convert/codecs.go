package convert

// Decoders register themselves with the image package; image.Decode picks
// one by sniffing the file header, so the extension only drives globbing.
import (
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/jbuchbinder/gopnm"
	_ "github.com/sergeymakinen/go-bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)
