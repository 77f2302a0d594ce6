package graphapi

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ImageFromBytes turns raw file contents into an embedded data reference
// ("data:<mime>;base64,<payload>"). The declared content type is used when it
// names an image, otherwise the type is sniffed from the data. Anything that
// is not an image is rejected with ErrNotAnImage.
func ImageFromBytes(contentType string, data []byte) (string, error) {
	mt := mediaType(contentType)
	if !strings.HasPrefix(mt, "image/") {
		mt = mediaType(http.DetectContentType(data))
	}
	if !strings.HasPrefix(mt, "image/") {
		return "", fmt.Errorf("%w: %s", ErrNotAnImage, mt)
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ImageFromReader reads all of r and hands it to ImageFromBytes
func ImageFromReader(r io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return ImageFromBytes(contentType, data)
}

// ImageFromFile loads an image file from disk, guessing its type from the
// extension first.
func ImageFromFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	return ImageFromReader(file, mime.TypeByExtension(filepath.Ext(path)))
}

// ImageFromURL accepts a pasted image URL. Only strings starting with "http"
// are taken; everything else is ErrInvalidImageURL.
func ImageFromURL(s string) (string, error) {
	u := strings.TrimSpace(s)
	if !strings.HasPrefix(u, "http") {
		return "", ErrInvalidImageURL
	}
	return u, nil
}

// NormalizeImageRef accepts either form an image input node can hold: an
// embedded image data reference or an http(s) URL.
func NormalizeImageRef(s string) (string, error) {
	ref := strings.TrimSpace(s)
	if strings.HasPrefix(ref, "data:") {
		if _, _, err := DecodeDataURL(ref); err != nil {
			return "", err
		}
		return ref, nil
	}
	return ImageFromURL(ref)
}

// DecodeDataURL splits a base64 data reference into its media type and bytes.
func DecodeDataURL(ref string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return "", nil, errors.New("not a data url")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("malformed data url")
	}
	mt, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, errors.New("data url is not base64 encoded")
	}
	if !strings.HasPrefix(mt, "image/") {
		return "", nil, fmt.Errorf("%w: %s", ErrNotAnImage, mt)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	return mt, data, nil
}

// ExtensionForMediaType picks a file extension for saving an image, ".png"
// when nothing better is known.
func ExtensionForMediaType(mt string) string {
	switch mt {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".png"
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mt
}
