// Package storage keeps the uploaded avatars and PDF attachments on the local disk.
package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp" // register decoder

	"github.com/Jaimin17/Zenith-School-Backend/core"
)

const (
	imagesDir = "images"
	pdfsDir   = "pdfs"

	jpegQuality    = 85
	maxPDFTitleLen = 50
)

var (
	ErrEmptyFile    = core.NewValidationError(nil, core.FieldError{Field: "file", Error: "file is empty"})
	ErrNotAnImage   = core.NewValidationError(nil, core.FieldError{Field: "file", Error: "file is not a valid image"})
	ErrNotAPDF      = core.NewValidationError(nil, core.FieldError{Field: "file", Error: "file is not a valid PDF"})
	ErrFileTooLarge = core.NewValidationErrorf("file is too large")
	ErrImageTooBig  = core.NewValidationError(nil, core.FieldError{Field: "file", Error: "image dimensions are too large"})

	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	pdfMagic    = []byte("%PDF")
)

type Local struct {
	conf   core.UploadConfig
	logger core.Logger
	now    func() time.Time
}

var _ core.FileStorage = (*Local)(nil) // interface compliance check

func NewLocal(conf core.UploadConfig, logger core.Logger) *Local {
	return &Local{conf: conf, logger: logger, now: time.Now}
}

// Path returns the absolute path of a stored file.
func (s *Local) Path(name string) string {
	return filepath.Join(s.conf.Dir, filepath.FromSlash(name))
}

func (s *Local) SaveImage(role, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !s.allowedImageExt(ext) {
		return "", core.NewValidationError(nil, core.FieldError{
			Field: "file",
			Error: "unsupported image type, allowed: " + strings.Join(s.conf.AllowedImageExts, ", "),
		})
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if s.conf.MaxImageSize > 0 && int64(len(data)) > s.conf.MaxImageSize {
		return "", ErrFileTooLarge
	}

	// the header is enough to size the decoded bitmap
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", ErrNotAnImage
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", ErrNotAnImage
	}
	if s.conf.MaxImagePixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(s.conf.MaxImagePixels) {
		return "", ErrImageTooBig
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", ErrNotAnImage
	}
	img := flatten(imaging.Fit(src, s.maxWidth(src), s.maxHeight(src), imaging.Lanczos))

	var buf bytes.Buffer
	if err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", errors.Wrap(err, "encoding avatar")
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name := path.Join(imagesDir, role, s.fileName(role, base, ".jpg", 0))
	return name, s.write(name, buf.Bytes())
}

func (s *Local) SavePDF(role, title string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if s.conf.MaxPDFSize > 0 && int64(len(data)) > s.conf.MaxPDFSize {
		return "", ErrFileTooLarge
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return "", ErrNotAPDF
	}
	name := path.Join(pdfsDir, role, s.fileName(role, title, ".pdf", maxPDFTitleLen))
	return name, s.write(name, data)
}

func (s *Local) Remove(name string) {
	if name == "" {
		return
	}
	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn(fmt.Sprintf("removing %s: %v", name, err), err)
	}
}

func (s *Local) write(name string, data []byte) error {
	fp := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return errors.Wrap(err, "creating upload directory")
	}
	return errors.Wrap(os.WriteFile(fp, data, 0o644), "writing upload")
}

// fileName builds {role}_{sanitized}_{YYYYmmdd_HHMMSS}_{8 hex}{ext}.
func (s *Local) fileName(role, base, ext string, maxLen int) string {
	sanitized := Sanitize(base)
	if maxLen > 0 && len(sanitized) > maxLen {
		sanitized = sanitized[:maxLen]
	}
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%s_%s%s", role, sanitized, s.now().UTC().Format("20060102_150405"), suffix, ext)
}

func (s *Local) allowedImageExt(ext string) bool {
	for _, allowed := range s.conf.AllowedImageExts {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

// maxWidth and maxHeight never upscale.
func (s *Local) maxWidth(img image.Image) int {
	w := img.Bounds().Dx()
	if s.conf.ImageMaxWidth > 0 && w > s.conf.ImageMaxWidth {
		return s.conf.ImageMaxWidth
	}
	return w
}

func (s *Local) maxHeight(img image.Image) int {
	h := img.Bounds().Dy()
	if s.conf.ImageMaxHeight > 0 && h > s.conf.ImageMaxHeight {
		return s.conf.ImageMaxHeight
	}
	return h
}

// Sanitize keeps [A-Za-z0-9_-] and collapses every other run of characters to "_".
func Sanitize(s string) string {
	s = unsafeChars.ReplaceAllString(strings.TrimSpace(s), "_")
	if s == "" || s == "_" {
		return "file"
	}
	return s
}

// flatten draws img onto a white background, dropping transparency.
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	return imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), img, image.Point{}, 1.0)
}
