// package formatter renders snapshot documents as a shareable HTML report
// and an SVG share card.
package formatter

import (
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/desertthunder/xbr/internal/shared"
)

//go:embed templates
var templateFS embed.FS

var (
	reportTemplate = template.Must(template.New("report.html.tmpl").Funcs(funcMap).ParseFS(templateFS, "templates/report.html.tmpl"))
	cardTemplate   = template.Must(template.New("card.svg.tmpl").Funcs(funcMap).ParseFS(templateFS, "templates/card.svg.tmpl"))
)

var funcMap = template.FuncMap{
	"hours":  shared.FormatHours,
	"number": shared.FormatNumber,
}

// ImageFetcher resolves an image URL to a data URI for embedding, or ""
// when the image is unavailable. Rendering never fails on a missing image.
type ImageFetcher func(url string) string

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, string, error) {
	if url == "" {
		return nil, "", fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return imageData, contentType, nil
}

// FetchImageDataURI downloads an image and encodes it as a base64 data URI.
// Returns "" on any failure so the card renders without the image.
func FetchImageDataURI(url string) string {
	data, contentType, err := DownloadImage(url)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
}

// formatDate renders an ISO timestamp as dd/mm/yyyy, or "" when absent.
func formatDate(value string) string {
	t, ok := shared.ParseISOTime(value)
	if !ok {
		return ""
	}
	return t.Format("02/01/2006")
}

// truncate shortens a string for tight layouts. Cuts on rune boundaries so
// accented names stay valid UTF-8.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
