package download

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	errs "mediagrab/pkg/errors"
	"mediagrab/pkg/media"
)

// Sidecar is the metadata record written next to each downloaded file.
type Sidecar struct {
	URL          string    `json:"url"`
	OriginURL    string    `json:"origin_url,omitempty"`
	Title        string    `json:"title"`
	Platform     string    `json:"platform"`
	Kind         string    `json:"kind"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

func sidecarPath(mediaPath string) string {
	if i := strings.LastIndex(mediaPath, "."); i > strings.LastIndex(mediaPath, "/") {
		return mediaPath[:i] + ".json"
	}
	return mediaPath + ".json"
}

// WriteSidecar saves item metadata alongside the downloaded file.
func WriteSidecar(mediaPath string, item media.Item) error {
	sc := Sidecar{
		URL:          item.URL,
		OriginURL:    item.OriginURL,
		Title:        item.Title,
		Platform:     item.Platform,
		Kind:         string(item.Kind),
		DownloadedAt: time.Now().UTC(),
	}
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return errs.Wrap(errs.ErrorTypeParsing, "failed to encode sidecar", err)
	}
	if err := os.WriteFile(sidecarPath(mediaPath), data, 0o644); err != nil {
		return errs.Wrap(errs.ErrorTypeDownload, "failed to write sidecar", err)
	}
	return nil
}

// ReadSidecar loads the metadata record for a downloaded file.
func ReadSidecar(mediaPath string) (Sidecar, error) {
	var sc Sidecar
	data, err := os.ReadFile(sidecarPath(mediaPath))
	if err != nil {
		return sc, errs.Wrap(errs.ErrorTypeNotFound, "sidecar not found", err)
	}
	if err := json.Unmarshal(data, &sc); err != nil {
		return sc, errs.Wrap(errs.ErrorTypeParsing, "failed to decode sidecar", err)
	}
	return sc, nil
}
