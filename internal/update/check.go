package update

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tapeview/tapeview/internal/network"
	"github.com/tapeview/tapeview/internal/version"
)

const checkInterval = 24 * time.Hour

// LastCheckInfo stores information about the last update check.
type LastCheckInfo struct {
	CheckedAt     time.Time `json:"checked_at"`
	LatestVersion string    `json:"latest_version"`
	ReleaseURL    string    `json:"release_url"`
	Available     bool      `json:"available"`
}

// ShouldCheck reports whether enough time has passed since the last
// check.
func ShouldCheck(dataDir string) bool {
	info, err := loadLastCheckInfo(dataDir)
	if err != nil {
		// If we can't load the info, we should check.
		return true
	}
	return time.Since(info.CheckedAt) > checkInterval
}

// SaveLastCheckInfo saves information about the last update check.
func SaveLastCheckInfo(dataDir string, info *Info) error {
	lastCheck := LastCheckInfo{
		CheckedAt:     time.Now(),
		LatestVersion: info.LatestVersion,
		ReleaseURL:    info.ReleaseURL,
		Available:     info.Available,
	}

	data, err := json.MarshalIndent(lastCheck, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(dataDir, "last-update-check.json")
	return os.WriteFile(path, data, 0o644)
}

func loadLastCheckInfo(dataDir string) (*LastCheckInfo, error) {
	path := filepath.Join(dataDir, "last-update-check.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var info LastCheckInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}

	return &info, nil
}

// CheckAsync performs an update check in the background and returns
// immediately. If an update is available it arrives on the channel;
// being offline or rate-limited is not worth reporting.
func CheckAsync(ctx context.Context, dataDir string) <-chan *Info {
	ch := make(chan *Info, 1)

	go func() {
		defer close(ch)

		if !ShouldCheck(dataDir) {
			if os.Getenv("TAPEVIEW_FORCE_UPDATE_NOTIFICATION") == "1" {
				lastInfo, err := loadLastCheckInfo(dataDir)
				if err == nil && lastInfo.Available {
					ch <- &Info{
						CurrentVersion: version.Version,
						LatestVersion:  lastInfo.LatestVersion,
						ReleaseURL:     lastInfo.ReleaseURL,
						Available:      true,
					}
				}
			}
			return
		}

		info, err := Check(ctx)
		if err != nil {
			if network.IsOfflineError(err) {
				slog.Debug("update check skipped, offline")
			} else {
				slog.Warn("update check failed", "error", err)
			}
			return
		}

		if err := SaveLastCheckInfo(dataDir, info); err != nil {
			slog.Warn("failed to save update check info", "error", err)
		}

		if info.Available {
			ch <- info
		}
	}()

	return ch
}
