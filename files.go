/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

var imageExtensions = map[string]string{
	".gif":  "image/gif",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

var soundExtensions = map[string]string{
	".flac": "audio/flac",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".wav":  "audio/wav",
}

func humanReadableSize(bytes int64) string {
	const unit int64 = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := unit, 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB",
		float64(bytes)/float64(div),
		"kMGTPE"[exp])
}

// listAssets returns the filenames under dir whose extensions appear in exts,
// sorted for stable output. Subdirectories are not walked.
func listAssets(dir string, exts map[string]string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := exts[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}

// serveAssetList answers with a JSON array of matching filenames, for the
// client to offer as wheel images or spin sound effects.
func serveAssetList(cfg *Config, errs chan<- error, exts map[string]string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		names, err := listAssets(cfg.assets, exts)
		if err != nil {
			http.Error(w, "asset listing failed", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		if err := json.NewEncoder(w).Encode(names); err != nil {
			errs <- err

			return
		}
	}
}

func serveAssetFile(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		fname := filepath.Base(p.ByName("asset"))

		data, err := os.ReadFile(filepath.Join(cfg.assets, fname))
		if err != nil {
			http.NotFound(w, r)

			return
		}

		ext := strings.ToLower(filepath.Ext(fname))
		contentType, ok := imageExtensions[ext]
		if !ok {
			contentType, ok = soundExtensions[ext]
		}
		if !ok {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		written, err := w.Write(data)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Asset %s (%s) to %s", fname, humanReadableSize(int64(written)), realIP(r))
	}
}

func registerAssetHandlers(cfg *Config, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/api/assets/images", serveAssetList(cfg, errs, imageExtensions))

	mux.GET(cfg.prefix+"/api/assets/sfx", serveAssetList(cfg, errs, soundExtensions))

	mux.GET(cfg.prefix+"/assets/*asset", serveAssetFile(cfg, errs))
}
