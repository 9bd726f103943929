package main

import (
	"encoding/json"
	"io"

	"mojifix/internal/observ"
	"mojifix/internal/repair"
)

type summaryPayload struct {
	Root    string         `json:"root"`
	DryRun  bool           `json:"dry_run"`
	Scanned int            `json:"scanned"`
	Fixed   int            `json:"fixed"`
	Files   []filePayload  `json:"files"`
	Timings *observ.Report `json:"timings,omitempty"`
}

type filePayload struct {
	Path     string `json:"path"`
	Encoding string `json:"encoding,omitempty"`
	Changed  bool   `json:"changed"`
	Error    string `json:"error,omitempty"`
}

func writeSummaryJSON(out io.Writer, summary repair.Summary, dryRun bool, timings *observ.Report) error {
	payload := summaryPayload{
		Root:    summary.Root,
		DryRun:  dryRun,
		Scanned: summary.Scanned,
		Fixed:   summary.Fixed,
		Files:   make([]filePayload, 0, len(summary.Results)),
		Timings: timings,
	}
	for _, res := range summary.Results {
		file := filePayload{Path: res.Path, Encoding: res.Encoding, Changed: res.Changed}
		if res.Err != nil {
			file.Error = res.Err.Error()
		}
		payload.Files = append(payload.Files, file)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
