package driver

import (
	"encoding/json"
	"fmt"

	"phpc/internal/diag"
	"phpc/internal/observ"
	"phpc/internal/source"
)

type timingPayload struct {
	Kind string `json:"kind"`
	observ.Report
}

// appendTimingDiagnostic adds an OBS6001 info entry whose note is the JSON report.
// It is appended after truncation, so it is never dropped by the limit.
func appendTimingDiagnostic(bag *diag.Bag, payload timingPayload) {
	if bag == nil {
		return
	}
	if payload.Kind == "" {
		payload.Kind = "check"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	entry := diag.New(diag.SevInfo, diag.ObsTimings, source.NoSpan,
		fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS))
	entry = entry.WithNote(source.NoSpan, string(data))

	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(0)
	overflow.Add(entry)
	bag.Merge(overflow)
}
