package api

import (
	"github.com/pulsewire/pulsewire/app/scheduler"
)

type SourceStats struct {
	scheduler.EntryStatus
	RecordCount int `json:"record_count"`
}

type StatsResponse struct {
	Sources []SourceStats `json:"sources"`
}
