package api

import (
	"github.com/ssargent/wpilogviewer/pkg/codec"
	"github.com/ssargent/wpilogviewer/pkg/index"
	"github.com/ssargent/wpilogviewer/pkg/query"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind           string
	Port           int
	APIKey         string // empty disables authentication
	AllowedOrigins []string
}

// ChannelIndex is the read side of an index.Index.
type ChannelIndex interface {
	Header() codec.Header
	IDs() []uint32
	Entries() []*index.Entry
	ActiveAt(ts uint64) []*index.Entry
	EntryAt(id uint32, ts uint64) (*index.Entry, bool)
	StartTimestamps(id uint32) []uint64
}

// HeaderResponse describes the loaded log.
type HeaderResponse struct {
	Version        string `json:"version"`
	ExtraHeader    string `json:"extra_header"`
	Bytes          int64  `json:"bytes"`
	ControlRecords uint64 `json:"control_records"`
	ValueRecords   uint64 `json:"value_records"`
	Digest         string `json:"digest"`
}

// ChannelResponse describes one channel incarnation.
type ChannelResponse struct {
	ID       uint32  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Start    uint64  `json:"start"`
	End      *uint64 `json:"end,omitempty"`
	Metadata string  `json:"metadata"`
	Records  int     `json:"records"`
}

// RecordResponse is one timestamped value.
type RecordResponse struct {
	Timestamp uint64 `json:"timestamp"`
	Kind      string `json:"kind"`
	Value     any    `json:"value"`
}

// ValuesResponse is the value history of one incarnation.
type ValuesResponse struct {
	Channel ChannelResponse  `json:"channel"`
	Records []RecordResponse `json:"records"`
}

// StatsResponse summarises the numeric values of one incarnation.
type StatsResponse struct {
	Channel ChannelResponse `json:"channel"`
	Stats   query.Stats     `json:"stats"`
}
