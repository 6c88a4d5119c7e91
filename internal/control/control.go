// Package control defines the daemon's unix-socket protocol and the CLI
// commands that speak it. Each connection carries one newline-delimited JSON
// request and one JSON response.
package control

import "time"

type Request struct {
	Op string `json:"op"`
}

type Status struct {
	Running     bool         `json:"running"`
	Paused      bool         `json:"paused"`
	UptimeSec   float64      `json:"uptime_sec"`
	Backend     string       `json:"backend"`
	Trigger     string       `json:"trigger"`
	Sessions    int64        `json:"sessions"`
	Transcribed int64        `json:"transcribed"`
	Skipped     int64        `json:"skipped"`
	Errors      int64        `json:"errors"`
	Transcripts []Transcript `json:"transcripts"`
}

type SimpleResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type Transcript struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
