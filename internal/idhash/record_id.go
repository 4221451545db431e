// Package idhash derives deterministic journal record IDs.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Record kinds mixed into the hash so analysis and sentiment IDs never collide.
const (
	KindAnalysis  = "analysis"
	KindSentiment = "sentiment"
)

// ComputeRecordID computes a deterministic record ID using SHA256.
// Formula: SHA256(kind|mint|timestamp_ms)
// Returns hex-encoded hash (64 characters).
func ComputeRecordID(kind, mint string, timestampMs int64) string {
	data := fmt.Sprintf("%s|%s|%d", kind, mint, timestampMs)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeAnalysisID returns the ID of the analysis of mint checked at checkedAtMs.
func ComputeAnalysisID(mint string, checkedAtMs int64) string {
	return ComputeRecordID(KindAnalysis, mint, checkedAtMs)
}

// ComputeSentimentID returns the ID of the sentiment report for mint generated at generatedAtMs.
func ComputeSentimentID(mint string, generatedAtMs int64) string {
	return ComputeRecordID(KindSentiment, mint, generatedAtMs)
}
