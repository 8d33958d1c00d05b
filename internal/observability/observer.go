// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package observability provides structured operation logging for the
// arbitration engine components.
package observability

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Level controls how much the observer emits.
type Level int

const (
	LevelOff     Level = 0
	LevelMetrics Level = 1
	LevelDebug   Level = 2
)

// OperationRecord is one logged engine operation.
type OperationRecord struct {
	Component  string                 `json:"component"`
	Operation  string                 `json:"operation"`
	RequestID  string                 `json:"request_id,omitempty"`
	DocumentID string                 `json:"document_id,omitempty"`
	DurationMs int64                  `json:"duration_ms,omitempty"`
	Success    bool                   `json:"success"`
	Error      string                 `json:"error,omitempty"`
	SpanCount  int                    `json:"span_count,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// StandardObserver writes JSON operation records. Safe for concurrent
// use by batch workers.
type StandardObserver struct {
	level  Level
	writer io.Writer
	mu     sync.Mutex
}

// NewStandardObserver creates an observer. A nil writer defaults to
// stderr.
func NewStandardObserver(level Level, writer io.Writer) *StandardObserver {
	if writer == nil {
		writer = os.Stderr
	}
	return &StandardObserver{level: level, writer: writer}
}

// StartTiming returns a completion function that logs the operation
// with its duration.
func (o *StandardObserver) StartTiming(component, operation, documentID string) func(success bool, metadata map[string]interface{}) {
	start := time.Now()

	return func(success bool, metadata map[string]interface{}) {
		o.LogOperation(OperationRecord{
			Component:  component,
			Operation:  operation,
			DocumentID: documentID,
			DurationMs: time.Since(start).Milliseconds(),
			Success:    success,
			Metadata:   metadata,
		})
	}
}

// LogOperation emits one record. Metrics level counts silently; only
// debug level writes JSON.
func (o *StandardObserver) LogOperation(record OperationRecord) {
	if o.level == LevelOff {
		return
	}

	record.RequestID = "req-" + time.Now().Format("20060102-150405")

	if o.level == LevelDebug {
		o.mu.Lock()
		defer o.mu.Unlock()
		_ = json.NewEncoder(o.writer).Encode(record)
	}
}

// Warn emits a failure record regardless of debug level, used for
// degraded-but-continuing paths like config fallback.
func (o *StandardObserver) Warn(component, operation, message string) {
	if o.level == LevelOff {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	_ = json.NewEncoder(o.writer).Encode(OperationRecord{
		Component: component,
		Operation: operation,
		Success:   false,
		Error:     message,
	})
}
