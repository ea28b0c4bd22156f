package common

import (
	"sync"
	"time"
)

// BaseMetrics provides common fields used across different metrics types
type BaseMetrics struct {
	TotalOperations int64
	SuccessfulOps   int64
	FailedOps       int64
	LastOperation   time.Time
	Mu              sync.RWMutex
}

// UpdateBaseMetrics updates common metrics fields
func (bm *BaseMetrics) UpdateBaseMetrics(start time.Time, success bool) {
	bm.Mu.Lock()
	defer bm.Mu.Unlock()

	bm.TotalOperations++
	if success {
		bm.SuccessfulOps++
	} else {
		bm.FailedOps++
	}
	bm.LastOperation = time.Now()
}

// GetBaseMetrics returns the common metrics as a map
func (bm *BaseMetrics) GetBaseMetrics() map[string]interface{} {
	bm.Mu.RLock()
	defer bm.Mu.RUnlock()

	return map[string]interface{}{
		"total_operations": bm.TotalOperations,
		"successful_ops":   bm.SuccessfulOps,
		"failed_ops":       bm.FailedOps,
		"last_operation":   bm.LastOperation,
	}
}

// FileOperationMetrics tracks performance for file operations
type FileOperationMetrics struct {
	BaseMetrics
	TotalBytesTransferred int64
}

// UpdateMetrics updates file operation metrics
func (fom *FileOperationMetrics) UpdateMetrics(start time.Time, success bool, bytesTransferred int64) {
	fom.UpdateBaseMetrics(start, success)

	if bytesTransferred > 0 {
		fom.Mu.Lock()
		fom.TotalBytesTransferred += bytesTransferred
		fom.Mu.Unlock()
	}
}

// GetMetrics returns file operation metrics as a map
func (fom *FileOperationMetrics) GetMetrics() map[string]interface{} {
	metrics := fom.GetBaseMetrics()

	fom.Mu.RLock()
	metrics["total_bytes_transferred"] = fom.TotalBytesTransferred
	fom.Mu.RUnlock()

	return metrics
}
