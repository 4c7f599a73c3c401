// Package monitor collects memory metrics for WSL, rate-limited so that
// frequent polling does not spawn a wsl.exe per request.
package monitor

import (
	"strconv"
	"strings"
)

// MemoryBreakdown is /proc/meminfo from inside WSL, in MiB.
type MemoryBreakdown struct {
	TotalMB     float64 `json:"totalMb"`
	UsedMB      float64 `json:"usedMb"`
	FreeMB      float64 `json:"freeMb"`
	AvailableMB float64 `json:"availableMb"`
	BuffersMB   float64 `json:"buffersMb"`
	CachedMB    float64 `json:"cachedMb"`
	SwapTotalMB float64 `json:"swapTotalMb"`
	SwapUsedMB  float64 `json:"swapUsedMb"`
}

// ParseMemInfo reads the kB values of /proc/meminfo. Used memory is total
// minus free, buffers and cache, or total minus available when that comes
// out negative.
func ParseMemInfo(text string) MemoryBreakdown {
	var m MemoryBreakdown
	var swapFree float64
	var haveSwapFree bool

	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		kb, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			kb = 0
		}
		mb := kb / 1024

		switch strings.TrimSuffix(fields[0], ":") {
		case "MemTotal":
			m.TotalMB = mb
		case "MemFree":
			m.FreeMB = mb
		case "MemAvailable":
			m.AvailableMB = mb
		case "Buffers":
			m.BuffersMB = mb
		case "Cached":
			m.CachedMB = mb
		case "SwapTotal":
			m.SwapTotalMB = mb
		case "SwapFree":
			swapFree, haveSwapFree = mb, true
		}
	}

	if haveSwapFree {
		m.SwapUsedMB = m.SwapTotalMB - swapFree
	}
	m.UsedMB = m.TotalMB - m.FreeMB - m.BuffersMB - m.CachedMB
	if m.UsedMB < 0 {
		m.UsedMB = m.TotalMB - m.AvailableMB
	}
	return m
}

// ParseMemoryValue converts a .wslconfig size such as "8GB", "512M" or a
// plain byte count to MiB.
func ParseMemoryValue(value string) (float64, bool) {
	v := strings.ToUpper(strings.TrimSpace(value))
	scale := 1.0
	switch {
	case strings.HasSuffix(v, "GB"):
		v, scale = strings.TrimSuffix(v, "GB"), 1024
	case strings.HasSuffix(v, "MB"):
		v = strings.TrimSuffix(v, "MB")
	case strings.HasSuffix(v, "G"):
		v, scale = strings.TrimSuffix(v, "G"), 1024
	case strings.HasSuffix(v, "M"):
		v = strings.TrimSuffix(v, "M")
	default:
		scale = 1.0 / (1024 * 1024)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return n * scale, true
}
