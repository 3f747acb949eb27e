package memmon

// Unavailable is the in-band value of a metric whose probe could not be read.
const Unavailable = -1.0

const bytesPerMB = 1024.0 * 1024.0

// Usage is the running memory record kept by a Monitor. All values are in
// megabytes; a field holding Unavailable was not measurable at the time of
// its last update.
type Usage struct {
	// System memory (resident set of this process)
	PeakSystemMB    float64 `json:"peak_system_mb"`
	InitialSystemMB float64 `json:"initial_system_mb"`
	CurrentSystemMB float64 `json:"current_system_mb"`

	// GPU memory (active device)
	PeakGPUMB    float64 `json:"peak_gpu_mb"`
	InitialGPUMB float64 `json:"initial_gpu_mb"`
	CurrentGPUMB float64 `json:"current_gpu_mb"`
	GPUFreeMB    float64 `json:"gpu_free_mb"`
	GPUTotalMB   float64 `json:"gpu_total_mb"`
}

// DeviceReading is one atomic device memory query.
type DeviceReading struct {
	UsedMB  float64
	FreeMB  float64
	TotalMB float64
}

// UnavailableDevice is the reading reported when the device query fails.
func UnavailableDevice() DeviceReading {
	return DeviceReading{UsedMB: Unavailable, FreeMB: Unavailable, TotalMB: Unavailable}
}

// DeviceReadingFromBytes converts a free/total byte pair into a reading.
// Used memory is always derived as total - free.
func DeviceReadingFromBytes(free, total uint64) DeviceReading {
	return DeviceReadingFromMB(float64(free)/bytesPerMB, float64(total)/bytesPerMB)
}

// DeviceReadingFromMB builds a reading from free and total megabytes.
func DeviceReadingFromMB(free, total float64) DeviceReading {
	return DeviceReading{
		UsedMB:  total - free,
		FreeMB:  free,
		TotalMB: total,
	}
}

// Valid reports whether every field of the reading was measured.
func (r DeviceReading) Valid() bool {
	return IsValid(r.UsedMB) && IsValid(r.FreeMB) && IsValid(r.TotalMB)
}

// IsValid reports whether v is a measured value rather than Unavailable.
// Any negative value is treated as "no information".
func IsValid(v float64) bool {
	return v >= 0
}

// SystemDelta is the growth of host memory from the initial reading to the peak.
func (u Usage) SystemDelta() float64 {
	return u.PeakSystemMB - u.InitialSystemMB
}

// GPUDelta is the growth of used device memory from the initial reading to the peak.
func (u Usage) GPUDelta() float64 {
	return u.PeakGPUMB - u.InitialGPUMB
}

// GPUUtilization returns peak used device memory as a percentage of device
// capacity. ok is false when the total or the peak is unknown or the total is zero.
func (u Usage) GPUUtilization() (pct float64, ok bool) {
	if !IsValid(u.GPUTotalMB) || u.GPUTotalMB == 0 || !IsValid(u.PeakGPUMB) {
		return 0, false
	}
	return u.PeakGPUMB / u.GPUTotalMB * 100, true
}
