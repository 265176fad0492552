package model

import (
	"strings"
	"time"
)

// StoreStatus is the observed operational status of a store at a poll instant.
type StoreStatus string

const (
	// StoreStatusActive indicates the store was operational when polled.
	StoreStatusActive StoreStatus = "active"
	// StoreStatusInactive indicates the store was not operational when polled.
	StoreStatusInactive StoreStatus = "inactive"
)

// ParseStoreStatus normalizes a raw feed value. Unknown values return false
// and are dropped by callers, matching the ingestion feed's behavior.
func ParseStoreStatus(raw string) (StoreStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active":
		return StoreStatusActive, true
	case "inactive":
		return StoreStatusInactive, true
	default:
		return "", false
	}
}

// Observation is a single timestamped status poll for a store. Observations
// are externally produced and immutable.
type Observation struct {
	StoreID   string      `json:"store_id"      db:"store_id"`
	Timestamp time.Time   `json:"timestamp_utc" db:"timestamp_utc"`
	Status    StoreStatus `json:"status"        db:"status"`
}

// BusinessHoursInterval is one local open interval for a store on a weekday.
// Weekday uses the feed's convention: 0 = Monday through 6 = Sunday.
// EndLocal at or before StartLocal means the interval wraps past midnight.
type BusinessHoursInterval struct {
	StoreID    string `json:"store_id"         db:"store_id"`
	Weekday    int    `json:"day_of_week"      db:"day_of_week"`
	StartLocal string `json:"start_time_local" db:"start_time_local"`
	EndLocal   string `json:"end_time_local"   db:"end_time_local"`
}

// StoreTimezone maps a store to its IANA zone name.
type StoreTimezone struct {
	StoreID  string `json:"store_id"     db:"store_id"`
	Timezone string `json:"timezone_str" db:"timezone_str"`
}

// UptimeRow is one artifact row: uptime/downtime per trailing window for a
// store. Hour values are minutes; day and week values are hours.
type UptimeRow struct {
	StoreID          string  `json:"store_id"`
	UptimeLastHour   float64 `json:"uptime_last_hour"`
	UptimeLastDay    float64 `json:"uptime_last_day"`
	UptimeLastWeek   float64 `json:"uptime_last_week"`
	DowntimeLastHour float64 `json:"downtime_last_hour"`
	DowntimeLastDay  float64 `json:"downtime_last_day"`
	DowntimeLastWeek float64 `json:"downtime_last_week"`
}
