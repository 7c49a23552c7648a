package flight

// FilterByAltitude returns the flights whose best direct altitude lies in
// [minAltitude, maxAltitude] meters. Flights without any direct altitude
// measurement are excluded.
func FilterByAltitude(flights []Flight, minAltitude, maxAltitude float64) []Flight {
	filtered := make([]Flight, 0, len(flights))
	for i := range flights {
		alt, ok := flights[i].BestAltitude()
		if ok && alt >= minAltitude && alt <= maxAltitude {
			filtered = append(filtered, flights[i])
		}
	}
	return filtered
}

// FilterByAirline returns the flights whose callsign starts with any of the
// given airline codes (the 2-3 letter prefix of the callsign).
func FilterByAirline(flights []Flight, airlineCodes []string) []Flight {
	filtered := make([]Flight, 0, len(flights))
	for i := range flights {
		callsign := flights[i].Callsign
		if callsign == "" {
			continue
		}
		for _, code := range airlineCodes {
			if len(callsign) >= len(code) && callsign[:len(code)] == code {
				filtered = append(filtered, flights[i])
				break
			}
		}
	}
	return filtered
}

// RangeStats holds min/max/average over one reported quantity.
type RangeStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// Statistics summarizes a set of flights for presentation.
type Statistics struct {
	TotalFlights  int            `json:"total_flights"`
	AltitudeStats RangeStats     `json:"altitude_stats"`
	VelocityStats RangeStats     `json:"velocity_stats"`
	Countries     map[string]int `json:"countries"`
}

// ComputeStatistics aggregates altitude, velocity and origin-country
// information over a set of flights. Flights missing a quantity simply do
// not contribute to that quantity's stats.
func ComputeStatistics(flights []Flight) Statistics {
	stats := Statistics{
		TotalFlights: len(flights),
		Countries:    make(map[string]int),
	}
	if len(flights) == 0 {
		return stats
	}

	var altitudes, velocities []float64
	for i := range flights {
		if alt, ok := flights[i].BestAltitude(); ok {
			altitudes = append(altitudes, alt)
		}
		if flights[i].Velocity != nil {
			velocities = append(velocities, *flights[i].Velocity)
		}
		stats.Countries[flights[i].OriginCountry]++
	}

	stats.AltitudeStats = rangeStats(altitudes)
	stats.VelocityStats = rangeStats(velocities)
	return stats
}

func rangeStats(values []float64) RangeStats {
	if len(values) == 0 {
		return RangeStats{}
	}

	rs := RangeStats{Min: values[0], Max: values[0]}
	sum := 0.0
	for _, v := range values {
		if v < rs.Min {
			rs.Min = v
		}
		if v > rs.Max {
			rs.Max = v
		}
		sum += v
	}
	rs.Avg = sum / float64(len(values))
	return rs
}
