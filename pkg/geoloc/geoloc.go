// Package geoloc resolves an IPv4 address to a coarse geographic
// location for use by the impossible-travel detection rule, and
// provides the great-circle distance calculation that rule needs.
package geoloc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/oschwald/geoip2-golang"
)

// Location is the geographic data derived from an IP address.
type Location struct {
	CountryCode string
	CountryName string
	City        string
	Latitude    float64
	Longitude   float64
}

// fallbackTimeout bounds the outbound HTTP lookup used when no local
// MaxMind database is configured or the address misses in it.
const fallbackTimeout = 2 * time.Second

const fallbackURLFormat = "http://ip-api.com/json/%s"

// Resolver looks up IP geolocation, preferring a local MaxMind
// database and falling back to a free HTTP API. Its lookups never
// return an error to callers: any lookup failure is coerced to
// "unknown location" per the spec's ResolverUnavailable policy.
type Resolver struct {
	reader     *geoip2.Reader
	httpClient *http.Client
	fallbackOn bool
}

// NewResolver opens the MaxMind city database at dbPath, if non-empty.
// A failure to open the database is not fatal: the resolver falls
// back to the HTTP API for every lookup. Pass enableHTTPFallback=false
// to disable the outbound network call entirely (e.g. in tests).
func NewResolver(dbPath string, enableHTTPFallback bool) *Resolver {
	r := &Resolver{
		httpClient: &http.Client{Timeout: fallbackTimeout},
		fallbackOn: enableHTTPFallback,
	}
	if dbPath == "" {
		return r
	}
	reader, err := geoip2.Open(dbPath)
	if err != nil {
		return r
	}
	r.reader = reader
	return r
}

// Close releases the MaxMind database handle, if one was opened. Safe
// to call on a Resolver that never opened a database.
func (r *Resolver) Close() error {
	if r.reader == nil {
		return nil
	}
	return r.reader.Close()
}

// GetLocation returns the geographic location for ip, or ok=false if
// the address is private/loopback, malformed, or cannot be resolved by
// either the local database or the HTTP fallback. It never panics or
// returns an error: resolution failure is "unknown location".
func (r *Resolver) GetLocation(ip string) (loc Location, ok bool) {
	if ip == "" || isPrivateOrLoopback(ip) {
		return Location{}, false
	}

	if r.reader != nil {
		if loc, ok := r.lookupMaxMind(ip); ok {
			return loc, true
		}
	}

	if r.fallbackOn {
		if loc, ok := r.lookupHTTP(ip); ok {
			return loc, true
		}
	}

	return Location{}, false
}

func (r *Resolver) lookupMaxMind(ip string) (Location, bool) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Location{}, false
	}
	record, err := r.reader.City(parsed)
	if err != nil {
		return Location{}, false
	}
	if record.Location.Latitude == 0 && record.Location.Longitude == 0 && record.Country.IsoCode == "" {
		return Location{}, false
	}
	return Location{
		CountryCode: record.Country.IsoCode,
		CountryName: record.Country.Names["en"],
		City:        record.City.Names["en"],
		Latitude:    record.Location.Latitude,
		Longitude:   record.Location.Longitude,
	}, true
}

type ipAPIResponse struct {
	Status      string  `json:"status"`
	CountryCode string  `json:"countryCode"`
	Country     string  `json:"country"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

func (r *Resolver) lookupHTTP(ip string) (Location, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), fallbackTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(fallbackURLFormat, ip), nil)
	if err != nil {
		return Location{}, false
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Location{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, false
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Location{}, false
	}
	if body.Status != "success" {
		return Location{}, false
	}

	return Location{
		CountryCode: body.CountryCode,
		CountryName: body.Country,
		City:        body.City,
		Latitude:    body.Lat,
		Longitude:   body.Lon,
	}, true
}

// isPrivateOrLoopback reports whether ip falls in 10.0.0.0/8,
// 172.16.0.0/12, 192.168.0.0/16, or 127.0.0.0/8, without performing
// any lookup.
func isPrivateOrLoopback(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	v4 := parsed.To4()
	if v4 == nil {
		return false
	}
	switch {
	case v4[0] == 10:
		return true
	case v4[0] == 172 && v4[1] >= 16 && v4[1] <= 31:
		return true
	case v4[0] == 192 && v4[1] == 168:
		return true
	case v4[0] == 127:
		return true
	}
	return false
}
