// Package geo provides the geographic contexts and FX rates used to fill the
// geo/currency envelope of generated records.
//
// A context is always passed explicitly to the generator; there is no
// process-wide "current" context.
package geo

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownContext is returned by Lookup for an unregistered context name.
var ErrUnknownContext = errors.New("unknown geographic context")

// DefaultContext is used when the caller names none.
const DefaultContext = "global"

// City is a sampling point for the geo envelope.
type City struct {
	Name    string
	Region  string
	Country string // ISO 3166-1 alpha-2
	Lat     float64
	Lon     float64
}

// Context describes a country or region the generator can localize to.
type Context struct {
	Name        string
	Region      string
	CountryCode string
	Currency    string
	Timezone    string
	PhonePrefix string
	Cities      []City
}

var contexts = map[string]Context{
	"global": {
		Name: "global", Region: "Global", CountryCode: "US", Currency: "USD",
		Timezone: "UTC", PhonePrefix: "+1",
		Cities: []City{
			{Name: "San Francisco", Region: "CA", Country: "US", Lat: 37.7749, Lon: -122.4194},
			{Name: "Quito", Region: "Pichincha", Country: "EC", Lat: -0.1807, Lon: -78.4678},
			{Name: "Madrid", Region: "Madrid", Country: "ES", Lat: 40.4168, Lon: -3.7038},
			{Name: "Toronto", Region: "Ontario", Country: "CA", Lat: 43.6532, Lon: -79.3832},
			{Name: "Berlin", Region: "Berlin", Country: "DE", Lat: 52.5200, Lon: 13.4050},
		},
	},
	"ecuador": {
		Name: "ecuador", Region: "Latin America", CountryCode: "EC", Currency: "USD",
		Timezone: "America/Guayaquil", PhonePrefix: "+593",
		Cities: []City{
			{Name: "Quito", Region: "Pichincha", Lat: -0.1807, Lon: -78.4678},
			{Name: "Guayaquil", Region: "Guayas", Lat: -2.1710, Lon: -79.9224},
			{Name: "Cuenca", Region: "Azuay", Lat: -2.9001, Lon: -79.0059},
			{Name: "Ambato", Region: "Tungurahua", Lat: -1.2491, Lon: -78.6168},
		},
	},
	"colombia": {
		Name: "colombia", Region: "Latin America", CountryCode: "CO", Currency: "COP",
		Timezone: "America/Bogota", PhonePrefix: "+57",
		Cities: []City{
			{Name: "Bogota", Region: "Cundinamarca", Lat: 4.7110, Lon: -74.0721},
			{Name: "Medellin", Region: "Antioquia", Lat: 6.2442, Lon: -75.5812},
			{Name: "Cali", Region: "Valle del Cauca", Lat: 3.4516, Lon: -76.5320},
		},
	},
	"mexico": {
		Name: "mexico", Region: "Latin America", CountryCode: "MX", Currency: "MXN",
		Timezone: "America/Mexico_City", PhonePrefix: "+52",
		Cities: []City{
			{Name: "Mexico City", Region: "CDMX", Lat: 19.4326, Lon: -99.1332},
			{Name: "Guadalajara", Region: "Jalisco", Lat: 20.6597, Lon: -103.3496},
			{Name: "Monterrey", Region: "Nuevo Leon", Lat: 25.6866, Lon: -100.3161},
		},
	},
	"spain": {
		Name: "spain", Region: "Europe", CountryCode: "ES", Currency: "EUR",
		Timezone: "Europe/Madrid", PhonePrefix: "+34",
		Cities: []City{
			{Name: "Madrid", Region: "Madrid", Lat: 40.4168, Lon: -3.7038},
			{Name: "Barcelona", Region: "Catalonia", Lat: 41.3874, Lon: 2.1686},
			{Name: "Valencia", Region: "Valencia", Lat: 39.4699, Lon: -0.3763},
		},
	},
	"germany": {
		Name: "germany", Region: "Europe", CountryCode: "DE", Currency: "EUR",
		Timezone: "Europe/Berlin", PhonePrefix: "+49",
		Cities: []City{
			{Name: "Berlin", Region: "Berlin", Lat: 52.5200, Lon: 13.4050},
			{Name: "Munich", Region: "Bavaria", Lat: 48.1351, Lon: 11.5820},
			{Name: "Hamburg", Region: "Hamburg", Lat: 53.5511, Lon: 9.9937},
		},
	},
	"usa": {
		Name: "usa", Region: "North America", CountryCode: "US", Currency: "USD",
		Timezone: "America/New_York", PhonePrefix: "+1",
		Cities: []City{
			{Name: "New York", Region: "NY", Lat: 40.7128, Lon: -74.0060},
			{Name: "Chicago", Region: "IL", Lat: 41.8781, Lon: -87.6298},
			{Name: "Austin", Region: "TX", Lat: 30.2672, Lon: -97.7431},
			{Name: "Seattle", Region: "WA", Lat: 47.6062, Lon: -122.3321},
		},
	},
	"canada": {
		Name: "canada", Region: "North America", CountryCode: "CA", Currency: "CAD",
		Timezone: "America/Toronto", PhonePrefix: "+1",
		Cities: []City{
			{Name: "Toronto", Region: "Ontario", Lat: 43.6532, Lon: -79.3832},
			{Name: "Montreal", Region: "Quebec", Lat: 45.5019, Lon: -73.5674},
			{Name: "Vancouver", Region: "British Columbia", Lat: 49.2827, Lon: -123.1207},
		},
	},
}

// Lookup returns the named context. An empty name resolves to DefaultContext.
func Lookup(name string) (Context, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultContext
	}
	ctx, ok := contexts[name]
	if !ok {
		return Context{}, fmt.Errorf("%w: %q", ErrUnknownContext, name)
	}
	return ctx, nil
}

// Names returns all context names, sorted.
func Names() []string {
	out := make([]string, 0, len(contexts))
	for n := range contexts {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// CountryOf returns the city's country, falling back to the context's.
func (c Context) CountryOf(city City) string {
	if city.Country != "" {
		return city.Country
	}
	return c.CountryCode
}

// usdPerUnit is the value of one unit of each currency in USD.
var usdPerUnit = map[string]float64{
	"USD": 1.0,
	"EUR": 1.08,
	"CAD": 0.74,
	"MXN": 0.058,
	"COP": 0.00025,
}

// RateToUSD returns the multiplier converting an amount in currency to USD.
func RateToUSD(currency string) (float64, error) {
	rate, ok := usdPerUnit[strings.ToUpper(currency)]
	if !ok {
		return 0, fmt.Errorf("unsupported currency %q", currency)
	}
	return rate, nil
}
