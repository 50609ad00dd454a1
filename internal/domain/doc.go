// Package domain models location-based farming advisories and the pure logic
// used to resolve them.
//
// # Advisory Kinds
//
// Three advisories are served, each resolved independently:
//
//	weather  current conditions for a city (temperature, humidity, wind, sky)
//	soil     soil classification and crops suited to it, per country
//	crop     an ordered list of crop recommendations, per country
//
// # Sources
//
// Every result records where its data came from:
//
//	live       the upstream answered and the answer passed validation
//	reference  the query contained a key of the curated reference dataset
//	default    nothing matched; the kind's fallback key was used
//	           (Hyderabad for weather, India for soil and crops)
//
// # Location Matching
//
// Queries are free text. A dataset key K matches a query Q when
// normalize(Q) contains normalize(K), where normalize lowercases and collapses
// whitespace runs. "Farms near India, northern belt" therefore matches India.
// When several keys match, the first key in dataset order wins. No ranking is
// applied: "New Delhi" and "Delhi" would both match "New Delhi" and the one
// declared first is chosen. See [Matcher].
//
// # Generative Responses
//
// Soil and crop advisories can come from a text-generation model prompted to
// answer with JSON only. Models still wrap the JSON in prose or code fences,
// so [Extract] takes the span from the first opening bracket to the last
// closing bracket of the requested shape and parses it. The span is greedy,
// not brace-balanced: "a {x} b {y}" yields "{x} b {y}", which fails to parse.
//
// # Validation
//
// Live values are checked before use (see [ValidateWeather], [ValidateSoil],
// [ValidateCrops]). Out-of-range values are rejected, never clamped:
// humidity must be within 0..100, wind speed non-negative, suitability one of
// High, Medium or Low.
package domain
