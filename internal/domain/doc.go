// Package domain models voice requests, weather snapshots, and spoken
// responses for the weather skill.
//
// # Data Source
//
// Current conditions come from the OpenWeatherMap current-weather endpoint
// (https://api.openweathermap.org/data/2.5/weather), queried by latitude and
// longitude with units=metric. The skill serves a single configured location.
//
// # Upstream Field Conventions
//
// Fields consumed from the JSON payload:
//
//	cod                     status code; a number, or a numeric string on errors
//	weather[0].description  free text, e.g. "light rain"
//	main.temp               degrees Celsius
//	main.feels_like         degrees Celsius
//	rain.1h                 millimeters in the last hour, optional
//	snow.1h                 millimeters in the last hour, optional
//
// Precipitation objects are omitted entirely when there was none, so an
// absent value means "no data", not zero. See [Reading].
//
// # Request Classification
//
// Every inbound request receives exactly one [RequestKind]. Request types
// are LaunchRequest, IntentRequest, and SessionEndedRequest; intent requests
// carry an intent name from the interaction model, including the vendor
// namespaced AMAZON.HelpIntent, AMAZON.CancelIntent, AMAZON.StopIntent and
// AMAZON.FallbackIntent.
//
// # Errors
//
//	FetchError        upstream unreachable, non-2xx, or unreadable payload
//	CompositionError  upstream answered but a needed field was missing or malformed
//	DispatchError     no rule matched, or a responder failed
//
// None of these reach the platform: each degrades to a spoken apology.
package domain
