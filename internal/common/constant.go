// Package common contains shared constants and sentinel errors used across
// SecureVault components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// ColorTags is the palette a new credential entry draws its cosmetic tag from.
var ColorTags = []string{
	"bg-indigo-600",
	"bg-purple-600",
	"bg-pink-600",
	"bg-blue-600",
	"bg-teal-600",
	"bg-emerald-600",
	"bg-violet-600",
	"bg-fuchsia-600",
	"bg-sky-600",
}
