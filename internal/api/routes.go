package api

// API route path constants
// Centralizes all API endpoint paths to ensure consistency across the application
const (
	// Conversion route
	RouteConvert = "/api/convert"

	// URL download routes
	RouteYoutube = "/api/youtube"
	RouteSpotify = "/api/spotify"

	// Format listing route
	RouteFormats = "/api/formats"

	// Index route
	RouteIndex = "/"
)
