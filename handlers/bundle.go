package handlers

// HandlerBundle groups the handlers wired in main and consumed by the route
// registration.
type HandlerBundle struct {
	Booking     *BookingHandler
	Calendly    *CalendlyHandler
	Diagnostics *DiagnosticsHandler

	AdminJWTSecret string
}
