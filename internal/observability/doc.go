// Package observability records focuslog activity as structured JSON Lines
// events and derives focus metrics and alerts from them on demand.
package observability
