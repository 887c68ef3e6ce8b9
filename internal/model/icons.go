package model

// Version is the famtree release version.
const Version = "0.3.1"

// Centralized icons for the UI components
// Using simple single-width characters for consistent terminal rendering
const (
	IconRoot     = "■" // Root family that is also nested elsewhere
	IconNested   = "»" // Nested occurrence
	IconCircular = "↻" // Family nested inside a copy of itself
	IconMissing  = "✗" // Nested but never reported as a root family
	IconOrphan   = "○" // Root family never nested anywhere
)
