package ui

// Unicode symbols for status indicators.
const (
	SymbolFail     = "✗" // Phase failed
	SymbolProgress = "◐" // Phase in progress
	SymbolComplete = "●" // Phase done
)
