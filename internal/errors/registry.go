package errors

// Registered error codes.
const (
	CodeDisposed       = "R001"
	CodeCircular       = "R002"
	CodeEffectPanic    = "R003"
	CodeCleanupPanic   = "R004"
	CodeBudgetExceeded = "R005"
	CodeOwnerHookPanic = "R006"
	CodeDuplicateKeys  = "L001"
	CodeUnkeyedItem    = "L002"
	CodeTaskPanic      = "S001"
	CodePropUnknown    = "P001"
	CodePropType       = "P002"
	CodeConfigInvalid  = "C001"
	CodeConfigRead     = "C002"
	CodeInputInvalid   = "X001"
)

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Suggestion string
}

var registry = map[string]Template{
	CodeDisposed: {
		Category:   CategoryGraph,
		Message:    "Derived value read after dispose",
		Suggestion: "Stop reading a derived value once its owner has been disposed.",
	},
	CodeCircular: {
		Category:   CategoryGraph,
		Message:    "Circular dependency detected",
		Suggestion: "A derived value reads itself, directly or through other derived values. Break the cycle with a cell.",
	},
	CodeEffectPanic: {
		Category: CategoryEffect,
		Message:  "Effect panicked",
	},
	CodeCleanupPanic: {
		Category: CategoryEffect,
		Message:  "Effect cleanup panicked",
	},
	CodeBudgetExceeded: {
		Category:   CategoryEffect,
		Message:    "Effect run budget exceeded for one flush",
		Suggestion: "Effects are writing cells that re-trigger each other. Remaining effects were deferred to the next turn.",
	},
	CodeOwnerHookPanic: {
		Category: CategoryEffect,
		Message:  "Owner cleanup hook panicked",
	},
	CodeDuplicateKeys: {
		Category:   CategoryList,
		Message:    "Duplicate keys in keyed list",
		Suggestion: "Every item should have a unique key; matching of duplicates is ambiguous.",
	},
	CodeUnkeyedItem: {
		Category:   CategoryList,
		Message:    "Item cannot be used as its own key",
		Suggestion: "Set a Key function; values of this type are neither comparable nor references.",
	},
	CodeTaskPanic: {
		Category: CategoryScheduler,
		Message:  "Scheduled task panicked",
	},
	CodePropUnknown: {
		Category:   CategoryProps,
		Message:    "Unknown prop",
		Suggestion: "Declare the prop in the component's schema, or allow extra props for pass-through.",
	},
	CodePropType: {
		Category: CategoryProps,
		Message:  "Prop has the wrong type",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
	CodeConfigRead: {
		Category: CategoryConfig,
		Message:  "Cannot read configuration file",
	},
	CodeInputInvalid: {
		Category: CategoryCLI,
		Message:  "Invalid input",
	},
}

// Codes returns all registered error codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// Lookup returns the template for an error code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
