package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// Codes raised by the form and asyncvalue packages.
const (
	CodeShapeMismatch      = "X001"
	CodeDeleteNonSubModel  = "X002"
	CodeArrayShape         = "X003"
	CodeRootAsField        = "X004"
	CodeUseOutsideProducer = "X005"
	CodeInvalidPath        = "X006"

	CodeDeletedWrite    = "X101"
	CodeFieldMounted    = "X102"
	CodeReadonlyWrite   = "X103"
	CodeCheckMounted    = "X104"
	CodeUndefinedChange = "X105"

	CodeEnvDecode = "X201"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Usage Errors (X001-X099)
	// ============================================

	"X001": {
		Category: CategoryUsage,
		Message:  "Model shape mismatch",
		Detail:   "A model's value shape locks to array or object on first access and cannot change afterwards.",
	},
	"X002": {
		Category: CategoryUsage,
		Message:  "Only sub-models can be deleted",
		Detail:   "The root model owns the value storage and cannot be marked deleted.",
	},
	"X003": {
		Category: CategoryUsage,
		Message:  "Array operation on an object model",
		Detail:   "Array helpers require a model whose shape is auto or array.",
	},
	"X004": {
		Category: CategoryUsage,
		Message:  "Root model cannot be used as a field",
		Detail:   "AsField addresses a model through its parent; the root has none.",
	},
	"X005": {
		Category: CategoryUsage,
		Message:  "Async value read outside a producer",
		Detail:   "Use must be called with the context passed to a producer function.",
	},
	"X006": {
		Category: CategoryUsage,
		Message:  "Invalid value path",
		Detail:   "The path cannot address a value in the current tree.",
	},

	// ============================================
	// Stale Operations (X100-X199)
	// ============================================

	"X101": {
		Category: CategoryStale,
		Message:  "Write to deleted model ignored",
		Detail:   "The model was removed from its array. Writes to it and its descendants are ignored.",
	},
	"X102": {
		Category: CategoryStale,
		Message:  "Field already mounted",
		Detail:   "Fork the field to mount it more than once.",
	},
	"X103": {
		Category: CategoryStale,
		Message:  "Write to readonly field ignored",
		Detail:   "Readonly fields hold a fixed value. Give the item a name or a field to make it writable.",
	},
	"X104": {
		Category: CategoryStale,
		Message:  "Check already mounted",
	},
	"X105": {
		Category: CategoryStale,
		Message:  "Undefined change coerced to null",
		Detail:   "Fields are controlled; HandleChange(Undefined) writes nil instead.",
	},

	// ============================================
	// Config Errors (X200-X299)
	// ============================================

	"X201": {
		Category: CategoryConfig,
		Message:  "Invalid env configuration",
		Detail:   "The env document could not be decoded.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
