package domain

// Intent is one resolved operation call produced from a free-text prompt.
// A nil *Intent means the prompt matched no operation.
type Intent struct {
	Operation string         `json:"operation"`
	Args      map[string]any `json:"args"`
}
