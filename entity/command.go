package entity

// CommandKind discriminates the three command flavours the catalog knows.
type CommandKind string

const (
	// KindSimple is a one-shot canned reply.
	KindSimple CommandKind = "simple"
	// KindConversation is a multi-step scripted dialogue.
	KindConversation CommandKind = "conversation"
	// KindApiRequest is a dialogue that ends in a backend API call.
	KindApiRequest CommandKind = "api_request"
)

// Command is one named unit of bot behaviour, identified by its catalog key.
type Command struct {
	Key           string      `json:"-" yaml:"-"`
	Kind          CommandKind `json:"type" yaml:"type" validate:"required,oneof=simple conversation api_request"`
	Response      string      `json:"response,omitempty" yaml:"response,omitempty"`
	Samples       []string    `json:"samples,omitempty" yaml:"samples,omitempty"`
	Steps         []Step      `json:"steps,omitempty" yaml:"steps,omitempty" validate:"omitempty,dive"`
	FieldSelector string      `json:"field_selector,omitempty" yaml:"field_selector,omitempty"`
	Confirmation  string      `json:"confirmation,omitempty" yaml:"confirmation,omitempty"`
}

// Default step ids for the field-edit loop. A command may override them
// with the field_selector / confirmation keys in its definition.
const (
	DefaultFieldSelectorStep = "field_to_update"
	DefaultConfirmationStep  = "confirmation"
)

// FieldSelectorStep returns the id of the step that offers single-field edits.
func (c *Command) FieldSelectorStep() string {
	if c.FieldSelector != "" {
		return c.FieldSelector
	}
	return DefaultFieldSelectorStep
}

// ConfirmationStep returns the id of the step an edit loops back to.
func (c *Command) ConfirmationStep() string {
	if c.Confirmation != "" {
		return c.Confirmation
	}
	return DefaultConfirmationStep
}

// IsScripted reports whether the command carries a step graph.
func (c *Command) IsScripted() bool {
	return c.Kind == KindConversation || c.Kind == KindApiRequest
}

// StepIndex returns the position of the step with the given id, or -1.
func (c *Command) StepIndex(id string) int {
	for i := range c.Steps {
		if c.Steps[i].ID == id {
			return i
		}
	}
	return -1
}

// Step is one node in a command's dialogue graph.
type Step struct {
	ID            string            `json:"id" yaml:"id" validate:"required"`
	Prompt        string            `json:"bot" yaml:"bot"`
	Expect        []string          `json:"expect,omitempty" yaml:"expect,omitempty"`
	StoreResponse bool              `json:"store_response,omitempty" yaml:"store_response,omitempty"`
	Responses     map[string]string `json:"responses,omitempty" yaml:"responses,omitempty"`
	Goto          map[string]string `json:"goto,omitempty" yaml:"goto,omitempty"`
	IsFinal       bool              `json:"is_final,omitempty" yaml:"is_final,omitempty"`
	Api           *ApiSpec          `json:"api,omitempty" yaml:"api,omitempty"`
}

// Accepts reports whether the given answer passes the step's expect gate.
// A step without an expect set accepts anything.
func (s *Step) Accepts(answer string) bool {
	if len(s.Expect) == 0 {
		return true
	}
	for _, option := range s.Expect {
		if option == answer {
			return true
		}
	}
	return false
}
