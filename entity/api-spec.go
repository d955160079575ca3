package entity

// ApiSpec describes the backend call an api_request step performs.
// Payload values may embed {fieldName} placeholders resolved from the
// conversation's stored responses.
type ApiSpec struct {
	Method  string            `json:"method" yaml:"method" validate:"required"`
	URL     string            `json:"url" yaml:"url" validate:"required,url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Payload map[string]string `json:"payload,omitempty" yaml:"payload,omitempty"`
	Format  *ResponseFormat   `json:"response_format" yaml:"response_format" validate:"required"`
}

// ResponseFormat is the declarative grammar for rendering an API payload
// into user-facing text.
type ResponseFormat struct {
	Rules          map[string]FormatRule `json:"format_rules" yaml:"format_rules"`
	SuccessMessage string                `json:"success_message" yaml:"success_message"`
	ErrorMessage   string                `json:"error_message" yaml:"error_message"`
	Fallback       string                `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// FallbackText is what an empty result set renders to when the payload
// itself carries no message.
func (f *ResponseFormat) FallbackText() string {
	if f.Fallback != "" {
		return f.Fallback
	}
	return f.ErrorMessage
}

// FormatRule renders one named slot of the success message. List-valued
// data renders each record through Template and joins with JoinWith.
type FormatRule struct {
	Template string `json:"template" yaml:"template"`
	JoinWith string `json:"join_with,omitempty" yaml:"join_with,omitempty"`
}
