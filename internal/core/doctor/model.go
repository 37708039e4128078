package doctor

import "context"

// ModelCheck reports whether a language model provider could be built.
type ModelCheck struct {
	provider string
	model    string
	err      error
}

// NewModelCheck takes the configured provider and model and the error, if
// any, returned while building the provider.
func NewModelCheck(provider, model string, err error) *ModelCheck {
	return &ModelCheck{provider: provider, model: model, err: err}
}

func (c *ModelCheck) Name() string {
	return "Model"
}

func (c *ModelCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	label := c.provider
	if c.model != "" {
		label += " " + c.model
	}

	if c.err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  label,
			Status: StatusFail,
			Detail: c.err.Error(),
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:  label,
		Status: StatusPass,
		Detail: "configured",
	})
	return result
}
