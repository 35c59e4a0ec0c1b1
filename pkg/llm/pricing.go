package llm

// pricing is dollars per million tokens.
type pricing struct {
	prompt     float64
	completion float64
}

var modelPricing = map[string]pricing{
	"gpt-4o":       {prompt: 2.50, completion: 10.00},
	"gpt-4o-mini":  {prompt: 0.15, completion: 0.60},
	"gpt-4.1":      {prompt: 2.00, completion: 8.00},
	"gpt-4.1-mini": {prompt: 0.40, completion: 1.60},
}

// defaultPricing is used for unknown models so cost accounting never
// silently records zero.
var defaultPricing = pricing{prompt: 2.50, completion: 10.00}

// CostFor converts token usage into dollars for the given model.
func CostFor(model string, usage Usage) float64 {
	p, ok := modelPricing[model]
	if !ok {
		p = defaultPricing
	}
	return float64(usage.PromptTokens)*p.prompt/1e6 +
		float64(usage.CompletionTokens)*p.completion/1e6
}
