package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"sales-ledger/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// AgentService turns an operator's natural-language order text into a
// structured sale draft, or a clarification question when the text is too
// ambiguous to draft from.
type AgentService interface {
	InterpretOrder(ctx context.Context, orderText, customerList, specCatalog, productCatalog string) (*core.IntakeResponse, error)
}

type Agent struct {
	client *openai.Client
}

func NewAgent(apiKey string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client}
}

func (a *Agent) InterpretOrder(ctx context.Context, orderText, customerList, specCatalog, productCatalog string) (*core.IntakeResponse, error) {
	prompt := fmt.Sprintf(`You are the order clerk of a wholesale produce business that sells by weight (kg).
Your goal is to interpret an order described in natural language and propose a structured sale draft.
Rules:
1. Use ONLY customer names, spec names and product names that appear in the catalogs below. Copy them exactly.
2. A spec defines a fixed kg per box. "2 boxes of X plus 5 kg loose" means box_qty=2, extra_kg="5" on a line with spec X.
3. Leave product_name empty when the order does not name a product; the global per-kg price applies then.
4. payment_type is "cash" unless the order clearly says the customer takes it on credit.
5. Amounts must be exact decimal strings (e.g. "5" or "2.5").
6. Provide a confidence score (0.0-1.0) and explain your reasoning.
7. If the customer cannot be identified or no line can be built, ask for clarification instead of guessing.

Customers:
%s

Specs:
%s

Products:
%s

Order: %s`, customerList, specCatalog, productCatalog, orderText)

	// Dynamically generate the JSON schema from the Go struct
	schemaStruct := generateSchema()
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "sale_draft",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A structured sale draft or a clarification request"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var intake core.IntakeResponse
	if err := json.Unmarshal([]byte(content), &intake); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}

	if err := intake.Validate(); err != nil {
		return nil, fmt.Errorf("draft validation failed: %w", err)
	}

	return &intake, nil
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v core.IntakeResponse
	return reflector.Reflect(v)
}
